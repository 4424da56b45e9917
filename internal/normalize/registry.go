package normalize

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gabapcia/chainlens/internal/chains"
)

// ErrUnsupportedFamily is returned when no adapter is registered for a
// chain's family.
var ErrUnsupportedFamily = errors.New("no normalizer registered for chain family")

// Adapter converts raw upstream payloads of one chain family into the
// common schema. Implementations must be stateless and deterministic.
type Adapter interface {
	// ToAddressInfo converts the family's address/balance payload. The
	// queried address is passed through because several upstreams omit it
	// from the payload itself.
	ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error)

	// ToTransaction converts the family's transaction payload.
	ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error)

	// ToBlock converts the family's block payload.
	ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error)
}

// registry maps chain-family tag to adapter, so adding a chain of a known
// family is a registration rather than a new branch in every operation.
var registry = map[chains.Family]Adapter{}

// Register installs the adapter for a family. Called from adapter init
// functions; duplicate registrations panic because they can only be a
// programming error.
func Register(f chains.Family, a Adapter) {
	if _, exists := registry[f]; exists {
		panic(fmt.Sprintf("normalize: adapter for family %q registered twice", f))
	}
	registry[f] = a
}

// ForFamily returns the adapter registered for the family.
func ForFamily(f chains.Family) (Adapter, error) {
	a, ok := registry[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, f)
	}
	return a, nil
}
