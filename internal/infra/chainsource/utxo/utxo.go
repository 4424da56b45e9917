// Package utxo implements the RPC reader for UTXO chains against the
// blockchain.info-style REST surface that the common public Bitcoin data
// nodes expose.
package utxo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/rest"
	"github.com/gabapcia/chainlens/internal/source"
)

// reader implements source.Reader for the UTXO family.
type reader struct {
	rest rest.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the UTXO reader on top of the REST helper.
func NewReader(restClient rest.Client) *reader {
	return &reader{rest: restClient}
}

func join(endpoint, path string) string {
	return strings.TrimRight(endpoint, "/") + path
}

func mapNotFound(err error, entity string) error {
	if errors.Is(err, rest.ErrResourceNotFound) {
		return fmt.Errorf("%w: %s", source.ErrEntityNotFound, entity)
	}
	return err
}

// Height returns the current block count.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	var height uint64
	if err := r.rest.Get(ctx, join(endpoint, "/q/getblockcount"), &height); err != nil {
		return 0, err
	}
	return height, nil
}

// AddressInfo fetches the rawaddr view, which already carries balance, total
// transaction count and the most recent transactions.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, "/rawaddr/"+address+"?limit=10"), &raw); err != nil {
		return normalize.AddressInfo{}, mapNotFound(err, "address "+address)
	}

	return adapter.ToAddressInfo(chain, address, raw)
}

// Transaction fetches the rawtx view of a transaction.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, "/rawtx/"+hash), &raw); err != nil {
		return normalize.Transaction{}, mapNotFound(err, "transaction "+hash)
	}

	return adapter.ToTransaction(chain, raw)
}

// Block resolves a height to its canonical block. The block-height resource
// returns every block ever seen at that height; the first entry is the one
// on the main chain.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	var payload struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := r.rest.Get(ctx, join(endpoint, fmt.Sprintf("/block-height/%d?format=json", number)), &payload); err != nil {
		return normalize.Block{}, mapNotFound(err, fmt.Sprintf("block %d", number))
	}
	if len(payload.Blocks) == 0 {
		return normalize.Block{}, fmt.Errorf("%w: block %d", source.ErrEntityNotFound, number)
	}

	return adapter.ToBlock(chain, payload.Blocks[0])
}

// LatestTransactions samples the newest block's transactions.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	var latest struct {
		Hash   string `json:"hash"`
		Height uint64 `json:"height"`
	}
	if err := r.rest.Get(ctx, join(endpoint, "/latestblock"), &latest); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, "/rawblock/"+latest.Hash), &raw); err != nil {
		return nil, mapNotFound(err, "block "+latest.Hash)
	}

	txs, err := normalize.UTXOBlockTransactions(chain, raw)
	if err != nil {
		return nil, err
	}

	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// TokenInfo is not a UTXO concept.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection on %s", source.ErrUnsupportedOperation, chain.Family)
}
