// Package chains holds the static configuration surface of the aggregation
// layer: chain descriptors, their RPC endpoint pools, optional keyed-API
// descriptors, and per-chain analytics tuning. Descriptors are read-only
// inputs; nothing in this package mutates them after load.
package chains

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnconfiguredChain is returned when a chain id has no descriptor. This is
// a configuration bug on the caller's side, not a runtime fallback case.
var ErrUnconfiguredChain = errors.New("chain not configured")

// Family groups chains that share wire format and semantics. Adding support
// for a chain of an existing family is a registration, not new control flow.
type Family string

const (
	FamilyEVM    Family = "evm"
	FamilyUTXO   Family = "utxo"
	FamilySolana Family = "solana"
	FamilyTron   Family = "tron"
	FamilyAptos  Family = "aptos"
	FamilySui    Family = "sui"
	FamilyCosmos Family = "cosmos"
	FamilyNEAR   Family = "near"
)

// KeyedAPI describes an optional scan-style HTTP API for a chain. These
// offer richer data (history, token transfers) than raw RPC but require a
// registered credential when RequiresKey is set.
type KeyedAPI struct {
	BaseURL     string `yaml:"base_url" validate:"required,url"`
	RequiresKey bool   `yaml:"requires_key"`
}

// Tuning carries the per-chain analytics knobs that the aggregator consumes.
// They are configuration, never literals inside the aggregator itself.
type Tuning struct {
	// LargeTxThreshold is the native-unit value at or above which a
	// transaction counts as "large" (e.g. 10 for EVM chains, 1 for Bitcoin).
	LargeTxThreshold float64 `yaml:"large_tx_threshold"`

	// AvgBlockTime is the static fallback block interval used when a
	// transaction sample cannot support a block-production estimate.
	AvgBlockTime time.Duration `yaml:"avg_block_time"`

	// TxPerBlock is the estimated transaction count per block, used to
	// derive block production from a transaction sample.
	TxPerBlock int `yaml:"tx_per_block"`

	// SampleSize bounds the number of recent transactions fetched for
	// analytics computations.
	SampleSize int `yaml:"sample_size"`
}

// Descriptor is the immutable identity and metadata of one chain.
type Descriptor struct {
	ID           string    `yaml:"id" validate:"required"`
	Name         string    `yaml:"name" validate:"required"`
	Symbol       string    `yaml:"symbol" validate:"required"`
	Family       Family    `yaml:"family" validate:"required,oneof=evm utxo solana tron aptos sui cosmos near"`
	RPCEndpoints []string  `yaml:"rpc_endpoints" validate:"required,min=1,dive,url"`
	API          *KeyedAPI `yaml:"api,omitempty"`

	// ExplorerURL is a template with one %s verb for the entity id, e.g.
	// "https://etherscan.io/tx/%s".
	ExplorerURL string `yaml:"explorer_url"`

	Tuning Tuning `yaml:"tuning"`
}

// HasAPI reports whether the chain has a keyed API configured.
func (d Descriptor) HasAPI() bool {
	return d.API != nil && d.API.BaseURL != ""
}

// Registry is the lookup table of configured chains. It preserves the
// configuration order so ranked detector output is deterministic.
type Registry struct {
	byID  map[string]Descriptor
	order []string
}

// NewRegistry builds a Registry from the given descriptors. Duplicate ids
// are rejected; descriptor validation is the loader's responsibility.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{
		byID:  make(map[string]Descriptor, len(descriptors)),
		order: make([]string, 0, len(descriptors)),
	}

	for _, d := range descriptors {
		id := strings.ToLower(d.ID)
		if _, exists := r.byID[id]; exists {
			return nil, fmt.Errorf("duplicate chain id %q", id)
		}

		r.byID[id] = d
		r.order = append(r.order, id)
	}

	return r, nil
}

// Get returns the descriptor for the given chain id, or ErrUnconfiguredChain
// if the id is unknown.
func (r *Registry) Get(chainID string) (Descriptor, error) {
	d, ok := r.byID[strings.ToLower(chainID)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnconfiguredChain, chainID)
	}
	return d, nil
}

// All returns every configured descriptor in configuration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// ByFamily returns the descriptors of every configured chain in the given
// family, in configuration order.
func (r *Registry) ByFamily(f Family) []Descriptor {
	var out []Descriptor
	for _, id := range r.order {
		if d := r.byID[id]; d.Family == f {
			out = append(out, d)
		}
	}
	return out
}
