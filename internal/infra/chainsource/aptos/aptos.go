// Package aptos implements the RPC reader for Aptos against the fullnode
// REST API (the /v1 surface public nodes expose).
package aptos

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

// reader implements source.Reader for the Aptos family.
type reader struct {
	rest rest.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the Aptos reader on top of the REST helper.
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

// Height returns the ledger's current block height from the node info
// resource at the API root.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	var info struct {
		BlockHeight string `json:"block_height"`
	}
	if err := r.rest.Get(ctx, join(endpoint, "/"), &info); err != nil {
		return 0, err
	}

	var height uint64
	if _, err := fmt.Sscanf(info.BlockHeight, "%d", &height); err != nil {
		return 0, fmt.Errorf("unparseable ledger height %q: %w", info.BlockHeight, err)
	}
	return height, nil
}

// AddressInfo fetches the account's resource list, from which the native
// coin store balance is extracted.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, "/accounts/"+address+"/resources"), &raw); err != nil {
		return normalize.AddressInfo{}, mapNotFound(err, "address "+address)
	}

	info, err := adapter.ToAddressInfo(chain, address, raw)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var account struct {
		SequenceNumber string `json:"sequence_number"`
	}
	if err := r.rest.Get(ctx, join(endpoint, "/accounts/"+address), &account); err == nil {
		fmt.Sscanf(account.SequenceNumber, "%d", &info.TxCount)
	}

	return info, nil
}

// Transaction fetches transactions/by_hash.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, "/transactions/by_hash/"+hash), &raw); err != nil {
		return normalize.Transaction{}, mapNotFound(err, "transaction "+hash)
	}

	return adapter.ToTransaction(chain, raw)
}

// Block fetches blocks/by_height.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	var raw json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, fmt.Sprintf("/blocks/by_height/%d", number)), &raw); err != nil {
		return normalize.Block{}, mapNotFound(err, fmt.Sprintf("block %d", number))
	}

	return adapter.ToBlock(chain, raw)
}

// LatestTransactions pages the global transactions feed, newest first.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if err := r.rest.Get(ctx, join(endpoint, fmt.Sprintf("/transactions?limit=%d", limit)), &entries); err != nil {
		return nil, err
	}

	txs := make([]normalize.Transaction, 0, len(entries))
	for _, entry := range entries {
		tx, err := adapter.ToTransaction(chain, entry)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// TokenInfo requires Move-module view calls, which this reader does not
// speak.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection on %s", source.ErrUnsupportedOperation, chain.Family)
}
