// Package tron implements the RPC reader for Tron against the TronGrid-style
// wallet HTTP API, where every read is a POST with a JSON body.
package tron

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/rest"
	"github.com/gabapcia/chainlens/internal/source"
)

// reader implements source.Reader for the Tron family.
type reader struct {
	rest rest.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the Tron reader on top of the REST helper.
func NewReader(restClient rest.Client) *reader {
	return &reader{rest: restClient}
}

func join(endpoint, path string) string {
	return strings.TrimRight(endpoint, "/") + path
}

// isEmptyObject reports whether the wallet API answered with the bare "{}"
// it uses for unknown accounts and transactions.
func isEmptyObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "{}" || trimmed == "null"
}

// Height returns the current block number via wallet/getnowblock.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	var block normalize.TronBlock
	if err := r.rest.Post(ctx, join(endpoint, "/wallet/getnowblock"), map[string]any{}, &block); err != nil {
		return 0, err
	}
	return block.BlockHeader.RawData.Number, nil
}

// AddressInfo fetches wallet/getaccount with base58 (visible) addressing.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var raw json.RawMessage
	body := map[string]any{"address": address, "visible": true}
	if err := r.rest.Post(ctx, join(endpoint, "/wallet/getaccount"), body, &raw); err != nil {
		return normalize.AddressInfo{}, err
	}
	if isEmptyObject(raw) {
		return normalize.AddressInfo{}, fmt.Errorf("%w: address %s", source.ErrEntityNotFound, address)
	}

	return adapter.ToAddressInfo(chain, address, raw)
}

// Transaction fetches wallet/gettransactionbyid.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	var raw json.RawMessage
	body := map[string]any{"value": hash, "visible": true}
	if err := r.rest.Post(ctx, join(endpoint, "/wallet/gettransactionbyid"), body, &raw); err != nil {
		return normalize.Transaction{}, err
	}
	if isEmptyObject(raw) {
		return normalize.Transaction{}, fmt.Errorf("%w: transaction %s", source.ErrEntityNotFound, hash)
	}

	return adapter.ToTransaction(chain, raw)
}

// Block fetches wallet/getblockbynum.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	var raw json.RawMessage
	body := map[string]any{"num": number, "visible": true}
	if err := r.rest.Post(ctx, join(endpoint, "/wallet/getblockbynum"), body, &raw); err != nil {
		return normalize.Block{}, err
	}
	if isEmptyObject(raw) {
		return normalize.Block{}, fmt.Errorf("%w: block %d", source.ErrEntityNotFound, number)
	}

	return adapter.ToBlock(chain, raw)
}

// LatestTransactions samples the now block's transactions.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	var raw json.RawMessage
	if err := r.rest.Post(ctx, join(endpoint, "/wallet/getnowblock"), map[string]any{"visible": true}, &raw); err != nil {
		return nil, err
	}

	txs, err := normalize.TronBlockTransactions(chain, raw)
	if err != nil {
		return nil, err
	}

	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// TokenInfo requires TRC-20 triggerconstantcontract calls with ABI-encoded
// hex addresses, which this reader does not speak.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection on %s", source.ErrUnsupportedOperation, chain.Family)
}
