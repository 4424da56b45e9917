// Package sui implements the RPC reader for Sui over its JSON-RPC method
// set. Checkpoints stand in for blocks and transaction digests for hashes.
package sui

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/chainlens/internal/source"
)

// txBlockOptions asks for the response fields the normalizer consumes.
var txBlockOptions = map[string]any{
	"showInput":          true,
	"showEffects":        true,
	"showBalanceChanges": true,
}

// reader implements source.Reader for the Sui family.
type reader struct {
	rpc jsonrpc.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the Sui reader on top of a JSON-RPC client.
func NewReader(rpc jsonrpc.Client) *reader {
	return &reader{rpc: rpc}
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Height returns the latest checkpoint sequence number, which arrives as a
// decimal string.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	raw, err := r.rpc.Call(ctx, endpoint, "sui_getLatestCheckpointSequenceNumber")
	if err != nil {
		return 0, err
	}

	var seq string
	if err := json.Unmarshal(raw, &seq); err != nil {
		return 0, err
	}

	var height uint64
	if _, err := fmt.Sscanf(seq, "%d", &height); err != nil {
		return 0, fmt.Errorf("unparseable checkpoint sequence %q: %w", seq, err)
	}
	return height, nil
}

// AddressInfo fetches the native coin balance via suix_getBalance.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "suix_getBalance", address)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	return adapter.ToAddressInfo(chain, address, raw)
}

// Transaction fetches sui_getTransactionBlock with effects and balance
// changes included.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "sui_getTransactionBlock", hash, txBlockOptions)
	if err != nil {
		return normalize.Transaction{}, err
	}
	if isNull(raw) {
		return normalize.Transaction{}, fmt.Errorf("%w: transaction %s", source.ErrEntityNotFound, hash)
	}

	return adapter.ToTransaction(chain, raw)
}

// Block fetches the checkpoint at the given sequence number. The method takes
// the sequence as a decimal string.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "sui_getCheckpoint", fmt.Sprintf("%d", number))
	if err != nil {
		return normalize.Block{}, err
	}
	if isNull(raw) {
		return normalize.Block{}, fmt.Errorf("%w: block %d", source.ErrEntityNotFound, number)
	}

	return adapter.ToBlock(chain, raw)
}

// LatestTransactions resolves the newest checkpoint's digest list and bulk
// fetches the transaction blocks behind it.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return nil, err
	}

	seq, err := r.Height(ctx, chain, endpoint)
	if err != nil {
		return nil, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "sui_getCheckpoint", fmt.Sprintf("%d", seq))
	if err != nil {
		return nil, err
	}

	var checkpoint normalize.SuiCheckpoint
	if err := json.Unmarshal(raw, &checkpoint); err != nil {
		return nil, err
	}

	digests := checkpoint.Transactions
	if len(digests) > limit {
		digests = digests[:limit]
	}
	if len(digests) == 0 {
		return []normalize.Transaction{}, nil
	}

	raw, err = r.rpc.Call(ctx, endpoint, "sui_multiGetTransactionBlocks", digests, txBlockOptions)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
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

// TokenInfo requires coin-metadata object reads, which this reader does not
// speak.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection on %s", source.ErrUnsupportedOperation, chain.Family)
}
