// Package solana implements the RPC reader for Solana over its native
// JSON-RPC method set. Heights are slots and transactions are looked up by
// signature.
package solana

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/chainlens/internal/source"
)

// reader implements source.Reader for the Solana family.
type reader struct {
	rpc jsonrpc.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the Solana reader on top of a JSON-RPC client.
func NewReader(rpc jsonrpc.Client) *reader {
	return &reader{rpc: rpc}
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Height returns the current slot.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	raw, err := r.rpc.Call(ctx, endpoint, "getSlot")
	if err != nil {
		return 0, err
	}

	var slot uint64
	if err := json.Unmarshal(raw, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

// AddressInfo combines getBalance with a getSignaturesForAddress page so the
// caller sees both the balance and a measure of recent activity.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "getBalance", address)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	info, err := adapter.ToAddressInfo(chain, address, raw)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	if raw, err := r.rpc.Call(ctx, endpoint, "getSignaturesForAddress", address, map[string]any{"limit": 10}); err == nil {
		var sigs []struct {
			Signature string `json:"signature"`
		}
		if err := json.Unmarshal(raw, &sigs); err == nil {
			info.TxCount = uint64(len(sigs))
		}
	}

	return info, nil
}

// Transaction fetches getTransaction by signature.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "getTransaction", hash, map[string]any{
		"encoding":                       "json",
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		return normalize.Transaction{}, err
	}
	if isNull(raw) {
		return normalize.Transaction{}, fmt.Errorf("%w: transaction %s", source.ErrEntityNotFound, hash)
	}

	return adapter.ToTransaction(chain, raw)
}

// Block fetches getBlock in signatures mode, which is enough for the
// normalized block summary.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "getBlock", number, map[string]any{
		"transactionDetails":             "signatures",
		"rewards":                        false,
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		return normalize.Block{}, err
	}
	if isNull(raw) {
		return normalize.Block{}, fmt.Errorf("%w: block %d", source.ErrEntityNotFound, number)
	}

	return adapter.ToBlock(chain, raw)
}

// LatestTransactions refetches the newest slot with full transaction details
// and walks back through skipped slots until enough transactions are found.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	slot, err := r.Height(ctx, chain, endpoint)
	if err != nil {
		return nil, err
	}

	maxSlots := source.SampleWindow(chain, limit)

	txs := make([]normalize.Transaction, 0, limit)
	for i := 0; i < maxSlots && len(txs) < limit && slot >= uint64(i); i++ {
		raw, err := r.rpc.Call(ctx, endpoint, "getBlock", slot-uint64(i), map[string]any{
			"transactionDetails":             "full",
			"rewards":                        false,
			"maxSupportedTransactionVersion": 0,
		})
		if err != nil {
			// Slots without a block are normal on Solana; keep walking.
			continue
		}
		if isNull(raw) {
			continue
		}

		blockTxs, err := normalize.SolanaBlockTransactions(chain, slot-uint64(i), raw)
		if err != nil {
			return nil, err
		}

		for _, tx := range blockTxs {
			txs = append(txs, tx)
			if len(txs) == limit {
				break
			}
		}
	}

	return txs, nil
}

// TokenInfo requires SPL token-program account decoding, which is outside
// the JSON read surface this reader speaks.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection on %s", source.ErrUnsupportedOperation, chain.Family)
}
