// Package near implements the RPC reader for NEAR over its JSON-RPC method
// set, which takes named parameter objects for most methods.
package near

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/chainlens/internal/source"
)

// routingAccount is the shard routing hint passed to the tx status method
// when only the hash is known. The registrar account exists on every NEAR
// network, and nodes resolve the hash regardless of the hint.
const routingAccount = "near"

// reader implements source.Reader for the NEAR family.
type reader struct {
	rpc jsonrpc.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the NEAR reader on top of a JSON-RPC client.
func NewReader(rpc jsonrpc.Client) *reader {
	return &reader{rpc: rpc}
}

// unknownEntity reports whether a provider error names a missing account,
// transaction, or block. NEAR signals these through the generic error object
// with UNKNOWN_* causes.
func unknownEntity(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "UNKNOWN_TRANSACTION") ||
		strings.Contains(msg, "UNKNOWN_ACCOUNT") ||
		strings.Contains(msg, "UNKNOWN_BLOCK") ||
		strings.Contains(msg, "DOES NOT EXIST")
}

func (r *reader) finalBlock(ctx context.Context, endpoint string) (normalize.NEARBlock, error) {
	raw, err := r.rpc.Call(ctx, endpoint, "block", map[string]any{"finality": "final"})
	if err != nil {
		return normalize.NEARBlock{}, err
	}

	var block normalize.NEARBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return normalize.NEARBlock{}, err
	}
	return block, nil
}

// Height returns the final block height.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	block, err := r.finalBlock(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	return block.Header.Height, nil
}

// AddressInfo runs a view_account query at final state.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "query", map[string]any{
		"request_type": "view_account",
		"finality":     "final",
		"account_id":   address,
	})
	if err != nil {
		if unknownEntity(err) {
			return normalize.AddressInfo{}, fmt.Errorf("%w: address %s", source.ErrEntityNotFound, address)
		}
		return normalize.AddressInfo{}, err
	}

	return adapter.ToAddressInfo(chain, address, raw)
}

// Transaction fetches the tx status for a hash. NEAR routes the lookup by a
// sender account id; a fixed hint is enough for nodes to resolve the hash.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "tx", map[string]any{
		"tx_hash":           hash,
		"sender_account_id": routingAccount,
	})
	if err != nil {
		if unknownEntity(err) {
			return normalize.Transaction{}, fmt.Errorf("%w: transaction %s", source.ErrEntityNotFound, hash)
		}
		return normalize.Transaction{}, err
	}

	return adapter.ToTransaction(chain, raw)
}

// Block fetches a block by height.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "block", map[string]any{"block_id": number})
	if err != nil {
		if unknownEntity(err) {
			return normalize.Block{}, fmt.Errorf("%w: block %d", source.ErrEntityNotFound, number)
		}
		return normalize.Block{}, err
	}

	return adapter.ToBlock(chain, raw)
}

// LatestTransactions walks the final block's chunks and collects the
// transactions they carry. Chunk transactions are included by definition;
// they are reported as successful.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return nil, err
	}

	block, err := r.finalBlock(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	txs := make([]normalize.Transaction, 0, limit)
	for _, chunk := range block.Chunks {
		if len(txs) == limit {
			break
		}

		raw, err := r.rpc.Call(ctx, endpoint, "chunk", map[string]any{"chunk_id": chunk.ChunkHash})
		if err != nil {
			return nil, err
		}

		var payload struct {
			Transactions []json.RawMessage `json:"transactions"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}

		for _, entry := range payload.Transactions {
			// Reassemble the tx-status payload shape the normalizer reads.
			// An empty SuccessValue marks inclusion.
			encoded, err := json.Marshal(map[string]any{
				"transaction": json.RawMessage(entry),
				"status":      map[string]any{"SuccessValue": ""},
			})
			if err != nil {
				return nil, err
			}

			tx, err := adapter.ToTransaction(chain, encoded)
			if err != nil {
				return nil, err
			}

			tx.BlockNumber = block.Header.Height
			tx.Timestamp = block.Header.Timestamp / 1_000_000_000
			txs = append(txs, tx)
			if len(txs) == limit {
				break
			}
		}
	}

	return txs, nil
}

// TokenInfo requires ft_metadata contract view calls, which this reader does
// not speak.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection on %s", source.ErrUnsupportedOperation, chain.Family)
}
