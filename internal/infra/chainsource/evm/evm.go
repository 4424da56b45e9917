// Package evm implements the RPC reader for EVM-style chains (Ethereum,
// Polygon, BSC, Arbitrum, Optimism, ...) over the standard eth_* JSON-RPC
// method set.
package evm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/chainlens/internal/pkg/types"
	"github.com/gabapcia/chainlens/internal/source"
)

// ERC-20 introspection selectors.
const (
	selName        = "0x06fdde03"
	selSymbol      = "0x95d89b41"
	selDecimals    = "0x313ce567"
	selTotalSupply = "0x18160ddd"
)

// reader implements source.Reader for the EVM family.
type reader struct {
	rpc jsonrpc.Client
}

// Compile-time assertion that reader implements the source.Reader interface.
var _ source.Reader = (*reader)(nil)

// NewReader constructs the EVM reader on top of a JSON-RPC client.
func NewReader(rpc jsonrpc.Client) *reader {
	return &reader{rpc: rpc}
}

// isNull reports whether a JSON-RPC result is the null literal, which the
// eth_* methods use for missing transactions and blocks.
func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Height returns the current block number via eth_blockNumber.
func (r *reader) Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error) {
	raw, err := r.rpc.Call(ctx, endpoint, "eth_blockNumber")
	if err != nil {
		return 0, err
	}

	var h types.Hex
	if err := h.UnmarshalJSON(raw); err != nil {
		return 0, err
	}
	return h.Uint64(), nil
}

// AddressInfo combines eth_getBalance and eth_getTransactionCount. The nonce
// stands in for the outbound transaction count; richer history comes from the
// keyed API tier.
func (r *reader) AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "eth_getBalance", address, "latest")
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	info, err := adapter.ToAddressInfo(chain, address, raw)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	if raw, err := r.rpc.Call(ctx, endpoint, "eth_getTransactionCount", address, "latest"); err == nil {
		var nonce types.Hex
		if err := nonce.UnmarshalJSON(raw); err == nil {
			info.TxCount = nonce.Uint64()
		}
	}

	return info, nil
}

// Transaction fetches eth_getTransactionByHash, folds in the receipt when one
// exists, and stamps the inclusion timestamp from the containing block.
func (r *reader) Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "eth_getTransactionByHash", hash)
	if err != nil {
		return normalize.Transaction{}, err
	}
	if isNull(raw) {
		return normalize.Transaction{}, fmt.Errorf("%w: transaction %s", source.ErrEntityNotFound, hash)
	}

	tx, err := adapter.ToTransaction(chain, raw)
	if err != nil {
		return normalize.Transaction{}, err
	}

	if raw, err := r.rpc.Call(ctx, endpoint, "eth_getTransactionReceipt", hash); err == nil && !isNull(raw) {
		tx, err = normalize.ApplyEVMReceipt(tx, raw)
		if err != nil {
			return normalize.Transaction{}, err
		}
	}

	if tx.BlockNumber > 0 {
		if block, err := r.Block(ctx, chain, endpoint, tx.BlockNumber); err == nil {
			tx.Timestamp = block.Timestamp
		}
	}

	return tx, nil
}

// Block fetches eth_getBlockByNumber with full transaction objects.
func (r *reader) Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	raw, err := r.rpc.Call(ctx, endpoint, "eth_getBlockByNumber", types.HexFromUint64(number), true)
	if err != nil {
		return normalize.Block{}, err
	}
	if isNull(raw) {
		return normalize.Block{}, fmt.Errorf("%w: block %d", source.ErrEntityNotFound, number)
	}

	return adapter.ToBlock(chain, raw)
}

// LatestTransactions walks blocks backwards from the head, collecting
// transactions newest first until limit is reached or the sample window of
// the chain's tuning is spent.
func (r *reader) LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error) {
	head, err := r.Height(ctx, chain, endpoint)
	if err != nil {
		return nil, err
	}

	maxBlocks := source.SampleWindow(chain, limit)

	txs := make([]normalize.Transaction, 0, limit)
	for i := 0; i < maxBlocks && len(txs) < limit && head >= uint64(i); i++ {
		raw, err := r.rpc.Call(ctx, endpoint, "eth_getBlockByNumber", types.HexFromUint64(head-uint64(i)), true)
		if err != nil {
			return nil, err
		}
		if isNull(raw) {
			continue
		}

		blockTxs, err := normalize.EVMBlockTransactions(chain, raw)
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

// TokenInfo introspects an ERC-20 contract through eth_call. A contract that
// answers none of the selectors does not exist as a token.
func (r *reader) TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error) {
	info := normalize.TokenInfo{
		Address: contract,
		ChainID: chain.ID,
	}

	answered := false

	if s, err := r.callString(ctx, endpoint, contract, selName); err == nil && s != "" {
		info.Name = s
		answered = true
	}
	if s, err := r.callString(ctx, endpoint, contract, selSymbol); err == nil && s != "" {
		info.Symbol = s
		answered = true
	}
	if v, err := r.callUint(ctx, endpoint, contract, selDecimals); err == nil {
		info.Decimals = uint8(v.Uint64())
		answered = true
	}
	if v, err := r.callUint(ctx, endpoint, contract, selTotalSupply); err == nil {
		divisor := new(big.Float).SetFloat64(1)
		for i := uint8(0); i < info.Decimals; i++ {
			divisor.Mul(divisor, big.NewFloat(10))
		}
		supply, _ := new(big.Float).Quo(new(big.Float).SetInt(v), divisor).Float64()
		info.TotalSupply = supply
		answered = true
	}

	if !answered {
		return normalize.TokenInfo{}, fmt.Errorf("%w: token %s", source.ErrEntityNotFound, contract)
	}

	return info, nil
}

func (r *reader) call(ctx context.Context, endpoint, contract, selector string) ([]byte, error) {
	raw, err := r.rpc.Call(ctx, endpoint, "eth_call", map[string]string{
		"to":   contract,
		"data": selector,
	}, "latest")
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%w: contract %s", source.ErrEntityNotFound, contract)
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, err
	}

	return hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
}

func (r *reader) callUint(ctx context.Context, endpoint, contract, selector string) (*big.Int, error) {
	data, err := r.call(ctx, endpoint, contract, selector)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty eth_call result", source.ErrEntityNotFound)
	}

	return new(big.Int).SetBytes(data), nil
}

// callString decodes an ABI-encoded string return. Most tokens use the
// dynamic layout (offset word, length word, bytes); a few old contracts
// return a fixed bytes32 instead.
func (r *reader) callString(ctx context.Context, endpoint, contract, selector string) (string, error) {
	data, err := r.call(ctx, endpoint, contract, selector)
	if err != nil {
		return "", err
	}

	if len(data) >= 64 {
		offset := new(big.Int).SetBytes(data[:32]).Uint64()
		if offset+32 <= uint64(len(data)) {
			length := new(big.Int).SetBytes(data[offset : offset+32]).Uint64()
			if offset+32+length <= uint64(len(data)) {
				return string(data[offset+32 : offset+32+length]), nil
			}
		}
	}

	return strings.TrimRight(string(data), "\x00"), nil
}
