package normalize

import (
	"encoding/json"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/pkg/types"
)

// evmAdapter normalizes JSON-RPC payloads shared by every EVM-style chain
// (Ethereum, Polygon, BSC, Arbitrum, Optimism, ...).
type evmAdapter struct{}

var _ Adapter = evmAdapter{}

func init() {
	Register(chains.FamilyEVM, evmAdapter{})
}

type (
	// EVMTransaction is the raw eth_getTransactionByHash result.
	EVMTransaction struct {
		Hash        string    `json:"hash"`
		From        string    `json:"from"`
		To          string    `json:"to"`
		Value       types.Hex `json:"value"`
		Gas         types.Hex `json:"gas"`
		GasPrice    types.Hex `json:"gasPrice"`
		Input       string    `json:"input"`
		Nonce       types.Hex `json:"nonce"`
		BlockNumber string    `json:"blockNumber"` // null while pending
		BlockHash   string    `json:"blockHash"`
	}

	// EVMReceipt is the raw eth_getTransactionReceipt result.
	EVMReceipt struct {
		TransactionHash   string    `json:"transactionHash"`
		Status            types.Hex `json:"status"` // 0x1 success, 0x0 failed
		GasUsed           types.Hex `json:"gasUsed"`
		EffectiveGasPrice types.Hex `json:"effectiveGasPrice"`
		ContractAddress   string    `json:"contractAddress"`
		BlockNumber       types.Hex `json:"blockNumber"`
	}

	// EVMBlock is the raw eth_getBlockByNumber result, transactions included.
	EVMBlock struct {
		Number       types.Hex        `json:"number"`
		Hash         string           `json:"hash"`
		Timestamp    types.Hex        `json:"timestamp"`
		GasUsed      types.Hex        `json:"gasUsed"`
		GasLimit     types.Hex        `json:"gasLimit"`
		Miner        string           `json:"miner"`
		Transactions []EVMTransaction `json:"transactions"`
	}
)

// ToAddressInfo converts an eth_getBalance result (a bare hex quantity).
func (evmAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var balance types.Hex
	if err := json.Unmarshal(raw, &balance); err != nil {
		return AddressInfo{}, err
	}

	return AddressInfo{
		Address: address,
		Balance: hexToNative(chain.Family, balance),
		ChainID: chain.ID,
	}, nil
}

// ToTransaction converts an eth_getTransactionByHash result. With no receipt
// data the status is pending; merge a receipt with ApplyEVMReceipt.
func (evmAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx EVMTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	return tx.toTransaction(chain), nil
}

func (t EVMTransaction) toTransaction(chain chains.Descriptor) Transaction {
	out := Transaction{
		Hash:     t.Hash,
		From:     t.From,
		To:       t.To,
		Value:    hexToNative(chain.Family, t.Value),
		GasPrice: weiToGwei(t.GasPrice),
		Status:   StatusPending,
		ChainID:  chain.ID,
	}

	if strings.HasPrefix(t.BlockNumber, "0x") {
		out.BlockNumber = types.Hex(t.BlockNumber).Uint64()
	}

	if len(t.Input) > 10 {
		out.Extensions = map[string]string{
			"input":    t.Input,
			"methodId": t.Input[:10],
		}
	}

	return out
}

// ApplyEVMReceipt folds receipt fields into a normalized transaction: the
// status bit, actual gas usage, and a created contract address if any.
func ApplyEVMReceipt(tx Transaction, raw json.RawMessage) (Transaction, error) {
	var receipt EVMReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return tx, err
	}

	if receipt.Status != "" {
		if receipt.Status.Uint64() == 1 {
			tx.Status = StatusSuccess
		} else {
			tx.Status = StatusFailed
		}
	}

	tx.GasUsed = receipt.GasUsed.Uint64()
	if tx.BlockNumber == 0 {
		tx.BlockNumber = receipt.BlockNumber.Uint64()
	}

	if receipt.ContractAddress != "" {
		if tx.Extensions == nil {
			tx.Extensions = make(map[string]string)
		}
		tx.Extensions["contractAddress"] = receipt.ContractAddress
	}

	return tx, nil
}

// ToBlock converts an eth_getBlockByNumber result.
func (evmAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var block EVMBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, err
	}

	return Block{
		Number:    block.Number.Uint64(),
		Hash:      block.Hash,
		Timestamp: int64(block.Timestamp.Uint64()),
		TxCount:   len(block.Transactions),
		GasUsed:   block.GasUsed.Uint64(),
		GasLimit:  block.GasLimit.Uint64(),
		ChainID:   chain.ID,
	}, nil
}

// EVMBlockTransactions normalizes every transaction carried by a raw block,
// stamping each with the block's number and timestamp. Transactions already
// in a block are successful unless a receipt says otherwise; the sampling
// paths that use this helper treat them as such.
func EVMBlockTransactions(chain chains.Descriptor, raw json.RawMessage) ([]Transaction, error) {
	var block EVMBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(block.Transactions))
	for _, t := range block.Transactions {
		tx := t.toTransaction(chain)
		tx.BlockNumber = block.Number.Uint64()
		tx.Timestamp = int64(block.Timestamp.Uint64())
		tx.Status = StatusSuccess
		txs = append(txs, tx)
	}

	return txs, nil
}
