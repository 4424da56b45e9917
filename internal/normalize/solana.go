package normalize

import (
	"encoding/json"

	"github.com/gabapcia/chainlens/internal/chains"
)

// solanaAdapter normalizes Solana JSON-RPC payloads. Solana numbers blocks
// by slot, and a transaction's moved value is reconstructed from the fee
// payer's pre/post balances because the wire format has no single "value"
// field.
type solanaAdapter struct{}

var _ Adapter = solanaAdapter{}

func init() {
	Register(chains.FamilySolana, solanaAdapter{})
}

type (
	// SolanaBalance is the getBalance result.
	SolanaBalance struct {
		Value uint64 `json:"value"` // lamports
	}

	// SolanaTransactionMeta carries execution results and balance movements.
	SolanaTransactionMeta struct {
		Err          any      `json:"err"` // non-nil on failure
		Fee          uint64   `json:"fee"`
		PreBalances  []uint64 `json:"preBalances"`
		PostBalances []uint64 `json:"postBalances"`
	}

	// SolanaMessage is the compiled transaction message.
	SolanaMessage struct {
		AccountKeys []string `json:"accountKeys"`
	}

	// SolanaTransaction is the getTransaction result.
	SolanaTransaction struct {
		Slot        int64                  `json:"slot"`
		BlockTime   *int64                 `json:"blockTime"`
		Meta        *SolanaTransactionMeta `json:"meta"`
		Transaction struct {
			Signatures []string      `json:"signatures"`
			Message    SolanaMessage `json:"message"`
		} `json:"transaction"`
	}

	// SolanaBlock is the getBlock result with transaction signatures only.
	SolanaBlock struct {
		Blockhash   string   `json:"blockhash"`
		ParentSlot  uint64   `json:"parentSlot"`
		BlockTime   *int64   `json:"blockTime"`
		BlockHeight *uint64  `json:"blockHeight"`
		Signatures  []string `json:"signatures"`
	}
)

// ToAddressInfo converts a getBalance result.
func (solanaAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var balance SolanaBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return AddressInfo{}, err
	}

	return AddressInfo{
		Address: address,
		Balance: float64(balance.Value) / Divisor(chain.Family),
		ChainID: chain.ID,
	}, nil
}

// ToTransaction converts a getTransaction result. A missing meta object
// means the transaction has not been finalized into a block yet: pending,
// never failed.
func (solanaAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx SolanaTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	out := Transaction{
		Status:      StatusPending,
		BlockNumber: uint64(tx.Slot),
		ChainID:     chain.ID,
	}

	if len(tx.Transaction.Signatures) > 0 {
		out.Hash = tx.Transaction.Signatures[0]
	}
	if keys := tx.Transaction.Message.AccountKeys; len(keys) > 0 {
		out.From = keys[0]
		if len(keys) > 1 {
			out.To = keys[1]
		}
	}
	if tx.BlockTime != nil {
		out.Timestamp = *tx.BlockTime
	}

	if meta := tx.Meta; meta != nil {
		if meta.Err != nil {
			out.Status = StatusFailed
		} else {
			out.Status = StatusSuccess
		}

		// Moved value = fee payer's balance drop minus the fee it paid.
		if len(meta.PreBalances) > 0 && len(meta.PostBalances) > 0 {
			spent := int64(meta.PreBalances[0]) - int64(meta.PostBalances[0]) - int64(meta.Fee)
			if spent > 0 {
				out.Value = float64(spent) / Divisor(chain.Family)
			}
		}

		out.GasUsed = meta.Fee
	}

	return out, nil
}

// SolanaBlockTransactions normalizes every transaction carried by a raw
// block fetched with full transaction details, stamping each with the
// block's slot and time.
func SolanaBlockTransactions(chain chains.Descriptor, slot uint64, raw json.RawMessage) ([]Transaction, error) {
	var block struct {
		BlockTime    *int64 `json:"blockTime"`
		Transactions []struct {
			Meta        *SolanaTransactionMeta `json:"meta"`
			Transaction struct {
				Signatures []string      `json:"signatures"`
				Message    SolanaMessage `json:"message"`
			} `json:"transaction"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, err
	}

	adapter := solanaAdapter{}

	txs := make([]Transaction, 0, len(block.Transactions))
	for _, entry := range block.Transactions {
		full := SolanaTransaction{
			Slot:      int64(slot),
			BlockTime: block.BlockTime,
			Meta:      entry.Meta,
		}
		full.Transaction.Signatures = entry.Transaction.Signatures
		full.Transaction.Message = entry.Transaction.Message

		encoded, err := json.Marshal(full)
		if err != nil {
			return nil, err
		}

		tx, err := adapter.ToTransaction(chain, encoded)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// ToBlock converts a getBlock result. Number is the slot-derived height when
// present, falling back to parentSlot+1.
func (solanaAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var block SolanaBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, err
	}

	number := block.ParentSlot + 1
	if block.BlockHeight != nil {
		number = *block.BlockHeight
	}

	out := Block{
		Number:  number,
		Hash:    block.Blockhash,
		TxCount: len(block.Signatures),
		ChainID: chain.ID,
	}
	if block.BlockTime != nil {
		out.Timestamp = *block.BlockTime
	}

	return out, nil
}
