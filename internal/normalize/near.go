package normalize

import (
	"encoding/json"

	"github.com/gabapcia/chainlens/internal/chains"
)

// nearAdapter normalizes NEAR JSON-RPC payloads. Amounts arrive as decimal
// strings in yoctoNEAR (1e-24 NEAR), block timestamps in nanoseconds.
type nearAdapter struct{}

var _ Adapter = nearAdapter{}

func init() {
	Register(chains.FamilyNEAR, nearAdapter{})
}

type (
	// NEARAccount is the query/view_account result.
	NEARAccount struct {
		Amount      string `json:"amount"` // yoctoNEAR, decimal string
		BlockHeight uint64 `json:"block_height"`
	}

	// NEARTxStatus is the tx status result.
	NEARTxStatus struct {
		Status struct {
			SuccessValue *string         `json:"SuccessValue"`
			Failure      json.RawMessage `json:"Failure"`
		} `json:"status"`
		Transaction struct {
			Hash       string `json:"hash"`
			SignerID   string `json:"signer_id"`
			ReceiverID string `json:"receiver_id"`
			Actions    []struct {
				Transfer *struct {
					Deposit string `json:"deposit"` // yoctoNEAR
				} `json:"Transfer"`
			} `json:"actions"`
		} `json:"transaction"`
		TransactionOutcome struct {
			BlockHash string `json:"block_hash"`
			Outcome   struct {
				GasBurnt uint64 `json:"gas_burnt"`
			} `json:"outcome"`
		} `json:"transaction_outcome"`
	}

	// NEARBlock is the block result.
	NEARBlock struct {
		Header struct {
			Height    uint64 `json:"height"`
			Hash      string `json:"hash"`
			Timestamp int64  `json:"timestamp"` // nanoseconds
			GasPrice  string `json:"gas_price"`
		} `json:"header"`
		Chunks []struct {
			ChunkHash string `json:"chunk_hash"`
			TxRoot    string `json:"tx_root"`
		} `json:"chunks"`
	}
)

// ToAddressInfo converts a view_account result.
func (nearAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var account NEARAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return AddressInfo{}, err
	}

	return AddressInfo{
		Address: address,
		Balance: NativeAmount(chain.Family, account.Amount),
		ChainID: chain.ID,
	}, nil
}

// ToTransaction converts a tx status result. Neither SuccessValue nor
// Failure present means the transaction is still executing: pending.
func (nearAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx NEARTxStatus
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	out := Transaction{
		Hash:    tx.Transaction.Hash,
		From:    tx.Transaction.SignerID,
		To:      tx.Transaction.ReceiverID,
		GasUsed: tx.TransactionOutcome.Outcome.GasBurnt,
		Status:  StatusPending,
		ChainID: chain.ID,
	}

	switch {
	case len(tx.Status.Failure) > 0 && string(tx.Status.Failure) != "null":
		out.Status = StatusFailed
	case tx.Status.SuccessValue != nil:
		out.Status = StatusSuccess
	}

	for _, action := range tx.Transaction.Actions {
		if action.Transfer != nil {
			out.Value += NativeAmount(chain.Family, action.Transfer.Deposit)
		}
	}

	if tx.TransactionOutcome.BlockHash != "" {
		out.Extensions = map[string]string{"blockHash": tx.TransactionOutcome.BlockHash}
	}

	return out, nil
}

// ToBlock converts a block result. NEAR blocks carry transactions inside
// chunks; the chunk count stands in for a transaction count, which the block
// payload does not expose directly.
func (nearAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var block NEARBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, err
	}

	return Block{
		Number:    block.Header.Height,
		Hash:      block.Header.Hash,
		Timestamp: block.Header.Timestamp / 1_000_000_000,
		TxCount:   len(block.Chunks),
		ChainID:   chain.ID,
	}, nil
}
