package normalize

import (
	"encoding/json"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
)

// tronAdapter normalizes TronGrid REST payloads. Timestamps arrive in
// milliseconds and amounts in sun (1e-6 TRX).
type tronAdapter struct{}

var _ Adapter = tronAdapter{}

func init() {
	Register(chains.FamilyTron, tronAdapter{})
}

type (
	// TronAccount is the wallet/getaccount payload.
	TronAccount struct {
		Address string `json:"address"`
		Balance int64  `json:"balance"` // sun
	}

	// TronContractCall is the typed payload of one contract invocation.
	TronContractCall struct {
		Parameter struct {
			Value struct {
				OwnerAddress string `json:"owner_address"`
				ToAddress    string `json:"to_address"`
				Amount       int64  `json:"amount"` // sun
			} `json:"value"`
		} `json:"parameter"`
		Type string `json:"type"`
	}

	// TronTransaction is the wallet/gettransactionbyid payload.
	TronTransaction struct {
		TxID string `json:"txID"`
		Ret  []struct {
			ContractRet string `json:"contractRet"` // SUCCESS, REVERT, ...
		} `json:"ret"`
		RawData struct {
			Contract  []TronContractCall `json:"contract"`
			Timestamp int64              `json:"timestamp"` // milliseconds
		} `json:"raw_data"`
	}

	// TronBlock is the wallet/getblockbynum payload.
	TronBlock struct {
		BlockID     string `json:"blockID"`
		BlockHeader struct {
			RawData struct {
				Number    uint64 `json:"number"`
				Timestamp int64  `json:"timestamp"` // milliseconds
			} `json:"raw_data"`
		} `json:"block_header"`
		Transactions []TronTransaction `json:"transactions"`
	}
)

// ToAddressInfo converts a wallet/getaccount payload.
func (tronAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var account TronAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return AddressInfo{}, err
	}

	return AddressInfo{
		Address: address,
		Balance: float64(account.Balance) / Divisor(chain.Family),
		ChainID: chain.ID,
	}, nil
}

func (t TronTransaction) toTransaction(chain chains.Descriptor) Transaction {
	out := Transaction{
		Hash:      t.TxID,
		Timestamp: t.RawData.Timestamp / 1000,
		Status:    StatusPending,
		ChainID:   chain.ID,
	}

	if len(t.RawData.Contract) > 0 {
		call := t.RawData.Contract[0]
		out.From = call.Parameter.Value.OwnerAddress
		out.To = call.Parameter.Value.ToAddress
		out.Value = float64(call.Parameter.Value.Amount) / Divisor(chain.Family)
		if call.Type != "" {
			out.Extensions = map[string]string{"contractType": call.Type}
		}
	}

	// ret is only populated once the transaction has been executed.
	if len(t.Ret) > 0 && t.Ret[0].ContractRet != "" {
		if strings.EqualFold(t.Ret[0].ContractRet, "SUCCESS") {
			out.Status = StatusSuccess
		} else {
			out.Status = StatusFailed
		}
	}

	return out
}

// ToTransaction converts a wallet/gettransactionbyid payload.
func (tronAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx TronTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	return tx.toTransaction(chain), nil
}

// ToBlock converts a wallet/getblockbynum payload.
func (tronAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var block TronBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, err
	}

	return Block{
		Number:    block.BlockHeader.RawData.Number,
		Hash:      block.BlockID,
		Timestamp: block.BlockHeader.RawData.Timestamp / 1000,
		TxCount:   len(block.Transactions),
		ChainID:   chain.ID,
	}, nil
}

// TronBlockTransactions normalizes every transaction carried by a raw block.
func TronBlockTransactions(chain chains.Descriptor, raw json.RawMessage) ([]Transaction, error) {
	var block TronBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(block.Transactions))
	for _, t := range block.Transactions {
		tx := t.toTransaction(chain)
		tx.BlockNumber = block.BlockHeader.RawData.Number
		if tx.Timestamp == 0 {
			tx.Timestamp = block.BlockHeader.RawData.Timestamp / 1000
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
