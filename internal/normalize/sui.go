package normalize

import (
	"encoding/json"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
)

// suiAdapter normalizes Sui JSON-RPC payloads. Sui numbers "blocks" by
// checkpoint sequence, timestamps arrive in milliseconds as decimal strings,
// and amounts in mist (1e-9 SUI).
type suiAdapter struct{}

var _ Adapter = suiAdapter{}

func init() {
	Register(chains.FamilySui, suiAdapter{})
}

type (
	// SuiBalance is the suix_getBalance result.
	SuiBalance struct {
		CoinType     string `json:"coinType"`
		TotalBalance string `json:"totalBalance"` // mist, decimal string
	}

	// SuiTransactionBlock is the sui_getTransactionBlock result.
	SuiTransactionBlock struct {
		Digest      string `json:"digest"`
		TimestampMs string `json:"timestampMs"`
		Checkpoint  string `json:"checkpoint"`
		Transaction struct {
			Data struct {
				Sender string `json:"sender"`
			} `json:"data"`
		} `json:"transaction"`
		Effects *struct {
			Status struct {
				Status string `json:"status"` // success | failure
				Error  string `json:"error"`
			} `json:"status"`
			GasUsed struct {
				ComputationCost string `json:"computationCost"`
				StorageCost     string `json:"storageCost"`
			} `json:"gasUsed"`
		} `json:"effects"`
		BalanceChanges []struct {
			Owner struct {
				AddressOwner string `json:"AddressOwner"`
			} `json:"owner"`
			CoinType string `json:"coinType"`
			Amount   string `json:"amount"` // mist, signed decimal string
		} `json:"balanceChanges"`
	}

	// SuiCheckpoint is the sui_getCheckpoint result.
	SuiCheckpoint struct {
		SequenceNumber string   `json:"sequenceNumber"`
		Digest         string   `json:"digest"`
		TimestampMs    string   `json:"timestampMs"`
		Transactions   []string `json:"transactions"`
	}
)

// ToAddressInfo converts a suix_getBalance result.
func (suiAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var balance SuiBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return AddressInfo{}, err
	}

	return AddressInfo{
		Address: address,
		Balance: NativeAmount(chain.Family, balance.TotalBalance),
		ChainID: chain.ID,
	}, nil
}

// ToTransaction converts a sui_getTransactionBlock result. Recipient and
// value come from the first positive balance change credited to an address
// other than the sender.
func (suiAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx SuiTransactionBlock
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	out := Transaction{
		Hash:        tx.Digest,
		From:        tx.Transaction.Data.Sender,
		BlockNumber: parseUint(tx.Checkpoint),
		Timestamp:   int64(parseUint(tx.TimestampMs)) / 1000,
		Status:      StatusPending,
		ChainID:     chain.ID,
	}

	if effects := tx.Effects; effects != nil {
		if strings.EqualFold(effects.Status.Status, "success") {
			out.Status = StatusSuccess
		} else {
			out.Status = StatusFailed
		}
		out.GasUsed = parseUint(effects.GasUsed.ComputationCost)
	}

	for _, change := range tx.BalanceChanges {
		if strings.HasPrefix(change.Amount, "-") || change.Owner.AddressOwner == out.From {
			continue
		}
		out.To = change.Owner.AddressOwner
		out.Value = NativeAmount(chain.Family, change.Amount)
		break
	}

	return out, nil
}

// ToBlock converts a sui_getCheckpoint result.
func (suiAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var checkpoint SuiCheckpoint
	if err := json.Unmarshal(raw, &checkpoint); err != nil {
		return Block{}, err
	}

	return Block{
		Number:    parseUint(checkpoint.SequenceNumber),
		Hash:      checkpoint.Digest,
		Timestamp: int64(parseUint(checkpoint.TimestampMs)) / 1000,
		TxCount:   len(checkpoint.Transactions),
		ChainID:   chain.ID,
	}, nil
}
