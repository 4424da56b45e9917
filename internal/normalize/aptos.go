package normalize

import (
	"encoding/json"

	"github.com/gabapcia/chainlens/internal/chains"
)

// aptosAdapter normalizes Aptos fullnode REST payloads. Numbers arrive as
// decimal strings, timestamps in microseconds, amounts in octas (1e-8 APT).
type aptosAdapter struct{}

var _ Adapter = aptosAdapter{}

func init() {
	Register(chains.FamilyAptos, aptosAdapter{})
}

// aptosCoinStore is the resource type holding the native coin balance.
const aptosCoinStore = "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>"

type (
	// AptosResource is one entry of the accounts/{addr}/resources payload.
	AptosResource struct {
		Type string `json:"type"`
		Data struct {
			Coin struct {
				Value string `json:"value"` // octas, decimal string
			} `json:"coin"`
		} `json:"data"`
	}

	// AptosTransaction is the transactions/by_hash payload.
	AptosTransaction struct {
		Type         string `json:"type"` // pending_transaction | user_transaction | ...
		Hash         string `json:"hash"`
		Sender       string `json:"sender"`
		Success      bool   `json:"success"`
		VMStatus     string `json:"vm_status"`
		GasUsed      string `json:"gas_used"`
		GasUnitPrice string `json:"gas_unit_price"`
		Timestamp    string `json:"timestamp"` // microseconds, decimal string
		Version      string `json:"version"`
		Payload      struct {
			Function  string   `json:"function"`
			Arguments []string `json:"arguments"`
		} `json:"payload"`
	}

	// AptosBlock is the blocks/by_height payload.
	AptosBlock struct {
		BlockHeight    string `json:"block_height"`
		BlockHash      string `json:"block_hash"`
		BlockTimestamp string `json:"block_timestamp"` // microseconds
		FirstVersion   string `json:"first_version"`
		LastVersion    string `json:"last_version"`
	}
)

// ToAddressInfo converts an account resources payload, extracting the native
// coin store balance.
func (aptosAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var resources []AptosResource
	if err := json.Unmarshal(raw, &resources); err != nil {
		return AddressInfo{}, err
	}

	info := AddressInfo{
		Address: address,
		ChainID: chain.ID,
	}

	for _, res := range resources {
		if res.Type == aptosCoinStore {
			info.Balance = NativeAmount(chain.Family, res.Data.Coin.Value)
			break
		}
	}

	return info, nil
}

// ToTransaction converts a transactions/by_hash payload. Transfer recipient
// and amount come from the entry-function arguments when the payload is a
// plain coin transfer; other functions leave them empty.
func (aptosAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx AptosTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	out := Transaction{
		Hash:        tx.Hash,
		From:        tx.Sender,
		GasUsed:     parseUint(tx.GasUsed),
		GasPrice:    float64(parseUint(tx.GasUnitPrice)),
		BlockNumber: parseUint(tx.Version),
		Timestamp:   int64(parseUint(tx.Timestamp)) / 1_000_000,
		Status:      StatusPending,
		ChainID:     chain.ID,
	}

	if tx.Type != "" && tx.Type != "pending_transaction" {
		if tx.Success {
			out.Status = StatusSuccess
		} else {
			out.Status = StatusFailed
		}
	}

	if args := tx.Payload.Arguments; len(args) >= 2 {
		out.To = args[0]
		out.Value = NativeAmount(chain.Family, args[1])
	}
	if tx.Payload.Function != "" {
		out.Extensions = map[string]string{"function": tx.Payload.Function}
	}

	return out, nil
}

// ToBlock converts a blocks/by_height payload. TxCount is the version span
// of the block.
func (aptosAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var block AptosBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, err
	}

	first, last := parseUint(block.FirstVersion), parseUint(block.LastVersion)

	txCount := 0
	if last >= first {
		txCount = int(last - first + 1)
	}

	return Block{
		Number:    parseUint(block.BlockHeight),
		Hash:      block.BlockHash,
		Timestamp: int64(parseUint(block.BlockTimestamp)) / 1_000_000,
		TxCount:   txCount,
		ChainID:   chain.ID,
	}, nil
}
