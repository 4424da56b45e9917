package normalize

import (
	"encoding/json"
	"time"

	"github.com/gabapcia/chainlens/internal/chains"
)

// cosmosAdapter normalizes Cosmos SDK LCD (REST gateway) payloads. Amounts
// arrive as decimal strings in the micro denomination (uatom for the Hub),
// timestamps as RFC3339 strings.
type cosmosAdapter struct{}

var _ Adapter = cosmosAdapter{}

func init() {
	Register(chains.FamilyCosmos, cosmosAdapter{})
}

type (
	// CosmosCoin is one denom/amount pair.
	CosmosCoin struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	}

	// CosmosBalances is the bank balances payload.
	CosmosBalances struct {
		Balances []CosmosCoin `json:"balances"`
	}

	// CosmosTxResponse is the execution result half of a tx query.
	CosmosTxResponse struct {
		Height    string `json:"height"`
		TxHash    string `json:"txhash"`
		Code      int    `json:"code"` // 0 on success
		GasUsed   string `json:"gas_used"`
		GasWanted string `json:"gas_wanted"`
		Timestamp string `json:"timestamp"` // RFC3339
	}

	// CosmosTx is the /cosmos/tx/v1beta1/txs/{hash} payload.
	CosmosTx struct {
		Tx struct {
			Body struct {
				Messages []struct {
					Type        string       `json:"@type"`
					FromAddress string       `json:"from_address"`
					ToAddress   string       `json:"to_address"`
					Amount      []CosmosCoin `json:"amount"`
				} `json:"messages"`
			} `json:"body"`
		} `json:"tx"`
		TxResponse *CosmosTxResponse `json:"tx_response"`
	}

	// CosmosBlock is the blocks/{height} payload.
	CosmosBlock struct {
		BlockID struct {
			Hash string `json:"hash"`
		} `json:"block_id"`
		Block struct {
			Header struct {
				Height string `json:"height"`
				Time   string `json:"time"` // RFC3339
			} `json:"header"`
			Data struct {
				Txs []string `json:"txs"`
			} `json:"data"`
		} `json:"block"`
	}
)

func cosmosTime(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// ToAddressInfo converts a bank balances payload, summing every micro-denom
// entry into the native unit.
func (cosmosAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var balances CosmosBalances
	if err := json.Unmarshal(raw, &balances); err != nil {
		return AddressInfo{}, err
	}

	var total float64
	for _, coin := range balances.Balances {
		total += NativeAmount(chain.Family, coin.Amount)
	}

	return AddressInfo{
		Address: address,
		Balance: total,
		ChainID: chain.ID,
	}, nil
}

// ToTransaction converts a tx query payload. A missing tx_response means the
// transaction has not been included yet: pending, never failed.
func (cosmosAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx CosmosTx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	out := Transaction{
		Status:  StatusPending,
		ChainID: chain.ID,
	}

	if msgs := tx.Tx.Body.Messages; len(msgs) > 0 {
		msg := msgs[0]
		out.From = msg.FromAddress
		out.To = msg.ToAddress
		for _, coin := range msg.Amount {
			out.Value += NativeAmount(chain.Family, coin.Amount)
		}
		if msg.Type != "" {
			out.Extensions = map[string]string{"messageType": msg.Type}
		}
	}

	if res := tx.TxResponse; res != nil {
		out.Hash = res.TxHash
		out.BlockNumber = parseUint(res.Height)
		out.Timestamp = cosmosTime(res.Timestamp)
		out.GasUsed = parseUint(res.GasUsed)
		if res.Code == 0 {
			out.Status = StatusSuccess
		} else {
			out.Status = StatusFailed
		}
	}

	return out, nil
}

// ToBlock converts a blocks/{height} payload.
func (cosmosAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var block CosmosBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, err
	}

	return Block{
		Number:    parseUint(block.Block.Header.Height),
		Hash:      block.BlockID.Hash,
		Timestamp: cosmosTime(block.Block.Header.Time),
		TxCount:   len(block.Block.Data.Txs),
		ChainID:   chain.ID,
	}, nil
}
