// Package normalize converts raw upstream payloads into the common entity
// schema shared by every chain. One adapter per chain family implements the
// conversion; numeric unit division happens exactly once, at the adapter
// boundary, driven by the divisor table in units.go. Adapters are pure:
// normalizing the same payload twice yields identical values.
package normalize

// Status collapses chain-native success encodings into three values. A
// transaction with no receipt yet is pending, never failed.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Transaction is the normalized view of one transaction. Value is expressed
// in native units (ETH, BTC, SOL, ...). GasPrice uses the chain's
// conventional fee unit: Gwei for EVM chains, the raw upstream unit
// elsewhere; zero when the chain has no gas price concept.
type Transaction struct {
	Hash        string  `json:"hash"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Value       float64 `json:"value"`
	GasUsed     uint64  `json:"gasUsed,omitempty"`
	GasPrice    float64 `json:"gasPrice,omitempty"`
	BlockNumber uint64  `json:"blockNumber"`
	Timestamp   int64   `json:"timestamp"` // unix seconds
	Status      Status  `json:"status"`
	ChainID     string  `json:"chainId"`

	// Extensions carries chain-specific fields (input data, method id,
	// contract address) as opaque strings. Never required by the core.
	Extensions map[string]string `json:"extensions,omitempty"`
}

// Block is the normalized view of one block. Number is the chain's native
// numbering: height for UTXO chains, slot for Solana, checkpoint for Sui.
// Gas fields are populated for the EVM family only.
type Block struct {
	Number    uint64 `json:"number"`
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"` // unix seconds
	TxCount   int    `json:"txCount"`
	GasUsed   uint64 `json:"gasUsed,omitempty"`
	GasLimit  uint64 `json:"gasLimit,omitempty"`
	ChainID   string `json:"chainId"`
}

// TokenTransfer is one token movement touching an address.
type TokenTransfer struct {
	Hash            string  `json:"hash"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	ContractAddress string  `json:"contractAddress"`
	TokenName       string  `json:"tokenName,omitempty"`
	TokenSymbol     string  `json:"tokenSymbol,omitempty"`
	Value           float64 `json:"value"`
	Timestamp       int64   `json:"timestamp"`
}

// AddressInfo is the normalized view of one address. Recent transaction and
// token transfer lists are bounded by the fetching layer.
type AddressInfo struct {
	Address            string          `json:"address"`
	Balance            float64         `json:"balance"` // native units
	TxCount            uint64          `json:"txCount"`
	RecentTransactions []Transaction   `json:"recentTransactions,omitempty"`
	TokenTransfers     []TokenTransfer `json:"tokenTransfers,omitempty"`
	ChainID            string          `json:"chainId"`
}

// TokenInfo is the normalized view of a token contract.
type TokenInfo struct {
	Address     string  `json:"address"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    uint8   `json:"decimals"`
	TotalSupply float64 `json:"totalSupply"`
	ChainID     string  `json:"chainId"`
}
