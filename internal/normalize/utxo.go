package normalize

import (
	"encoding/json"

	"github.com/gabapcia/chainlens/internal/chains"
)

// utxoAdapter normalizes blockchain.info-style explorer payloads for UTXO
// chains. Value semantics differ from account chains: a transaction's value
// is the sum of its outputs, and from/to are the first input and output
// addresses, which is the convention block explorers render.
type utxoAdapter struct{}

var _ Adapter = utxoAdapter{}

func init() {
	Register(chains.FamilyUTXO, utxoAdapter{})
}

type (
	// UTXOPrevOut is the spent output referenced by an input.
	UTXOPrevOut struct {
		Addr  string `json:"addr"`
		Value int64  `json:"value"` // satoshis
	}

	// UTXOInput is one transaction input.
	UTXOInput struct {
		PrevOut UTXOPrevOut `json:"prev_out"`
	}

	// UTXOOutput is one transaction output.
	UTXOOutput struct {
		Addr  string `json:"addr"`
		Value int64  `json:"value"` // satoshis
	}

	// UTXOTransaction is the rawtx payload.
	UTXOTransaction struct {
		Hash        string       `json:"hash"`
		Time        int64        `json:"time"`
		BlockHeight uint64       `json:"block_height"`
		Fee         int64        `json:"fee"`
		Inputs      []UTXOInput  `json:"inputs"`
		Out         []UTXOOutput `json:"out"`
	}

	// UTXOAddress is the rawaddr payload, recent transactions included.
	UTXOAddress struct {
		Address      string            `json:"address"`
		FinalBalance int64             `json:"final_balance"` // satoshis
		TxCount      uint64            `json:"n_tx"`
		Txs          []UTXOTransaction `json:"txs"`
	}

	// UTXOBlock is the rawblock payload.
	UTXOBlock struct {
		Hash   string            `json:"hash"`
		Height uint64            `json:"height"`
		Time   int64             `json:"time"`
		NTx    int               `json:"n_tx"`
		Txs    []UTXOTransaction `json:"tx"`
	}
)

func (t UTXOTransaction) toTransaction(chain chains.Descriptor) Transaction {
	var (
		from  string
		to    string
		total int64
	)

	if len(t.Inputs) > 0 {
		from = t.Inputs[0].PrevOut.Addr
	}
	for _, out := range t.Out {
		total += out.Value
		if to == "" && out.Addr != from {
			to = out.Addr
		}
	}

	// Unconfirmed transactions have no block height yet.
	status := StatusSuccess
	if t.BlockHeight == 0 {
		status = StatusPending
	}

	return Transaction{
		Hash:        t.Hash,
		From:        from,
		To:          to,
		Value:       float64(total) / Divisor(chain.Family),
		BlockNumber: t.BlockHeight,
		Timestamp:   t.Time,
		Status:      status,
		ChainID:     chain.ID,
	}
}

// ToAddressInfo converts a rawaddr payload.
func (utxoAdapter) ToAddressInfo(chain chains.Descriptor, address string, raw json.RawMessage) (AddressInfo, error) {
	var addr UTXOAddress
	if err := json.Unmarshal(raw, &addr); err != nil {
		return AddressInfo{}, err
	}

	if addr.Address == "" {
		addr.Address = address
	}

	recent := make([]Transaction, 0, len(addr.Txs))
	for _, tx := range addr.Txs {
		recent = append(recent, tx.toTransaction(chain))
	}

	return AddressInfo{
		Address:            addr.Address,
		Balance:            float64(addr.FinalBalance) / Divisor(chain.Family),
		TxCount:            addr.TxCount,
		RecentTransactions: recent,
		ChainID:            chain.ID,
	}, nil
}

// ToTransaction converts a rawtx payload.
func (utxoAdapter) ToTransaction(chain chains.Descriptor, raw json.RawMessage) (Transaction, error) {
	var tx UTXOTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Transaction{}, err
	}

	return tx.toTransaction(chain), nil
}

// ToBlock converts a rawblock payload.
func (utxoAdapter) ToBlock(chain chains.Descriptor, raw json.RawMessage) (Block, error) {
	var block UTXOBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, err
	}

	txCount := block.NTx
	if txCount == 0 {
		txCount = len(block.Txs)
	}

	return Block{
		Number:    block.Height,
		Hash:      block.Hash,
		Timestamp: block.Time,
		TxCount:   txCount,
		ChainID:   chain.ID,
	}, nil
}

// UTXOBlockTransactions normalizes every transaction carried by a raw block.
func UTXOBlockTransactions(chain chains.Descriptor, raw json.RawMessage) ([]Transaction, error) {
	var block UTXOBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(block.Txs))
	for _, t := range block.Txs {
		tx := t.toTransaction(chain)
		if tx.BlockNumber == 0 {
			tx.BlockNumber = block.Height
			tx.Status = StatusSuccess
		}
		if tx.Timestamp == 0 {
			tx.Timestamp = block.Time
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
