// Package evmscan implements the keyed API client for EVM chains against
// etherscan-compatible explorer APIs (Etherscan, Polygonscan, BscScan, ...).
// All of them share the module/action query protocol and the
// status/message/result envelope.
package evmscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/rest"
	"github.com/gabapcia/chainlens/internal/pkg/types"
	"github.com/gabapcia/chainlens/internal/source"
)

// recentPageSize bounds the recent-activity lists attached to an address.
const recentPageSize = 10

// envelope is the status/message/result wrapper every non-proxy action uses.
// The proxy actions answer raw JSON-RPC instead.
type envelope struct {
	Status  string          `json:"status"`  // "1" ok, "0" error or empty set
	Message string          `json:"message"` // "OK", "NOTOK", "No transactions found"
	Result  json.RawMessage `json:"result"`
}

// proxyEnvelope is the JSON-RPC passthrough wrapper of module=proxy actions.
type proxyEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// scanTx is one record of the account txlist action.
type scanTx struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"` // wei, decimal string
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"` // wei, decimal string
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	IsError         string `json:"isError"`           // "0" ok
	TxReceiptStatus string `json:"txreceipt_status"`  // "1" ok, "" pre-byzantium
	Input           string `json:"input"`
	FunctionName    string `json:"functionName"`
}

// scanTokenTx is one record of the account tokentx action.
type scanTokenTx struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	Value           string `json:"value"` // smallest token unit, decimal string
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	TimeStamp       string `json:"timeStamp"`
}

// api implements source.API for etherscan-compatible explorers.
type api struct {
	rest rest.Client
}

// Compile-time assertion that api implements the source.API interface.
var _ source.API = (*api)(nil)

// NewAPI constructs the explorer API client on top of the REST helper.
func NewAPI(restClient rest.Client) *api {
	return &api{rest: restClient}
}

func buildURL(base, key string, params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	if key != "" {
		values.Set("apikey", key)
	}
	return strings.TrimRight(base, "/") + "?" + values.Encode()
}

// keyRejected reports whether an explorer error message names a bad key.
func keyRejected(message, result string) bool {
	for _, s := range []string{message, result} {
		if strings.Contains(strings.ToLower(s), "invalid api key") {
			return true
		}
	}
	return false
}

// emptyResultSet reports whether a status-0 envelope means "no records"
// rather than a real failure.
func emptyResultSet(message string) bool {
	msg := strings.ToLower(message)
	return strings.Contains(msg, "no transactions found") || strings.Contains(msg, "no records found")
}

// query performs one non-proxy action and unwraps the envelope.
func (a *api) query(ctx context.Context, chain chains.Descriptor, key string, params map[string]string) (json.RawMessage, error) {
	var env envelope
	if err := a.rest.Get(ctx, buildURL(chain.API.BaseURL, key, params), &env); err != nil {
		return nil, err
	}

	if env.Status != "1" {
		var resultText string
		json.Unmarshal(env.Result, &resultText)

		switch {
		case keyRejected(env.Message, resultText):
			return nil, fmt.Errorf("%w: %s", source.ErrInvalidCredential, chain.ID)
		case emptyResultSet(env.Message):
			return json.RawMessage("[]"), nil
		}
		return nil, fmt.Errorf("explorer api rejected %s/%s: %s %s", params["module"], params["action"], env.Message, resultText)
	}

	return env.Result, nil
}

// proxy performs one JSON-RPC passthrough action.
func (a *api) proxy(ctx context.Context, chain chains.Descriptor, key string, params map[string]string) (json.RawMessage, error) {
	params["module"] = "proxy"

	var env proxyEnvelope
	if err := a.rest.Get(ctx, buildURL(chain.API.BaseURL, key, params), &env); err != nil {
		return nil, err
	}

	if env.Error != nil {
		if keyRejected(env.Error.Message, "") {
			return nil, fmt.Errorf("%w: %s", source.ErrInvalidCredential, chain.ID)
		}
		return nil, fmt.Errorf("explorer proxy rejected %s: %s", params["action"], env.Error.Message)
	}

	return env.Result, nil
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func (t scanTx) toTransaction(chain chains.Descriptor) normalize.Transaction {
	out := normalize.Transaction{
		Hash:        t.Hash,
		From:        t.From,
		To:          t.To,
		Value:       normalize.NativeAmount(chain.Family, t.Value),
		GasPrice:    normalize.GweiAmount(t.GasPrice),
		BlockNumber: decimalUint(t.BlockNumber),
		Timestamp:   int64(decimalUint(t.TimeStamp)),
		Status:      normalize.StatusSuccess,
		ChainID:     chain.ID,
	}

	out.GasUsed = decimalUint(t.GasUsed)
	if t.IsError == "1" || t.TxReceiptStatus == "0" {
		out.Status = normalize.StatusFailed
	}

	if len(t.Input) > 10 {
		out.Extensions = map[string]string{
			"input":    t.Input,
			"methodId": t.Input[:10],
		}
	}
	if t.FunctionName != "" {
		if out.Extensions == nil {
			out.Extensions = make(map[string]string)
		}
		out.Extensions["function"] = t.FunctionName
	}

	return out
}

func (t scanTokenTx) toTokenTransfer() normalize.TokenTransfer {
	decimals := decimalUint(t.TokenDecimal)

	value := 0.0
	if raw := normalize.NativeAmount("", t.Value); raw > 0 {
		value = raw / math.Pow10(int(decimals))
		if math.IsInf(value, 0) || math.IsNaN(value) {
			value = 0
		}
	}

	return normalize.TokenTransfer{
		Hash:            t.Hash,
		From:            t.From,
		To:              t.To,
		ContractAddress: t.ContractAddress,
		TokenName:       t.TokenName,
		TokenSymbol:     t.TokenSymbol,
		Value:           value,
		Timestamp:       int64(decimalUint(t.TimeStamp)),
	}
}

func decimalUint(s string) uint64 {
	var n uint64
	fmt.Sscanf(s, "%d", &n)
	return n
}

// AddressInfo combines the balance, txlist, and tokentx actions into the
// richer address view the keyed tier exists for.
func (a *api) AddressInfo(ctx context.Context, chain chains.Descriptor, key, address string) (normalize.AddressInfo, error) {
	raw, err := a.query(ctx, chain, key, map[string]string{
		"module":  "account",
		"action":  "balance",
		"address": address,
		"tag":     "latest",
	})
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var balance string
	if err := json.Unmarshal(raw, &balance); err != nil {
		return normalize.AddressInfo{}, err
	}

	info := normalize.AddressInfo{
		Address: address,
		Balance: normalize.NativeAmount(chain.Family, balance),
		ChainID: chain.ID,
	}

	raw, err = a.query(ctx, chain, key, map[string]string{
		"module":     "account",
		"action":     "txlist",
		"address":    address,
		"startblock": "0",
		"endblock":   "99999999",
		"page":       "1",
		"offset":     fmt.Sprintf("%d", recentPageSize),
		"sort":       "desc",
	})
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	var txRecords []scanTx
	if err := json.Unmarshal(raw, &txRecords); err != nil {
		return normalize.AddressInfo{}, err
	}

	info.TxCount = a.txCount(ctx, chain, key, address, len(txRecords))
	info.RecentTransactions = make([]normalize.Transaction, 0, len(txRecords))
	for _, record := range txRecords {
		info.RecentTransactions = append(info.RecentTransactions, record.toTransaction(chain))
	}

	raw, err = a.query(ctx, chain, key, map[string]string{
		"module":  "account",
		"action":  "tokentx",
		"address": address,
		"page":    "1",
		"offset":  fmt.Sprintf("%d", recentPageSize),
		"sort":    "desc",
	})
	if err != nil {
		// Token transfers are enrichment; the address view stands without
		// them when the action is unavailable on a given explorer.
		if errors.Is(err, source.ErrInvalidCredential) {
			return normalize.AddressInfo{}, err
		}
		return info, nil
	}

	var transferRecords []scanTokenTx
	if err := json.Unmarshal(raw, &transferRecords); err != nil {
		return normalize.AddressInfo{}, err
	}

	info.TokenTransfers = make([]normalize.TokenTransfer, 0, len(transferRecords))
	for _, record := range transferRecords {
		info.TokenTransfers = append(info.TokenTransfers, record.toTokenTransfer())
	}

	return info, nil
}

// txCount reads the address nonce through the proxy tier, which reflects the
// full outbound history. The txlist page is capped at recentPageSize, so its
// length only serves as the floor when the proxy action is unavailable.
func (a *api) txCount(ctx context.Context, chain chains.Descriptor, key, address string, recent int) uint64 {
	raw, err := a.proxy(ctx, chain, key, map[string]string{
		"action":  "eth_getTransactionCount",
		"address": address,
		"tag":     "latest",
	})
	if err != nil || isNull(raw) {
		return uint64(recent)
	}

	var nonce types.Hex
	if err := json.Unmarshal(raw, &nonce); err != nil {
		return uint64(recent)
	}
	return nonce.Uint64()
}

// Transaction resolves a hash through the JSON-RPC proxy actions, folding in
// the receipt like the RPC reader does.
func (a *api) Transaction(ctx context.Context, chain chains.Descriptor, key, hash string) (normalize.Transaction, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Transaction{}, err
	}

	raw, err := a.proxy(ctx, chain, key, map[string]string{
		"action": "eth_getTransactionByHash",
		"txhash": hash,
	})
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

	if raw, err := a.proxy(ctx, chain, key, map[string]string{
		"action": "eth_getTransactionReceipt",
		"txhash": hash,
	}); err == nil && !isNull(raw) {
		tx, err = normalize.ApplyEVMReceipt(tx, raw)
		if err != nil {
			return normalize.Transaction{}, err
		}
	}

	return tx, nil
}

// Block resolves a number through the eth_getBlockByNumber proxy action.
func (a *api) Block(ctx context.Context, chain chains.Descriptor, key string, number uint64) (normalize.Block, error) {
	adapter, err := normalize.ForFamily(chain.Family)
	if err != nil {
		return normalize.Block{}, err
	}

	raw, err := a.proxy(ctx, chain, key, map[string]string{
		"action":  "eth_getBlockByNumber",
		"tag":     string(types.HexFromUint64(number)),
		"boolean": "true",
	})
	if err != nil {
		return normalize.Block{}, err
	}
	if isNull(raw) {
		return normalize.Block{}, fmt.Errorf("%w: block %d", source.ErrEntityNotFound, number)
	}

	return adapter.ToBlock(chain, raw)
}

// TokenInfo is deliberately unsupported on the keyed tier: the free explorer
// plans expose only the total supply, while the RPC tier introspects the
// full name/symbol/decimals/supply set through eth_call.
func (a *api) TokenInfo(ctx context.Context, chain chains.Descriptor, key, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{}, fmt.Errorf("%w: token introspection via explorer api", source.ErrUnsupportedOperation)
}

// ValidateKey runs the cheapest authenticated action and reports explicit
// key rejections as ErrInvalidCredential.
func (a *api) ValidateKey(ctx context.Context, chain chains.Descriptor, key string) error {
	_, err := a.query(ctx, chain, key, map[string]string{
		"module": "stats",
		"action": "ethprice",
	})
	return err
}
