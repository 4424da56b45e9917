package evmscan

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/transport/rest"
	"github.com/gabapcia/chainlens/internal/source"
)

// newExplorer spins up a fake etherscan-style server: handlers map
// "module/action" to a function of the query returning the full response
// body.
func newExplorer(t *testing.T, handlers map[string]func(q map[string]string) string) (*httptest.Server, chains.Descriptor) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := make(map[string]string)
		for k, v := range r.URL.Query() {
			q[k] = v[0]
		}

		handler, ok := handlers[q["module"]+"/"+q["action"]]
		if !ok {
			fmt.Fprintf(w, `{"status":"0","message":"NOTOK","result":"Error! Missing Or invalid Action name"}`)
			return
		}

		fmt.Fprint(w, handler(q))
	}))
	t.Cleanup(srv.Close)

	chain := chains.Descriptor{
		ID:           "ethereum",
		Name:         "Ethereum",
		Symbol:       "ETH",
		Family:       chains.FamilyEVM,
		RPCEndpoints: []string{"placeholder"},
		API:          &chains.KeyedAPI{BaseURL: srv.URL, RequiresKey: true},
	}

	return srv, chain
}

func TestAddressInfo(t *testing.T) {
	t.Run("combines balance, history and token transfers", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"account/balance": func(q map[string]string) string {
				assert.Equal(t, "KEY", q["apikey"])
				return `{"status":"1","message":"OK","result":"2000000000000000000"}`
			},
			"account/txlist": func(q map[string]string) string {
				assert.Equal(t, "desc", q["sort"])
				assert.Equal(t, "10", q["offset"])
				return `{"status":"1","message":"OK","result":[
					{"hash":"0xt1","from":"0xa","to":"0xb","value":"1000000000000000000",
					 "gasUsed":"21000","gasPrice":"20000000000","blockNumber":"100",
					 "timeStamp":"1700000000","isError":"0","txreceipt_status":"1"},
					{"hash":"0xt2","from":"0xa","to":"0xc","value":"0",
					 "gasUsed":"50000","gasPrice":"30000000000","blockNumber":"99",
					 "timeStamp":"1699999000","isError":"1","txreceipt_status":"0"}
				]}`
			},
			"account/tokentx": func(map[string]string) string {
				return `{"status":"1","message":"OK","result":[
					{"hash":"0xt3","from":"0xa","to":"0xd","contractAddress":"0xusdc",
					 "tokenName":"USD Coin","tokenSymbol":"USDC","tokenDecimal":"6",
					 "value":"2500000","timeStamp":"1700000100"}
				]}`
			},
			"proxy/eth_getTransactionCount": func(q map[string]string) string {
				assert.Equal(t, "latest", q["tag"])
				return `{"jsonrpc":"2.0","id":1,"result":"0x2a"}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		info, err := a.AddressInfo(t.Context(), chain, "KEY", "0xwallet")
		require.NoError(t, err)
		assert.Equal(t, 2.0, info.Balance, "wei scaled to native units")
		assert.Equal(t, uint64(42), info.TxCount, "nonce reflects the full history, not the visible page")

		require.Len(t, info.RecentTransactions, 2)
		assert.Equal(t, 1.0, info.RecentTransactions[0].Value)
		assert.Equal(t, 20.0, info.RecentTransactions[0].GasPrice, "wei converted to gwei")
		assert.Equal(t, normalize.StatusSuccess, info.RecentTransactions[0].Status)
		assert.Equal(t, normalize.StatusFailed, info.RecentTransactions[1].Status)

		require.Len(t, info.TokenTransfers, 1)
		assert.Equal(t, "USDC", info.TokenTransfers[0].TokenSymbol)
		assert.Equal(t, 2.5, info.TokenTransfers[0].Value, "smallest unit scaled by tokenDecimal")
	})

	t.Run("missing nonce proxy falls back to the visible page", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"account/balance": func(map[string]string) string {
				return `{"status":"1","message":"OK","result":"0"}`
			},
			"account/txlist": func(map[string]string) string {
				return `{"status":"1","message":"OK","result":[
					{"hash":"0xt1","from":"0xa","to":"0xb","value":"0",
					 "gasUsed":"21000","gasPrice":"20000000000","blockNumber":"100",
					 "timeStamp":"1700000000","isError":"0","txreceipt_status":"1"}
				]}`
			},
			"account/tokentx": func(map[string]string) string {
				return `{"status":"0","message":"No transactions found","result":[]}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		info, err := a.AddressInfo(t.Context(), chain, "KEY", "0xwallet")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), info.TxCount)
	})

	t.Run("empty history reads as zero transactions, not an error", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"account/balance": func(map[string]string) string {
				return `{"status":"1","message":"OK","result":"0"}`
			},
			"account/txlist": func(map[string]string) string {
				return `{"status":"0","message":"No transactions found","result":[]}`
			},
			"account/tokentx": func(map[string]string) string {
				return `{"status":"0","message":"No transactions found","result":[]}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		info, err := a.AddressInfo(t.Context(), chain, "KEY", "0xempty")
		require.NoError(t, err)
		assert.Zero(t, info.TxCount)
		assert.Empty(t, info.RecentTransactions)
	})

	t.Run("token transfer failure does not sink the address view", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"account/balance": func(map[string]string) string {
				return `{"status":"1","message":"OK","result":"1000000000000000000"}`
			},
			"account/txlist": func(map[string]string) string {
				return `{"status":"1","message":"OK","result":[]}`
			},
			"account/tokentx": func(map[string]string) string {
				return `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		info, err := a.AddressInfo(t.Context(), chain, "KEY", "0xwallet")
		require.NoError(t, err)
		assert.Equal(t, 1.0, info.Balance)
		assert.Empty(t, info.TokenTransfers)
	})

	t.Run("a rejected key surfaces as ErrInvalidCredential", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"account/balance": func(map[string]string) string {
				return `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		_, err := a.AddressInfo(t.Context(), chain, "BAD", "0xwallet")
		assert.ErrorIs(t, err, source.ErrInvalidCredential)
	})
}

func TestTransaction(t *testing.T) {
	hash := "0x" + strings.Repeat("a", 64)

	t.Run("resolves through the proxy actions with the receipt folded in", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"proxy/eth_getTransactionByHash": func(q map[string]string) string {
				assert.Equal(t, hash, q["txhash"])
				return fmt.Sprintf(`{"jsonrpc":"2.0","result":{
					"hash":%q,"from":"0xa","to":"0xb",
					"value":"0xde0b6b3a7640000","gasPrice":"0x4a817c800","blockNumber":"0x64"
				}}`, hash)
			},
			"proxy/eth_getTransactionReceipt": func(map[string]string) string {
				return `{"jsonrpc":"2.0","result":{"status":"0x1","gasUsed":"0x5208"}}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		tx, err := a.Transaction(t.Context(), chain, "KEY", hash)
		require.NoError(t, err)
		assert.Equal(t, 1.0, tx.Value)
		assert.Equal(t, 20.0, tx.GasPrice)
		assert.Equal(t, normalize.StatusSuccess, tx.Status)
		assert.Equal(t, uint64(100), tx.BlockNumber)
	})

	t.Run("null proxy result means the transaction does not exist", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"proxy/eth_getTransactionByHash": func(map[string]string) string {
				return `{"jsonrpc":"2.0","result":null}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		_, err := a.Transaction(t.Context(), chain, "KEY", hash)
		assert.ErrorIs(t, err, source.ErrEntityNotFound)
	})
}

func TestBlock(t *testing.T) {
	_, chain := newExplorer(t, map[string]func(map[string]string) string{
		"proxy/eth_getBlockByNumber": func(q map[string]string) string {
			assert.Equal(t, "0x10", q["tag"])
			assert.Equal(t, "true", q["boolean"])
			return `{"jsonrpc":"2.0","result":{
				"number":"0x10","hash":"0xblock","timestamp":"0x64",
				"transactions":[{"hash":"0x1"}]
			}}`
		},
	})

	a := NewAPI(rest.NewClient(http.DefaultClient))

	block, err := a.Block(t.Context(), chain, "KEY", 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), block.Number)
	assert.Equal(t, int64(100), block.Timestamp)
	assert.Equal(t, 1, block.TxCount)
}

func TestTokenInfo(t *testing.T) {
	_, chain := newExplorer(t, nil)

	a := NewAPI(rest.NewClient(http.DefaultClient))

	_, err := a.TokenInfo(t.Context(), chain, "KEY", "0xtoken")
	assert.ErrorIs(t, err, source.ErrUnsupportedOperation)
}

func TestValidateKey(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"stats/ethprice": func(q map[string]string) string {
				assert.Equal(t, "GOOD", q["apikey"])
				return `{"status":"1","message":"OK","result":{"ethusd":"3000"}}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		assert.NoError(t, a.ValidateKey(t.Context(), chain, "GOOD"))
	})

	t.Run("rejected", func(t *testing.T) {
		_, chain := newExplorer(t, map[string]func(map[string]string) string{
			"stats/ethprice": func(map[string]string) string {
				return `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`
			},
		})

		a := NewAPI(rest.NewClient(http.DefaultClient))

		err := a.ValidateKey(t.Context(), chain, "BAD")
		assert.ErrorIs(t, err, source.ErrInvalidCredential)
	})
}
