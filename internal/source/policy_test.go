package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/endpoint"
	"github.com/gabapcia/chainlens/internal/normalize"
)

// fakeReader implements Reader with overridable behavior per operation.
type fakeReader struct {
	height      func(endpoint string) (uint64, error)
	addressInfo func(endpoint, address string) (normalize.AddressInfo, error)
	transaction func(endpoint, hash string) (normalize.Transaction, error)
}

func (f *fakeReader) Height(ctx context.Context, chain chains.Descriptor, ep string) (uint64, error) {
	if f.height != nil {
		return f.height(ep)
	}
	return 100, nil
}

func (f *fakeReader) AddressInfo(ctx context.Context, chain chains.Descriptor, ep, address string) (normalize.AddressInfo, error) {
	if f.addressInfo != nil {
		return f.addressInfo(ep, address)
	}
	return normalize.AddressInfo{Address: address, Balance: 1, ChainID: chain.ID}, nil
}

func (f *fakeReader) Transaction(ctx context.Context, chain chains.Descriptor, ep, hash string) (normalize.Transaction, error) {
	if f.transaction != nil {
		return f.transaction(ep, hash)
	}
	return normalize.Transaction{Hash: hash, ChainID: chain.ID}, nil
}

func (f *fakeReader) Block(ctx context.Context, chain chains.Descriptor, ep string, number uint64) (normalize.Block, error) {
	return normalize.Block{Number: number, ChainID: chain.ID}, nil
}

func (f *fakeReader) LatestTransactions(ctx context.Context, chain chains.Descriptor, ep string, limit int) ([]normalize.Transaction, error) {
	return []normalize.Transaction{}, nil
}

func (f *fakeReader) TokenInfo(ctx context.Context, chain chains.Descriptor, ep, contract string) (normalize.TokenInfo, error) {
	return normalize.TokenInfo{Address: contract, ChainID: chain.ID}, nil
}

// fakeAPI implements API, counting calls so tests can assert tier skipping.
type fakeAPI struct {
	calls       int
	addressInfo func(key, address string) (normalize.AddressInfo, error)
	validateKey func(key string) error
}

func (f *fakeAPI) AddressInfo(ctx context.Context, chain chains.Descriptor, key, address string) (normalize.AddressInfo, error) {
	f.calls++
	if f.addressInfo != nil {
		return f.addressInfo(key, address)
	}
	return normalize.AddressInfo{Address: address, Balance: 2, ChainID: chain.ID}, nil
}

func (f *fakeAPI) Transaction(ctx context.Context, chain chains.Descriptor, key, hash string) (normalize.Transaction, error) {
	f.calls++
	return normalize.Transaction{Hash: hash, ChainID: chain.ID}, nil
}

func (f *fakeAPI) Block(ctx context.Context, chain chains.Descriptor, key string, number uint64) (normalize.Block, error) {
	f.calls++
	return normalize.Block{Number: number, ChainID: chain.ID}, nil
}

func (f *fakeAPI) TokenInfo(ctx context.Context, chain chains.Descriptor, key, contract string) (normalize.TokenInfo, error) {
	f.calls++
	return normalize.TokenInfo{Address: contract, ChainID: chain.ID}, nil
}

func (f *fakeAPI) ValidateKey(ctx context.Context, chain chains.Descriptor, key string) error {
	f.calls++
	if f.validateKey != nil {
		return f.validateKey(key)
	}
	return nil
}

func keyedChain(t *testing.T, requiresKey bool) *chains.Registry {
	t.Helper()

	registry, err := chains.NewRegistry([]chains.Descriptor{
		{
			ID:           "ethereum",
			Name:         "Ethereum",
			Symbol:       "ETH",
			Family:       chains.FamilyEVM,
			RPCEndpoints: []string{"https://a.example", "https://b.example"},
			API:          &chains.KeyedAPI{BaseURL: "https://api.example", RequiresKey: requiresKey},
		},
		{
			ID:           "bitcoin",
			Name:         "Bitcoin",
			Symbol:       "BTC",
			Family:       chains.FamilyUTXO,
			RPCEndpoints: []string{"https://btc.example"},
		},
	})
	require.NoError(t, err)

	return registry
}

func newTestPolicy(t *testing.T, registry *chains.Registry, reader Reader, api API, keys map[string]string) (*Policy, *endpoint.Resolver) {
	t.Helper()

	readers := map[chains.Family]Reader{
		chains.FamilyEVM:  reader,
		chains.FamilyUTXO: reader,
	}

	apis := map[chains.Family]API{}
	if api != nil {
		apis[chains.FamilyEVM] = api
	}

	resolver := endpoint.NewResolver(registry, NewProber(readers))
	return NewPolicy(registry, resolver, readers, apis, keys), resolver
}

func TestPolicy_AddressInfo(t *testing.T) {
	t.Run("keyed API wins when a key is configured", func(t *testing.T) {
		api := &fakeAPI{}
		policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, api, map[string]string{"ethereum": "KEY"})

		info, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
		require.NoError(t, err)
		assert.Equal(t, 2.0, info.Balance, "the API tier answered")
		assert.Equal(t, 1, api.calls)
	})

	t.Run("blank key skips the API tier entirely", func(t *testing.T) {
		api := &fakeAPI{}
		policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, api, map[string]string{"ethereum": "   "})

		info, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
		require.NoError(t, err)
		assert.Equal(t, 1.0, info.Balance, "the RPC tier answered")
		assert.Zero(t, api.calls, "no wasted call to an API that cannot succeed")
	})

	t.Run("keyless API is used when it does not require a key", func(t *testing.T) {
		api := &fakeAPI{}
		policy, _ := newTestPolicy(t, keyedChain(t, false), &fakeReader{}, api, nil)

		info, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
		require.NoError(t, err)
		assert.Equal(t, 2.0, info.Balance)
		assert.Equal(t, 1, api.calls)
	})

	t.Run("API failure falls back to RPC", func(t *testing.T) {
		api := &fakeAPI{
			addressInfo: func(key, address string) (normalize.AddressInfo, error) {
				return normalize.AddressInfo{}, errors.New("rate limited")
			},
		}
		policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, api, map[string]string{"ethereum": "KEY"})

		info, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
		require.NoError(t, err)
		assert.Equal(t, 1.0, info.Balance, "the RPC tier answered after the API failed")
	})

	t.Run("API not-found is terminal, no RPC fallthrough", func(t *testing.T) {
		rpcCalled := false
		api := &fakeAPI{
			addressInfo: func(key, address string) (normalize.AddressInfo, error) {
				return normalize.AddressInfo{}, ErrEntityNotFound
			},
		}
		reader := &fakeReader{
			addressInfo: func(ep, address string) (normalize.AddressInfo, error) {
				rpcCalled = true
				return normalize.AddressInfo{}, nil
			},
		}
		policy, _ := newTestPolicy(t, keyedChain(t, true), reader, api, map[string]string{"ethereum": "KEY"})

		_, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
		assert.ErrorIs(t, err, ErrEntityNotFound)
		assert.False(t, rpcCalled)
	})

	t.Run("both tiers failing yields SourceExhausted with the causes", func(t *testing.T) {
		api := &fakeAPI{
			addressInfo: func(key, address string) (normalize.AddressInfo, error) {
				return normalize.AddressInfo{}, errors.New("api down")
			},
		}
		reader := &fakeReader{
			addressInfo: func(ep, address string) (normalize.AddressInfo, error) {
				return normalize.AddressInfo{}, errors.New("rpc down")
			},
		}
		policy, _ := newTestPolicy(t, keyedChain(t, true), reader, api, map[string]string{"ethereum": "KEY"})

		_, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
		require.ErrorIs(t, err, ErrSourceExhausted)
		assert.Contains(t, err.Error(), "api down")
		assert.Contains(t, err.Error(), "rpc down")
	})

	t.Run("unconfigured chain propagates", func(t *testing.T) {
		policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, nil, nil)

		_, err := policy.AddressInfo(t.Context(), "dogecoin", "D123")
		assert.ErrorIs(t, err, chains.ErrUnconfiguredChain)
	})
}

func TestPolicy_MarksEndpointGoodAfterRPCSuccess(t *testing.T) {
	policy, resolver := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, nil, nil)

	_, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
	require.NoError(t, err)

	idx, ok := resolver.LastGoodIndex("ethereum")
	require.True(t, ok, "real traffic feeds the sticky cache, not only probes")
	assert.Equal(t, 0, idx)
}

func TestPolicy_ValidateKey(t *testing.T) {
	t.Run("chain without an API fails with ErrNoKeyedAPI", func(t *testing.T) {
		policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, &fakeAPI{}, nil)

		err := policy.ValidateKey(t.Context(), "bitcoin")
		assert.ErrorIs(t, err, ErrNoKeyedAPI)
	})

	t.Run("rejection surfaces as ErrInvalidCredential", func(t *testing.T) {
		api := &fakeAPI{
			validateKey: func(key string) error {
				return ErrInvalidCredential
			},
		}
		policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, api, map[string]string{"ethereum": "BAD"})

		err := policy.ValidateKey(t.Context(), "ethereum")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("accepted key validates", func(t *testing.T) {
		policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, &fakeAPI{}, map[string]string{"ethereum": "GOOD"})

		assert.NoError(t, policy.ValidateKey(t.Context(), "ethereum"))
	})
}

func TestPolicy_LatestTransactionsSkipsAPITier(t *testing.T) {
	api := &fakeAPI{}
	policy, _ := newTestPolicy(t, keyedChain(t, true), &fakeReader{}, api, map[string]string{"ethereum": "KEY"})

	_, err := policy.LatestTransactions(t.Context(), "ethereum", 5)
	require.NoError(t, err)
	assert.Zero(t, api.calls, "recent-activity sampling is RPC-native")
}

func TestPolicy_UnsupportedFamily(t *testing.T) {
	registry := keyedChain(t, true)
	readers := map[chains.Family]Reader{}
	resolver := endpoint.NewResolver(registry, NewProber(readers))
	policy := NewPolicy(registry, resolver, readers, nil, nil)

	_, err := policy.AddressInfo(t.Context(), "ethereum", "0xabc")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestSampleWindow(t *testing.T) {
	tuned := func(txPerBlock int) chains.Descriptor {
		return chains.Descriptor{ID: "tuned", Tuning: chains.Tuning{TxPerBlock: txPerBlock}}
	}

	t.Run("full blocks need few of them", func(t *testing.T) {
		assert.Equal(t, 2, SampleWindow(tuned(150), 200))
	})

	t.Run("partial last block rounds up", func(t *testing.T) {
		assert.Equal(t, 3, SampleWindow(tuned(4), 10))
	})

	t.Run("sparse chains are capped", func(t *testing.T) {
		assert.Equal(t, maxSampleWindow, SampleWindow(tuned(2), 200))
	})

	t.Run("missing tuning falls back to a fixed walk", func(t *testing.T) {
		assert.Equal(t, defaultSampleWindow, SampleWindow(tuned(0), 200))
	})

	t.Run("non-positive limit falls back to a fixed walk", func(t *testing.T) {
		assert.Equal(t, defaultSampleWindow, SampleWindow(tuned(150), 0))
	})
}
