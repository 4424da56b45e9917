package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/endpoint"
	"github.com/gabapcia/chainlens/internal/metrics"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/logger"
)

// Policy applies the source selection order to every read operation:
//
//  1. keyed API, when configured and a usable key is present;
//  2. an RPC endpoint resolved from the chain's pool;
//  3. ErrSourceExhausted carrying the last underlying error.
//
// The policy absorbs tier failures silently; everything it returns to the
// caller is typed. It owns the resolver's sticky cache updates after
// successful RPC calls.
type Policy struct {
	registry *chains.Registry
	resolver *endpoint.Resolver
	readers  map[chains.Family]Reader
	apis     map[chains.Family]API
	keys     map[string]string // chain id -> API credential
}

// NewPolicy builds the selection policy. keys maps chain id to the keyed-API
// credential; missing or blank entries simply disable the API tier for that
// chain.
func NewPolicy(
	registry *chains.Registry,
	resolver *endpoint.Resolver,
	readers map[chains.Family]Reader,
	apis map[chains.Family]API,
	keys map[string]string,
) *Policy {
	if keys == nil {
		keys = make(map[string]string)
	}

	return &Policy{
		registry: registry,
		resolver: resolver,
		readers:  readers,
		apis:     apis,
		keys:     keys,
	}
}

// NewProber adapts a reader set into the liveness probe the endpoint
// resolver wants: a cheap height call in the family's native dialect.
func NewProber(readers map[chains.Family]Reader) endpoint.Prober {
	return endpoint.ProberFunc(func(ctx context.Context, chain chains.Descriptor, ep string) error {
		reader, ok := readers[chain.Family]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedOperation, chain.Family)
		}

		_, err := reader.Height(ctx, chain, ep)
		return err
	})
}

// apiKey returns the usable credential for the chain, or "" when the API
// tier must be skipped. A configured API that requires a key but has none
// supplied cannot succeed, so no call is wasted on it.
func (p *Policy) apiKey(chain chains.Descriptor) (string, bool) {
	if !chain.HasAPI() {
		return "", false
	}

	key := strings.TrimSpace(p.keys[chain.ID])
	if chain.API.RequiresKey && key == "" {
		return "", false
	}
	return key, true
}

// fetch runs one read operation through the tiers. apiFn may be nil when the
// operation has no API variant for the chain's family.
func fetch[T any](ctx context.Context, p *Policy, chain chains.Descriptor, op string,
	apiFn func(ctx context.Context, key string) (T, error),
	rpcFn func(ctx context.Context, ep string) (T, error),
) (T, error) {
	var (
		zero   T
		apiErr error
	)

	if key, ok := p.apiKey(chain); ok && apiFn != nil {
		callCtx, cancel := context.WithTimeout(ctx, restCallTimeout)
		v, err := apiFn(callCtx, key)
		cancel()

		switch {
		case err == nil:
			metrics.UpstreamRequestsTotal.WithLabelValues(chain.ID, "api", op, "ok").Inc()
			return v, nil
		case errors.Is(err, ErrEntityNotFound):
			metrics.UpstreamRequestsTotal.WithLabelValues(chain.ID, "api", op, "not_found").Inc()
			return zero, err
		default:
			// Includes ErrInvalidCredential: data reads still fall back to
			// RPC, only ValidateKey surfaces the rejection directly.
			metrics.UpstreamRequestsTotal.WithLabelValues(chain.ID, "api", op, "error").Inc()
			logger.Warn(ctx, "keyed api call failed, falling back to rpc",
				"chain", chain.ID,
				"operation", op,
				"error", err,
			)
			apiErr = err
		}
	}

	if _, ok := p.readers[chain.Family]; !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnsupportedOperation, chain.Family)
	}

	ep, err := p.resolver.Resolve(ctx, chain.ID)
	if err != nil {
		return zero, err
	}

	callCtx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	v, err := rpcFn(callCtx, ep)
	cancel()

	switch {
	case err == nil:
		metrics.UpstreamRequestsTotal.WithLabelValues(chain.ID, "rpc", op, "ok").Inc()
		p.resolver.MarkGood(chain.ID, ep)
		return v, nil
	case errors.Is(err, ErrEntityNotFound):
		metrics.UpstreamRequestsTotal.WithLabelValues(chain.ID, "rpc", op, "not_found").Inc()
		return zero, err
	case errors.Is(err, ErrUnsupportedOperation):
		return zero, err
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(chain.ID, "rpc", op, "error").Inc()

	if apiErr != nil {
		err = errors.Join(apiErr, err)
	}
	return zero, fmt.Errorf("%w: chain %s: %w", ErrSourceExhausted, chain.ID, err)
}

// AddressInfo fetches the normalized view of an address.
func (p *Policy) AddressInfo(ctx context.Context, chainID, address string) (normalize.AddressInfo, error) {
	chain, err := p.registry.Get(chainID)
	if err != nil {
		return normalize.AddressInfo{}, err
	}

	api := p.apis[chain.Family]

	var apiFn func(ctx context.Context, key string) (normalize.AddressInfo, error)
	if api != nil {
		apiFn = func(ctx context.Context, key string) (normalize.AddressInfo, error) {
			return api.AddressInfo(ctx, chain, key, address)
		}
	}

	return fetch(ctx, p, chain, "address_info", apiFn,
		func(ctx context.Context, ep string) (normalize.AddressInfo, error) {
			return p.readers[chain.Family].AddressInfo(ctx, chain, ep, address)
		},
	)
}

// Transaction fetches the normalized view of a transaction by hash.
func (p *Policy) Transaction(ctx context.Context, chainID, hash string) (normalize.Transaction, error) {
	chain, err := p.registry.Get(chainID)
	if err != nil {
		return normalize.Transaction{}, err
	}

	api := p.apis[chain.Family]

	var apiFn func(ctx context.Context, key string) (normalize.Transaction, error)
	if api != nil {
		apiFn = func(ctx context.Context, key string) (normalize.Transaction, error) {
			return api.Transaction(ctx, chain, key, hash)
		}
	}

	return fetch(ctx, p, chain, "transaction", apiFn,
		func(ctx context.Context, ep string) (normalize.Transaction, error) {
			return p.readers[chain.Family].Transaction(ctx, chain, ep, hash)
		},
	)
}

// Block fetches the normalized view of a block by native number.
func (p *Policy) Block(ctx context.Context, chainID string, number uint64) (normalize.Block, error) {
	chain, err := p.registry.Get(chainID)
	if err != nil {
		return normalize.Block{}, err
	}

	api := p.apis[chain.Family]

	var apiFn func(ctx context.Context, key string) (normalize.Block, error)
	if api != nil {
		apiFn = func(ctx context.Context, key string) (normalize.Block, error) {
			return api.Block(ctx, chain, key, number)
		}
	}

	return fetch(ctx, p, chain, "block", apiFn,
		func(ctx context.Context, ep string) (normalize.Block, error) {
			return p.readers[chain.Family].Block(ctx, chain, ep, number)
		},
	)
}

// TokenInfo fetches normalized token metadata for a contract address.
func (p *Policy) TokenInfo(ctx context.Context, chainID, contract string) (normalize.TokenInfo, error) {
	chain, err := p.registry.Get(chainID)
	if err != nil {
		return normalize.TokenInfo{}, err
	}

	api := p.apis[chain.Family]

	var apiFn func(ctx context.Context, key string) (normalize.TokenInfo, error)
	if api != nil {
		apiFn = func(ctx context.Context, key string) (normalize.TokenInfo, error) {
			return api.TokenInfo(ctx, chain, key, contract)
		}
	}

	return fetch(ctx, p, chain, "token_info", apiFn,
		func(ctx context.Context, ep string) (normalize.TokenInfo, error) {
			return p.readers[chain.Family].TokenInfo(ctx, chain, ep, contract)
		},
	)
}

// LatestTransactions fetches up to limit recently confirmed transactions.
// There is no scan-API variant: recent-activity sampling is an RPC-native
// operation on every family.
func (p *Policy) LatestTransactions(ctx context.Context, chainID string, limit int) ([]normalize.Transaction, error) {
	chain, err := p.registry.Get(chainID)
	if err != nil {
		return nil, err
	}

	return fetch(ctx, p, chain, "latest_transactions", nil,
		func(ctx context.Context, ep string) ([]normalize.Transaction, error) {
			return p.readers[chain.Family].LatestTransactions(ctx, chain, ep, limit)
		},
	)
}

// ValidateKey checks the configured credential for a chain's keyed API.
// Returns ErrNoKeyedAPI when the chain has none configured, and
// ErrInvalidCredential when the API explicitly rejects the key.
func (p *Policy) ValidateKey(ctx context.Context, chainID string) error {
	chain, err := p.registry.Get(chainID)
	if err != nil {
		return err
	}

	if !chain.HasAPI() {
		return fmt.Errorf("%w: %s", ErrNoKeyedAPI, chainID)
	}

	api, ok := p.apis[chain.Family]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoKeyedAPI, chainID)
	}

	callCtx, cancel := context.WithTimeout(ctx, restCallTimeout)
	defer cancel()

	return api.ValidateKey(callCtx, chain, strings.TrimSpace(p.keys[chain.ID]))
}
