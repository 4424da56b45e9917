// Package endpoint implements rotating RPC endpoint pools with a
// sticky-success health cache. Each configured chain owns an ordered pool of
// interchangeable public endpoints; once an endpoint answers a cheap
// liveness probe, its index is remembered so subsequent calls for the chain
// start there and only pay for re-probing when it goes bad again.
package endpoint

import (
	"context"
	"sync"
	"time"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/pkg/logger"
)

// defaultProbeTimeout bounds a single liveness probe. Probes are cheap
// read-only height calls; anything slower is as good as down.
const defaultProbeTimeout = 5 * time.Second

// Prober performs a minimal liveness check against one endpoint of a chain,
// typically a "get current height" call in the chain's native dialect.
type Prober interface {
	Probe(ctx context.Context, chain chains.Descriptor, endpoint string) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, chain chains.Descriptor, endpoint string) error

// Probe implements the Prober interface.
func (f ProberFunc) Probe(ctx context.Context, chain chains.Descriptor, endpoint string) error {
	return f(ctx, chain, endpoint)
}

// Resolver selects live endpoints out of per-chain pools. The last-good
// index cache is the only shared mutable state of the aggregation layer;
// updates are last-writer-wins and a stale read self-corrects on the next
// probe-and-fallback cycle.
type Resolver struct {
	registry *chains.Registry
	prober   Prober

	probeTimeout time.Duration

	mu       sync.Mutex
	lastGood map[string]int // chain id -> last known good pool index
}

// config holds construction options for the Resolver.
type config struct {
	probeTimeout time.Duration
}

// Option configures the Resolver.
type Option func(*config)

// WithProbeTimeout overrides the per-probe deadline. Default: 5 seconds.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *config) {
		c.probeTimeout = d
	}
}

// NewResolver builds a Resolver over the given registry, using prober for
// liveness checks.
func NewResolver(registry *chains.Registry, prober Prober, opts ...Option) *Resolver {
	cfg := config{probeTimeout: defaultProbeTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Resolver{
		registry:     registry,
		prober:       prober,
		probeTimeout: cfg.probeTimeout,
		lastGood:     make(map[string]int),
	}
}

// Resolve returns a live RPC endpoint for the chain, starting the rotation
// at the chain's cached last-good index. See ResolveFrom for the selection
// contract.
func (r *Resolver) Resolve(ctx context.Context, chainID string) (string, error) {
	return r.ResolveFrom(ctx, chainID, r.cachedIndex(chainID))
}

// ResolveFrom probes pool[(startIndex + i) mod len(pool)] for increasing i
// until an endpoint answers, records the winning index, and returns its URL.
// If every endpoint fails (or the context is done), the pool's first URL is
// returned with a nil error: the resolver does not decide staleness beyond
// the probe, and the downstream call surfaces the real failure itself. The
// only error case is an unconfigured chain id.
func (r *Resolver) ResolveFrom(ctx context.Context, chainID string, startIndex int) (string, error) {
	desc, err := r.registry.Get(chainID)
	if err != nil {
		return "", err
	}

	pool := desc.RPCEndpoints
	if startIndex < 0 {
		startIndex = 0
	}

	for i := 0; i < len(pool); i++ {
		if ctx.Err() != nil {
			break
		}

		idx := (startIndex + i) % len(pool)

		probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
		err := r.prober.Probe(probeCtx, desc, pool[idx])
		cancel()

		if err == nil {
			r.markGood(chainID, idx)
			return pool[idx], nil
		}

		logger.Debug(ctx, "endpoint probe failed",
			"chain", chainID,
			"endpoint", pool[idx],
			"error", err,
		)
	}

	logger.Warn(ctx, "all endpoints failed probing, falling back to pool head",
		"chain", chainID,
		"pool_size", len(pool),
	)
	return pool[0], nil
}

// MarkGood records the pool index of the given endpoint URL as the chain's
// last known good entry. The source selection policy calls this after a
// successful RPC call so the stickiness reflects real traffic, not only
// probes. Unknown URLs are ignored.
func (r *Resolver) MarkGood(chainID, endpoint string) {
	desc, err := r.registry.Get(chainID)
	if err != nil {
		return
	}

	for i, url := range desc.RPCEndpoints {
		if url == endpoint {
			r.markGood(chainID, i)
			return
		}
	}
}

// LastGoodIndex returns the cached last-good pool index for the chain and
// whether one has been recorded.
func (r *Resolver) LastGoodIndex(chainID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.lastGood[chainID]
	return idx, ok
}

func (r *Resolver) cachedIndex(chainID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastGood[chainID]
}

func (r *Resolver) markGood(chainID string, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastGood[chainID] = idx
}
