package endpoint

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/chainlens/internal/chains"
)

func poolRegistry(t *testing.T, endpoints ...string) *chains.Registry {
	t.Helper()

	registry, err := chains.NewRegistry([]chains.Descriptor{
		{ID: "testchain", Name: "Test Chain", Symbol: "TST", Family: chains.FamilyEVM, RPCEndpoints: endpoints},
	})
	require.NoError(t, err)

	return registry
}

// recordingProber fails every endpoint in the down set and records the
// probe order.
type recordingProber struct {
	mu     sync.Mutex
	down   map[string]bool
	probed []string
}

func (p *recordingProber) Probe(ctx context.Context, chain chains.Descriptor, endpoint string) error {
	p.mu.Lock()
	p.probed = append(p.probed, endpoint)
	p.mu.Unlock()

	if p.down[endpoint] {
		return errors.New("connection refused")
	}
	return nil
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("returns the first healthy endpoint", func(t *testing.T) {
		registry := poolRegistry(t, "https://a.example", "https://b.example")
		prober := &recordingProber{}

		r := NewResolver(registry, prober)

		url, err := r.Resolve(t.Context(), "testchain")
		require.NoError(t, err)
		assert.Equal(t, "https://a.example", url)
	})

	t.Run("rotates past dead endpoints", func(t *testing.T) {
		registry := poolRegistry(t, "https://a.example", "https://b.example", "https://c.example")
		prober := &recordingProber{down: map[string]bool{"https://a.example": true, "https://b.example": true}}

		r := NewResolver(registry, prober)

		url, err := r.Resolve(t.Context(), "testchain")
		require.NoError(t, err)
		assert.Equal(t, "https://c.example", url)
		assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, prober.probed)
	})

	t.Run("unknown chain fails with UnconfiguredChain", func(t *testing.T) {
		registry := poolRegistry(t, "https://a.example")
		r := NewResolver(registry, &recordingProber{})

		_, err := r.Resolve(t.Context(), "nope")
		assert.ErrorIs(t, err, chains.ErrUnconfiguredChain)
	})

	t.Run("exhausted pool returns the head without an error", func(t *testing.T) {
		registry := poolRegistry(t, "https://a.example", "https://b.example")
		prober := &recordingProber{down: map[string]bool{"https://a.example": true, "https://b.example": true}}

		r := NewResolver(registry, prober)

		url, err := r.Resolve(t.Context(), "testchain")
		require.NoError(t, err, "the downstream call surfaces the real failure, not the resolver")
		assert.Equal(t, "https://a.example", url)

		_, cached := r.LastGoodIndex("testchain")
		assert.False(t, cached, "a failed sweep must not poison the cache")
	})
}

func TestResolver_StickySuccess(t *testing.T) {
	registry := poolRegistry(t, "https://a.example", "https://b.example", "https://c.example")
	prober := &recordingProber{down: map[string]bool{"https://a.example": true}}

	r := NewResolver(registry, prober)

	url, err := r.Resolve(t.Context(), "testchain")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", url)

	idx, ok := r.LastGoodIndex("testchain")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	// The next resolution starts at the cached index: endpoint a is never
	// probed again while b stays healthy.
	prober.probed = nil

	url, err = r.Resolve(t.Context(), "testchain")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", url)
	assert.Equal(t, []string{"https://b.example"}, prober.probed)
}

func TestResolver_ResolveFrom(t *testing.T) {
	registry := poolRegistry(t, "https://a.example", "https://b.example", "https://c.example")
	prober := &recordingProber{}

	r := NewResolver(registry, prober)

	url, err := r.ResolveFrom(t.Context(), "testchain", 2)
	require.NoError(t, err)
	assert.Equal(t, "https://c.example", url, "rotation starts at the supplied index")
}

func TestResolver_MarkGood(t *testing.T) {
	registry := poolRegistry(t, "https://a.example", "https://b.example")
	r := NewResolver(registry, &recordingProber{})

	r.MarkGood("testchain", "https://b.example")

	idx, ok := r.LastGoodIndex("testchain")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	t.Run("unknown URL is ignored", func(t *testing.T) {
		r.MarkGood("testchain", "https://elsewhere.example")

		idx, _ := r.LastGoodIndex("testchain")
		assert.Equal(t, 1, idx)
	})

	t.Run("unknown chain is ignored", func(t *testing.T) {
		r.MarkGood("nope", "https://a.example")

		_, ok := r.LastGoodIndex("nope")
		assert.False(t, ok)
	})
}

func TestResolver_ConcurrentUpdates(t *testing.T) {
	registry := poolRegistry(t, "https://a.example", "https://b.example")
	r := NewResolver(registry, &recordingProber{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.MarkGood("testchain", "https://b.example")
			r.Resolve(context.Background(), "testchain")
		}(i)
	}
	wg.Wait()

	idx, ok := r.LastGoodIndex("testchain")
	require.True(t, ok)
	assert.Contains(t, []int{0, 1}, idx)
}
