// Package explorer is the public aggregation surface: normalized entity
// reads across every configured chain, derived analytics, heuristic query
// detection, and speculative multi-chain search. Everything it returns is a
// value from the common schema; chain-specific raw payloads never cross this
// boundary.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/gabapcia/chainlens/internal/analytics"
	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/detect"
	"github.com/gabapcia/chainlens/internal/normalize"
	"github.com/gabapcia/chainlens/internal/pkg/logger"
	"github.com/gabapcia/chainlens/internal/source"
)

// defaultFanout bounds speculative lookups when no explicit cap is
// configured.
const defaultFanout = 5

// defaultSampleLimit bounds analytics and latest-transaction fetches when
// the chain's tuning does not say otherwise.
const defaultSampleLimit = 50

// Cache is the optional response cache the service consults before hitting
// upstreams. Implementations are best-effort: a miss and an internal failure
// look the same, and Set never reports errors.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// nopCache is the default when no cache is wired.
type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (nopCache) Set(ctx context.Context, key string, value []byte) {}

// SearchResult is one resolved candidate of a speculative lookup. Exactly
// one of the entity fields is set, matching Entity.
type SearchResult struct {
	ChainID     string                  `json:"chainId"`
	Entity      detect.EntityType       `json:"entity"`
	Confidence  float64                 `json:"confidence"`
	Address     *normalize.AddressInfo  `json:"address,omitempty"`
	Transaction *normalize.Transaction  `json:"transaction,omitempty"`
	Block       *normalize.Block        `json:"block,omitempty"`
	ExplorerURL string                  `json:"explorerUrl,omitempty"`
}

type config struct {
	cache  Cache
	fanout int
}

// Option customizes the service.
type Option func(*config)

// WithCache wires a response cache in front of entity reads.
func WithCache(c Cache) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.cache = c
		}
	}
}

// WithSpeculativeFanout caps how many ranked candidates a Search issues in
// parallel.
func WithSpeculativeFanout(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.fanout = n
		}
	}
}

// Service is the aggregation layer facade.
type Service struct {
	registry *chains.Registry
	policy   *source.Policy
	detector *detect.Detector
	cache    Cache
	fanout   int
}

// NewService builds the explorer facade on top of the source selection
// policy.
func NewService(registry *chains.Registry, policy *source.Policy, detector *detect.Detector, opts ...Option) *Service {
	cfg := config{
		cache:  nopCache{},
		fanout: defaultFanout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Service{
		registry: registry,
		policy:   policy,
		detector: detector,
		cache:    cfg.cache,
		fanout:   cfg.fanout,
	}
}

// cached runs fetch through the response cache. Cache failures never fail
// the read; a poisoned entry that fails to decode is treated as a miss.
func cached[T any](ctx context.Context, s *Service, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if data, ok := s.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		s.cache.Set(ctx, key, data)
	}
	return v, nil
}

// AddressInfo returns the normalized view of an address on one chain.
func (s *Service) AddressInfo(ctx context.Context, chainID, address string) (normalize.AddressInfo, error) {
	return cached(ctx, s, "addr:"+chainID+":"+address, func(ctx context.Context) (normalize.AddressInfo, error) {
		return s.policy.AddressInfo(ctx, chainID, address)
	})
}

// TransactionInfo returns the normalized view of a transaction on one chain.
func (s *Service) TransactionInfo(ctx context.Context, chainID, hash string) (normalize.Transaction, error) {
	return cached(ctx, s, "tx:"+chainID+":"+hash, func(ctx context.Context) (normalize.Transaction, error) {
		return s.policy.Transaction(ctx, chainID, hash)
	})
}

// BlockInfo returns the normalized view of a block on one chain.
func (s *Service) BlockInfo(ctx context.Context, chainID string, number uint64) (normalize.Block, error) {
	return cached(ctx, s, fmt.Sprintf("block:%s:%d", chainID, number), func(ctx context.Context) (normalize.Block, error) {
		return s.policy.Block(ctx, chainID, number)
	})
}

// TokenInfo returns normalized token metadata for a contract address.
func (s *Service) TokenInfo(ctx context.Context, chainID, contract string) (normalize.TokenInfo, error) {
	return cached(ctx, s, "token:"+chainID+":"+contract, func(ctx context.Context) (normalize.TokenInfo, error) {
		return s.policy.TokenInfo(ctx, chainID, contract)
	})
}

// sampleLimit clamps a caller-supplied limit against the chain's tuning.
func (s *Service) sampleLimit(chainID string, limit int) int {
	if limit > 0 {
		return limit
	}

	if chain, err := s.registry.Get(chainID); err == nil && chain.Tuning.SampleSize > 0 {
		return chain.Tuning.SampleSize
	}
	return defaultSampleLimit
}

// LatestTransactions returns up to limit recently confirmed transactions,
// newest first. A non-positive limit falls back to the chain's tuning.
func (s *Service) LatestTransactions(ctx context.Context, chainID string, limit int) ([]normalize.Transaction, error) {
	return s.policy.LatestTransactions(ctx, chainID, s.sampleLimit(chainID, limit))
}

// LargeTransactions filters the latest transactions down to those whose
// value meets or exceeds minValue. A non-positive minValue uses the chain's
// configured large-transaction threshold.
func (s *Service) LargeTransactions(ctx context.Context, chainID string, minValue float64, limit int) ([]normalize.Transaction, error) {
	chain, err := s.registry.Get(chainID)
	if err != nil {
		return nil, err
	}

	if minValue <= 0 {
		minValue = chain.Tuning.LargeTxThreshold
	}

	sample, err := s.policy.LatestTransactions(ctx, chainID, s.sampleLimit(chainID, 0))
	if err != nil {
		return nil, err
	}

	large := make([]normalize.Transaction, 0, limit)
	for _, tx := range sample {
		if tx.Value >= minValue {
			large = append(large, tx)
			if limit > 0 && len(large) == limit {
				break
			}
		}
	}

	return large, nil
}

// Analytics computes a derived snapshot from a fresh sample of up to window
// recent transactions. A non-positive window falls back to the chain's
// tuning.
func (s *Service) Analytics(ctx context.Context, chainID string, window int) (analytics.Snapshot, error) {
	chain, err := s.registry.Get(chainID)
	if err != nil {
		return analytics.Snapshot{}, err
	}

	sample, err := s.policy.LatestTransactions(ctx, chainID, s.sampleLimit(chainID, window))
	if err != nil {
		return analytics.Snapshot{}, err
	}

	return analytics.Compute(chain, sample), nil
}

// DetectChains ranks the candidate chains and entity types a raw query
// string most plausibly refers to.
func (s *Service) DetectChains(query string) []detect.Match {
	return s.detector.Detect(query)
}

// ValidateAPIKey checks the configured credential for a chain's keyed API.
func (s *Service) ValidateAPIKey(ctx context.Context, chainID string) error {
	return s.policy.ValidateKey(ctx, chainID)
}

// Search resolves a raw query speculatively: the detector's top candidates
// are queried in parallel, capped by the configured fan-out, and only the
// chains that actually hold the entity are reported. A candidate's failure
// silently drops it; it never fails the whole search.
func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	matches := s.detector.Detect(query)
	if len(matches) > s.fanout {
		matches = matches[:s.fanout]
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]SearchResult, 0, len(matches))
	)

	for _, match := range matches {
		wg.Add(1)
		go func(match detect.Match) {
			defer wg.Done()

			result, err := s.resolveCandidate(ctx, query, match)
			if err != nil {
				logger.Debug(ctx, "speculative candidate dropped",
					"chain", match.Chain.ID,
					"entity", match.Entity,
					"error", err,
				)
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(match)
	}

	wg.Wait()

	// Preserve the detector's ranking, which the goroutines scrambled.
	// Chain ID is the join key: the detector emits at most one candidate
	// per chain, and unknown-entity candidates come back with the entity
	// type the lookup settled on.
	ranked := make([]SearchResult, 0, len(results))
	for _, match := range matches {
		for _, result := range results {
			if result.ChainID == match.Chain.ID {
				ranked = append(ranked, result)
				break
			}
		}
	}

	return ranked, nil
}

// resolveCandidate issues the entity-type-appropriate lookup for one ranked
// candidate. Unknown-entity candidates are tried as address first, then
// transaction.
func (s *Service) resolveCandidate(ctx context.Context, query string, match detect.Match) (SearchResult, error) {
	result := SearchResult{
		ChainID:    match.Chain.ID,
		Confidence: match.Confidence,
	}

	switch match.Entity {
	case detect.EntityAddress:
		info, err := s.AddressInfo(ctx, match.Chain.ID, query)
		if err != nil {
			return SearchResult{}, err
		}
		result.Entity = detect.EntityAddress
		result.Address = &info
		result.ExplorerURL = explorerLink(match.Chain, "address", query)

	case detect.EntityTransaction:
		tx, err := s.TransactionInfo(ctx, match.Chain.ID, query)
		if err != nil {
			return SearchResult{}, err
		}
		result.Entity = detect.EntityTransaction
		result.Transaction = &tx
		result.ExplorerURL = explorerLink(match.Chain, "tx", query)

	case detect.EntityBlock:
		number, err := strconv.ParseUint(query, 10, 64)
		if err != nil {
			return SearchResult{}, err
		}
		block, err := s.BlockInfo(ctx, match.Chain.ID, number)
		if err != nil {
			return SearchResult{}, err
		}
		result.Entity = detect.EntityBlock
		result.Block = &block
		result.ExplorerURL = explorerLink(match.Chain, "block", query)

	default:
		if info, err := s.AddressInfo(ctx, match.Chain.ID, query); err == nil {
			result.Entity = detect.EntityAddress
			result.Address = &info
			result.ExplorerURL = explorerLink(match.Chain, "address", query)
			break
		}

		tx, err := s.TransactionInfo(ctx, match.Chain.ID, query)
		if err != nil {
			return SearchResult{}, err
		}
		result.Entity = detect.EntityTransaction
		result.Transaction = &tx
		result.ExplorerURL = explorerLink(match.Chain, "tx", query)
	}

	return result, nil
}

// explorerLink renders the chain's explorer URL template. Templates carry
// one %s verb for a transaction hash; other entity kinds have no uniform
// path across explorers and render no link.
func explorerLink(chain chains.Descriptor, kind, id string) string {
	if chain.ExplorerURL == "" || kind != "tx" {
		return ""
	}
	return fmt.Sprintf(chain.ExplorerURL, id)
}
