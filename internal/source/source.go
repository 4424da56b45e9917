// Package source implements the data-source resolution layer: for every read
// operation it decides between a chain's keyed API and its public RPC pool,
// applying the same three-tier fallback regardless of chain or operation.
// Adding a chain family means implementing a pair of adapters, never new
// control flow here.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/normalize"
)

var (
	// ErrSourceExhausted means both the keyed-API and RPC paths failed for
	// one call. Recoverable by caller retry or backoff; the last underlying
	// error is preserved in the chain.
	ErrSourceExhausted = errors.New("all data sources exhausted")

	// ErrEntityNotFound means an upstream responded but the entity does not
	// exist. Terminal: the policy does not fall through to another tier.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidCredential means a keyed API explicitly rejected the key.
	// Surfaced distinctly so callers can prompt for reconfiguration instead
	// of silently falling back forever.
	ErrInvalidCredential = errors.New("api key rejected")

	// ErrUnsupportedOperation means the chain family has no adapter for the
	// requested operation (e.g. token introspection outside the EVM family).
	ErrUnsupportedOperation = errors.New("operation not supported for chain family")

	// ErrNoKeyedAPI means the chain has no keyed API configured, so there is
	// no credential to validate.
	ErrNoKeyedAPI = errors.New("no keyed api configured for chain")
)

// Per-call deadlines. REST-style upstreams get more headroom because several
// of their operations are multi-hop (e.g. account plus recent activity).
const (
	rpcCallTimeout  = 10 * time.Second
	restCallTimeout = 15 * time.Second
)

// Reader is the RPC-native read surface one chain family implements. The
// endpoint is passed per call because the policy rotates through pools.
type Reader interface {
	// Height returns the current chain height (or slot/checkpoint). It
	// doubles as the endpoint liveness probe.
	Height(ctx context.Context, chain chains.Descriptor, endpoint string) (uint64, error)

	// AddressInfo returns the normalized view of an address.
	AddressInfo(ctx context.Context, chain chains.Descriptor, endpoint, address string) (normalize.AddressInfo, error)

	// Transaction returns the normalized view of a transaction by hash.
	Transaction(ctx context.Context, chain chains.Descriptor, endpoint, hash string) (normalize.Transaction, error)

	// Block returns the normalized view of a block by native number.
	Block(ctx context.Context, chain chains.Descriptor, endpoint string, number uint64) (normalize.Block, error)

	// LatestTransactions returns up to limit recently confirmed
	// transactions, newest first.
	LatestTransactions(ctx context.Context, chain chains.Descriptor, endpoint string, limit int) ([]normalize.Transaction, error)

	// TokenInfo returns normalized token metadata for a contract address.
	// Families without token introspection return ErrUnsupportedOperation.
	TokenInfo(ctx context.Context, chain chains.Descriptor, endpoint, contract string) (normalize.TokenInfo, error)
}

// API is the keyed scan-style surface a chain family may additionally offer.
// Implementations must translate explicit key rejections into
// ErrInvalidCredential and missing entities into ErrEntityNotFound.
type API interface {
	// AddressInfo returns the richer keyed-API view of an address,
	// including recent transactions and token transfers.
	AddressInfo(ctx context.Context, chain chains.Descriptor, key, address string) (normalize.AddressInfo, error)

	// Transaction returns the normalized view of a transaction by hash.
	Transaction(ctx context.Context, chain chains.Descriptor, key, hash string) (normalize.Transaction, error)

	// Block returns the normalized view of a block by number.
	Block(ctx context.Context, chain chains.Descriptor, key string, number uint64) (normalize.Block, error)

	// TokenInfo returns normalized token metadata.
	TokenInfo(ctx context.Context, chain chains.Descriptor, key, contract string) (normalize.TokenInfo, error)

	// ValidateKey performs a cheap authenticated call and reports whether
	// the credential is accepted.
	ValidateKey(ctx context.Context, chain chains.Descriptor, key string) error
}

const (
	// defaultSampleWindow is the block-walk window for chains whose tuning
	// does not report a typical block fill.
	defaultSampleWindow = 5

	// maxSampleWindow caps the walk so sparse chains cannot turn one
	// transaction sample into an unbounded block scan.
	maxSampleWindow = 50
)

// SampleWindow derives how many recent blocks a reader should walk to
// collect a sample of limit transactions, based on the chain's typical
// block fill.
func SampleWindow(chain chains.Descriptor, limit int) int {
	window := defaultSampleWindow
	if tpb := chain.Tuning.TxPerBlock; tpb > 0 && limit > 0 {
		window = (limit + tpb - 1) / tpb
	}
	if window > maxSampleWindow {
		window = maxSampleWindow
	}
	return window
}
