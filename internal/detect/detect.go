// Package detect guesses which chains and entity type a raw user query most
// likely refers to. Detection is pure pattern matching with fixed confidence
// bands; it never touches the network. Because EVM addresses and hashes are
// syntactically identical across every EVM chain, and block numbers across
// every chain, the detector emits one ranked match per plausible chain and
// leaves final disambiguation to speculative lookups against the top
// candidates.
package detect

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
)

// EntityType is the coarse guess of what kind of entity a query names.
type EntityType string

const (
	EntityAddress     EntityType = "address"
	EntityTransaction EntityType = "transaction"
	EntityBlock       EntityType = "block"
	EntityUnknown     EntityType = "unknown"
)

// Confidence bands per pattern. Heuristic scores, not probabilities.
const (
	confidenceUTXOAddress    = 0.95
	confidenceTronAddress    = 0.95
	confidenceUTXOTx         = 0.90
	confidenceBase58Account  = 0.80
	confidenceEVMEntity      = 0.70
	confidenceBlockNumber    = 0.30
	confidenceFallback       = 0.10
)

// Match ranks one candidate chain for a query.
type Match struct {
	Chain      chains.Descriptor
	Entity     EntityType
	Confidence float64
	Reason     string
}

var (
	reBTCLegacy     = regexp.MustCompile(`^[13][1-9A-HJ-NP-Za-km-z]{25,34}$`)
	reBTCBech32     = regexp.MustCompile(`^bc1[ac-hj-np-z02-9]{8,87}$`)
	reBareHex64     = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	reEVMAddress    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	reEVMHash       = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	reTronAddress   = regexp.MustCompile(`^T[0-9A-Za-z]{33}$`)
	reBase58Account = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	reDecimal       = regexp.MustCompile(`^[0-9]+$`)
)

// Detector produces ranked chain candidates for raw query strings.
type Detector struct {
	registry *chains.Registry
}

// New builds a Detector over the configured chain registry.
func New(registry *chains.Registry) *Detector {
	return &Detector{registry: registry}
}

// Detect evaluates the query against every pattern family and returns the
// candidate matches ranked by confidence (descending), with chain id as a
// deterministic tiebreaker. An empty query yields no matches.
func (d *Detector) Detect(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	matches := d.classify(query)

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Chain.ID < matches[j].Chain.ID
	})

	return matches
}

func (d *Detector) classify(query string) []Match {
	switch {
	case reBTCLegacy.MatchString(query), reBTCBech32.MatchString(query):
		return d.family(chains.FamilyUTXO, EntityAddress, confidenceUTXOAddress, "base58/bech32 address shape")

	case reTronAddress.MatchString(query):
		return d.family(chains.FamilyTron, EntityAddress, confidenceTronAddress, "tron T-prefixed address shape")

	case reEVMAddress.MatchString(query):
		return d.family(chains.FamilyEVM, EntityAddress, confidenceEVMEntity, "20-byte 0x address, indistinguishable across EVM chains")

	case reEVMHash.MatchString(query):
		return d.family(chains.FamilyEVM, EntityTransaction, confidenceEVMEntity, "32-byte 0x hash, indistinguishable across EVM chains")

	case reBareHex64.MatchString(query):
		return d.family(chains.FamilyUTXO, EntityTransaction, confidenceUTXOTx, "64-char hex transaction id without 0x prefix")

	case reBase58Account.MatchString(query):
		return d.family(chains.FamilySolana, EntityAddress, confidenceBase58Account, "base58 account-model address shape")

	case reDecimal.MatchString(query):
		return d.everyChain(EntityBlock, confidenceBlockNumber, "decimal block number, ambiguous across all chains")

	default:
		return d.everyChain(EntityUnknown, confidenceFallback, "no pattern matched, trying everything")
	}
}

// family emits one match per configured chain of the given family.
func (d *Detector) family(f chains.Family, entity EntityType, confidence float64, reason string) []Match {
	descriptors := d.registry.ByFamily(f)

	matches := make([]Match, 0, len(descriptors))
	for _, desc := range descriptors {
		matches = append(matches, Match{
			Chain:      desc,
			Entity:     entity,
			Confidence: confidence,
			Reason:     reason,
		})
	}
	return matches
}

// everyChain emits one match per configured chain, regardless of family.
func (d *Detector) everyChain(entity EntityType, confidence float64, reason string) []Match {
	descriptors := d.registry.All()

	matches := make([]Match, 0, len(descriptors))
	for _, desc := range descriptors {
		matches = append(matches, Match{
			Chain:      desc,
			Entity:     entity,
			Confidence: confidence,
			Reason:     reason,
		})
	}
	return matches
}
