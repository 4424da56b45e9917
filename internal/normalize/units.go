package normalize

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/pkg/types"
)

// divisors maps each chain family to the factor between its smallest on-wire
// unit and one native unit. Getting one of these wrong is the highest-risk
// bug class in this package, which is why the table is the single place the
// numbers exist and each entry is covered by a unit test.
var divisors = map[chains.Family]float64{
	chains.FamilyEVM:    1e18, // wei -> ETH
	chains.FamilyUTXO:   1e8,  // satoshi -> BTC
	chains.FamilySolana: 1e9,  // lamport -> SOL
	chains.FamilyTron:   1e6,  // sun -> TRX
	chains.FamilyAptos:  1e8,  // octa -> APT
	chains.FamilySui:    1e9,  // mist -> SUI
	chains.FamilyCosmos: 1e6,  // uatom -> ATOM
	chains.FamilyNEAR:   1e24, // yocto -> NEAR
}

// gweiDivisor converts wei to Gwei, the conventional EVM gas price unit.
const gweiDivisor = 1e9

// Divisor returns the native-unit divisor for the family. Unknown families
// yield 1, leaving raw values untouched rather than corrupting them.
func Divisor(f chains.Family) float64 {
	if d, ok := divisors[f]; ok {
		return d
	}
	return 1
}

// toNative divides a raw big-integer amount by the family divisor and
// returns the value in native units. The result is always finite.
func toNative(f chains.Family, raw *big.Int) float64 {
	if raw == nil {
		return 0
	}

	quo, _ := new(big.Float).Quo(
		new(big.Float).SetInt(raw),
		big.NewFloat(Divisor(f)),
	).Float64()

	if math.IsNaN(quo) || math.IsInf(quo, 0) {
		return 0
	}
	return quo
}

// NativeAmount parses a base-10 integer amount (the REST-style wire format)
// and converts it to native units. Malformed input yields 0. Negative signs
// are honored, so balance-change deltas convert correctly.
func NativeAmount(f chains.Family, s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0
	}
	return toNative(f, v)
}

// hexToNative converts a 0x-prefixed quantity (the JSON-RPC wire format) to
// native units.
func hexToNative(f chains.Family, h types.Hex) float64 {
	return toNative(f, h.Big())
}

// parseUint parses a base-10 unsigned integer string, the number encoding of
// REST-style upstreams. Malformed input yields 0.
func parseUint(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}

// GweiAmount converts a base-10 wei amount string (the scan-API wire format)
// to Gwei. Malformed input yields 0.
func GweiAmount(s string) float64 {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return 0
	}

	quo, _ := new(big.Float).Quo(
		new(big.Float).SetInt(v),
		big.NewFloat(gweiDivisor),
	).Float64()

	if math.IsNaN(quo) || math.IsInf(quo, 0) {
		return 0
	}
	return quo
}

// weiToGwei converts a 0x-prefixed wei quantity to Gwei.
func weiToGwei(h types.Hex) float64 {
	quo, _ := new(big.Float).Quo(
		new(big.Float).SetInt(h.Big()),
		big.NewFloat(gweiDivisor),
	).Float64()

	if math.IsNaN(quo) || math.IsInf(quo, 0) {
		return 0
	}
	return quo
}
