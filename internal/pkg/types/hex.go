package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Hex represents a hexadecimal-encoded quantity as a string (e.g., "0x1a"),
// the wire format EVM-family nodes use for numbers. It provides validation,
// JSON marshaling/unmarshaling, and conversions to uint64 and big.Int.
type Hex string

// HexFromString validates the input string and returns a Hex value if valid.
func HexFromString(s string) (Hex, error) {
	if err := validateHex(s); err != nil {
		return "", err
	}
	return Hex(s), nil
}

// HexFromUint64 encodes n as a Hex quantity.
func HexFromUint64(n uint64) Hex {
	return Hex(fmt.Sprintf("0x%x", n))
}

// validateHex checks whether a string is a hexadecimal number with a "0x" or
// "0X" prefix. Values wider than 64 bits (token amounts, wei balances) are
// still valid; only the digits themselves are checked.
func validateHex(s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex string must start with 0x")
	}

	if _, ok := new(big.Int).SetString(s[2:], 16); !ok {
		return fmt.Errorf("invalid hexadecimal value: %q", s)
	}

	return nil
}

// MarshalJSON encodes the Hex as a JSON string.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON parses and validates a JSON-encoded hexadecimal string.
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}

	if err := validateHex(s); err != nil {
		return err
	}

	*h = Hex(s)
	return nil
}

// Uint64 returns the decoded uint64 value of the hexadecimal string.
// If parsing fails or the value overflows, it returns zero.
func (h Hex) Uint64() uint64 {
	if len(h) < 3 {
		return 0
	}
	v, _ := strconv.ParseUint(string(h)[2:], 16, 64)
	return v
}

// Big returns the decoded value as a big.Int. If parsing fails, it returns
// zero. Use this for quantities that may exceed 64 bits, such as wei amounts.
func (h Hex) Big() *big.Int {
	v := new(big.Int)
	if len(h) < 3 {
		return v
	}
	if _, ok := v.SetString(string(h)[2:], 16); !ok {
		return new(big.Int)
	}
	return v
}

// Add returns a new Hex representing the current value plus n. An invalid
// original value is treated as zero.
func (h Hex) Add(n uint64) Hex {
	return HexFromUint64(h.Uint64() + n)
}
