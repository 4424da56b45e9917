package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/chainlens/internal/chains"
)

func testRegistry(t *testing.T) *chains.Registry {
	t.Helper()

	registry, err := chains.NewRegistry([]chains.Descriptor{
		{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", Family: chains.FamilyEVM, RPCEndpoints: []string{"https://eth.example"}},
		{ID: "polygon", Name: "Polygon", Symbol: "MATIC", Family: chains.FamilyEVM, RPCEndpoints: []string{"https://polygon.example"}},
		{ID: "bsc", Name: "BNB Chain", Symbol: "BNB", Family: chains.FamilyEVM, RPCEndpoints: []string{"https://bsc.example"}},
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Family: chains.FamilyUTXO, RPCEndpoints: []string{"https://btc.example"}},
		{ID: "solana", Name: "Solana", Symbol: "SOL", Family: chains.FamilySolana, RPCEndpoints: []string{"https://sol.example"}},
		{ID: "tron", Name: "Tron", Symbol: "TRX", Family: chains.FamilyTron, RPCEndpoints: []string{"https://tron.example"}},
	})
	require.NoError(t, err)

	return registry
}

func TestDetector_EVMAddress(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("0x" + strings.Repeat("a", 40))
	require.Len(t, matches, 3, "one match per configured EVM chain")

	seen := map[string]bool{}
	for _, m := range matches {
		assert.Equal(t, EntityAddress, m.Entity)
		assert.InDelta(t, 0.70, m.Confidence, 1e-9)
		assert.Equal(t, chains.FamilyEVM, m.Chain.Family)
		seen[m.Chain.ID] = true
	}

	assert.False(t, seen["bitcoin"] || seen["solana"] || seen["tron"],
		"non-EVM chains must not match an EVM address")
}

func TestDetector_EVMTransactionHash(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("0x" + strings.Repeat("ab", 32))
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, EntityTransaction, m.Entity)
		assert.InDelta(t, 0.70, m.Confidence, 1e-9)
	}
}

func TestDetector_Bech32Address(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	require.Len(t, matches, 1, "exactly one match, for bitcoin")
	assert.Equal(t, "bitcoin", matches[0].Chain.ID)
	assert.Equal(t, EntityAddress, matches[0].Entity)
	assert.InDelta(t, 0.95, matches[0].Confidence, 1e-9)
}

func TestDetector_LegacyBase58Address(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	require.Len(t, matches, 1)
	assert.Equal(t, "bitcoin", matches[0].Chain.ID)
	assert.InDelta(t, 0.95, matches[0].Confidence, 1e-9)
}

func TestDetector_BareHex64(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect(strings.Repeat("4a", 32))
	require.Len(t, matches, 1)
	assert.Equal(t, "bitcoin", matches[0].Chain.ID)
	assert.Equal(t, EntityTransaction, matches[0].Entity)
	assert.InDelta(t, 0.90, matches[0].Confidence, 1e-9)
}

func TestDetector_TronAddress(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t")
	require.Len(t, matches, 1)
	assert.Equal(t, "tron", matches[0].Chain.ID)
	assert.Equal(t, EntityAddress, matches[0].Entity)
	assert.InDelta(t, 0.95, matches[0].Confidence, 1e-9)
}

func TestDetector_Base58Account(t *testing.T) {
	d := New(testRegistry(t))

	// 43 base58 chars, no 0x and no UTXO prefix shape.
	matches := d.Detect("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")
	require.Len(t, matches, 1)
	assert.Equal(t, "solana", matches[0].Chain.ID)
	assert.Equal(t, EntityAddress, matches[0].Entity)
	assert.InDelta(t, 0.80, matches[0].Confidence, 1e-9)
}

func TestDetector_DecimalBlock(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("18000000")
	require.Len(t, matches, 6, "block numbers are ambiguous across every configured chain")
	for _, m := range matches {
		assert.Equal(t, EntityBlock, m.Entity)
		assert.InDelta(t, 0.30, m.Confidence, 1e-9)
	}
}

func TestDetector_Fallback(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("definitely-not-an-entity!?")
	require.Len(t, matches, 6, "the fallback tries every chain")
	for _, m := range matches {
		assert.Equal(t, EntityUnknown, m.Entity)
		assert.InDelta(t, 0.10, m.Confidence, 1e-9)
	}
}

func TestDetector_Ordering(t *testing.T) {
	d := New(testRegistry(t))

	matches := d.Detect("0x" + strings.Repeat("a", 40))
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Confidence == matches[i].Confidence {
			assert.Less(t, matches[i-1].Chain.ID, matches[i].Chain.ID,
				"ties break by chain id for deterministic output")
		} else {
			assert.Greater(t, matches[i-1].Confidence, matches[i].Confidence)
		}
	}
}

func TestDetector_Deterministic(t *testing.T) {
	d := New(testRegistry(t))

	first := d.Detect("18000000")
	second := d.Detect("18000000")
	assert.Equal(t, first, second, "detection is pure: same input, same output")
}
