package chains

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChainsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("parses a valid chains file", func(t *testing.T) {
		path := writeChainsFile(t, `
chains:
  - id: ethereum
    name: Ethereum
    symbol: ETH
    family: evm
    rpc_endpoints:
      - https://eth.llamarpc.com
    api:
      base_url: https://api.etherscan.io/api
      requires_key: true
    tuning:
      large_tx_threshold: 10
      avg_block_time: 12s
      tx_per_block: 150
      sample_size: 5
`)

		descriptors, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, descriptors, 1)

		eth := descriptors[0]
		assert.Equal(t, "ethereum", eth.ID)
		assert.Equal(t, FamilyEVM, eth.Family)
		assert.True(t, eth.HasAPI())
		assert.Equal(t, 150, eth.Tuning.TxPerBlock)
	})

	t.Run("rejects an empty chain list", func(t *testing.T) {
		path := writeChainsFile(t, "chains: []\n")

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("rejects a descriptor without endpoints", func(t *testing.T) {
		path := writeChainsFile(t, `
chains:
  - id: broken
    name: Broken
    symbol: BRK
    family: evm
    rpc_endpoints: []
`)

		_, err := LoadFile(path)
		assert.Error(t, err, "an empty pool is a configuration error, not a runtime fallback")
	})

	t.Run("rejects an unknown family", func(t *testing.T) {
		path := writeChainsFile(t, `
chains:
  - id: weird
    name: Weird
    symbol: WRD
    family: quantum
    rpc_endpoints:
      - https://weird.example
`)

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("empty path falls back to the built-in defaults", func(t *testing.T) {
		registry, err := Load("")
		require.NoError(t, err)
		assert.NotEmpty(t, registry.All())
	})

	t.Run("file path overrides the defaults", func(t *testing.T) {
		path := writeChainsFile(t, `
chains:
  - id: onlychain
    name: Only Chain
    symbol: ONE
    family: evm
    rpc_endpoints:
      - https://only.example
`)

		registry, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, registry.All(), 1)
	})
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("CHAINLENS_LOG_LEVEL", "debug")
	t.Setenv("CHAINLENS_API_KEYS", "ethereum:ABC123,bsc:DEF456")
	t.Setenv("CHAINLENS_SPECULATIVE_FANOUT", "3")

	settings, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, "ABC123", settings.APIKeys["ethereum"])
	assert.Equal(t, "DEF456", settings.APIKeys["bsc"])
	assert.Equal(t, 3, settings.SpeculativeFanout)
	assert.Equal(t, ":8080", settings.HTTPAddr, "defaults apply to unset variables")
}
