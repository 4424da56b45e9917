package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDescriptors() []Descriptor {
	return []Descriptor{
		{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", Family: FamilyEVM, RPCEndpoints: []string{"https://eth.example"}},
		{ID: "polygon", Name: "Polygon", Symbol: "MATIC", Family: FamilyEVM, RPCEndpoints: []string{"https://polygon.example"}},
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Family: FamilyUTXO, RPCEndpoints: []string{"https://btc.example"}},
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("builds from a descriptor list", func(t *testing.T) {
		registry, err := NewRegistry(sampleDescriptors())
		require.NoError(t, err)
		assert.Len(t, registry.All(), 3)
	})

	t.Run("rejects duplicate chain ids", func(t *testing.T) {
		descriptors := sampleDescriptors()
		descriptors = append(descriptors, descriptors[0])

		_, err := NewRegistry(descriptors)
		assert.Error(t, err)
	})
}

func TestRegistry_Get(t *testing.T) {
	registry, err := NewRegistry(sampleDescriptors())
	require.NoError(t, err)

	t.Run("returns a configured chain", func(t *testing.T) {
		desc, err := registry.Get("bitcoin")
		require.NoError(t, err)
		assert.Equal(t, "BTC", desc.Symbol)
	})

	t.Run("unknown id fails with ErrUnconfiguredChain", func(t *testing.T) {
		_, err := registry.Get("dogecoin")
		assert.ErrorIs(t, err, ErrUnconfiguredChain)
	})
}

func TestRegistry_ByFamily(t *testing.T) {
	registry, err := NewRegistry(sampleDescriptors())
	require.NoError(t, err)

	evm := registry.ByFamily(FamilyEVM)
	require.Len(t, evm, 2)
	for _, desc := range evm {
		assert.Equal(t, FamilyEVM, desc.Family)
	}

	assert.Empty(t, registry.ByFamily(FamilySolana))
}

func TestRegistry_AllPreservesOrder(t *testing.T) {
	registry, err := NewRegistry(sampleDescriptors())
	require.NoError(t, err)

	first := registry.All()
	second := registry.All()
	assert.Equal(t, first, second)
	assert.Equal(t, "ethereum", first[0].ID)
}

func TestDescriptor_HasAPI(t *testing.T) {
	desc := Descriptor{ID: "x"}
	assert.False(t, desc.HasAPI())

	desc.API = &KeyedAPI{BaseURL: "https://api.example"}
	assert.True(t, desc.HasAPI())

	desc.API = &KeyedAPI{}
	assert.False(t, desc.HasAPI(), "a keyed API without a base URL is unusable")
}

func TestDefaults(t *testing.T) {
	registry, err := NewRegistry(Defaults())
	require.NoError(t, err, "built-in defaults must form a valid registry")

	for _, desc := range registry.All() {
		assert.NotEmpty(t, desc.RPCEndpoints, "chain %s must have a non-empty pool", desc.ID)
		assert.NotEmpty(t, desc.Family, "chain %s must declare a family", desc.ID)
	}

	eth, err := registry.Get("ethereum")
	require.NoError(t, err)
	assert.True(t, eth.HasAPI(), "ethereum ships with an etherscan-style API descriptor")
	assert.True(t, eth.API.RequiresKey)
}
