package chains

import (
	"fmt"
	"os"
	"time"

	"github.com/gabapcia/chainlens/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Settings carries the runtime configuration loaded from the environment.
// Chain descriptors live in the chains file (or the built-in defaults); keys
// and operational knobs live here.
type Settings struct {
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr   string `envconfig:"HTTP_ADDR" default:":8080"`
	ChainsFile string `envconfig:"CHAINS_FILE"`

	// APIKeys maps chain id to the credential for its keyed API, e.g.
	// CHAINLENS_API_KEYS="ethereum:ABC123,bsc:DEF456". Presence is probed,
	// never assumed.
	APIKeys map[string]string `envconfig:"API_KEYS"`

	// SpeculativeFanout caps how many ranked chain candidates a single
	// ambiguous query is issued against in parallel.
	SpeculativeFanout int `envconfig:"SPECULATIVE_FANOUT" default:"5"`

	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	CacheSize int           `envconfig:"CACHE_SIZE" default:"4096"`

	// RedisAddr switches the entity cache from in-process LRU to a shared
	// Redis instance when set. Failover state is never stored there.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	TelemetryEnabled bool `envconfig:"TELEMETRY_ENABLED" default:"false"`
}

// LoadSettings reads Settings from CHAINLENS_* environment variables.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("chainlens", &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// chainsFile mirrors the YAML layout of a chains configuration file.
type chainsFile struct {
	Chains []Descriptor `yaml:"chains"`
}

// LoadFile reads and validates a chain table from a YAML file.
func LoadFile(path string) ([]Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chains file: %w", err)
	}

	var file chainsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing chains file: %w", err)
	}

	if len(file.Chains) == 0 {
		return nil, fmt.Errorf("chains file %q declares no chains", path)
	}

	for _, d := range file.Chains {
		if err := validator.Validate(d); err != nil {
			return nil, fmt.Errorf("chain %q: %w", d.ID, err)
		}
	}

	return file.Chains, nil
}

// Load builds a Registry from the file at path, or from the built-in
// defaults when path is empty.
func Load(path string) (*Registry, error) {
	descriptors := Defaults()
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		descriptors = loaded
	}

	return NewRegistry(descriptors)
}
