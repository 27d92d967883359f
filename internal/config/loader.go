package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CORTEX_*)
// 2. Config file (.cortex/config.yml or .cortex/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".cortex")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("CORTEX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys explicitly, so the
	// documented CORTEX_* names in spec §6 are discoverable even before
	// any config value is read.
	v.BindEnv("embedding.provider")
	v.BindEnv("embedding.model")
	v.BindEnv("embedding.dimensions")
	v.BindEnv("embedding.endpoint")
	v.BindEnv("chunking.chunk_size", "CORTEX_CHUNKING_CHUNK_SIZE", "CORTEX_CHUNK_SIZE")
	v.BindEnv("chunking.chunk_min", "CORTEX_CHUNKING_CHUNK_MIN", "CORTEX_CHUNK_MIN")
	v.BindEnv("chunking.chunk_overlap", "CORTEX_CHUNKING_CHUNK_OVERLAP", "CORTEX_CHUNK_OVERLAP")
	v.BindEnv("retrieval.top_k")
	v.BindEnv("retrieval.memory_top_k", "CORTEX_RETRIEVAL_MEMORY_TOP_K", "CORTEX_MEMORY_TOP_K")
	v.BindEnv("assembly.token_budget", "CORTEX_ASSEMBLY_TOKEN_BUDGET", "CORTEX_TOKEN_BUDGET")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("embedding.provider", defaults.Embedding.Provider)
	v.SetDefault("embedding.model", defaults.Embedding.Model)
	v.SetDefault("embedding.dimensions", defaults.Embedding.Dimensions)
	v.SetDefault("embedding.endpoint", defaults.Embedding.Endpoint)

	v.SetDefault("paths.docs", defaults.Paths.Docs)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("chunking.chunk_size", defaults.Chunking.ChunkSize)
	v.SetDefault("chunking.chunk_min", defaults.Chunking.ChunkMin)
	v.SetDefault("chunking.chunk_overlap", defaults.Chunking.ChunkOverlap)

	v.SetDefault("retrieval.top_k", defaults.Retrieval.TopK)
	v.SetDefault("retrieval.memory_top_k", defaults.Retrieval.MemoryTopK)

	v.SetDefault("assembly.token_budget", defaults.Assembly.TokenBudget)
}

// LoadConfig is a convenience function that creates a loader and loads config
// using the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
