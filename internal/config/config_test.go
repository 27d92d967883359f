package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .cortex/config.yml when present
// - LoadConfig() merges config file with defaults
// - Environment variables override config file values
// - Environment variables override defaults when no config file exists
// - LoadConfig() returns error for malformed YAML
// - LoadConfig() returns error for invalid configuration values
// - Validate() accepts valid configuration
// - Validate() rejects invalid provider / bad dimensions / empty model / empty endpoint
// - Validate() rejects bad chunk_min/chunk_size/chunk_overlap relationships
// - Validate() rejects non-positive top_k/memory_top_k/token_budget
// - Validate() returns multiple errors for multiple invalid fields

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "http", cfg.Embedding.Provider)
	assert.Equal(t, "intfloat/e5-small-v2", cfg.Embedding.Model)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.NotEmpty(t, cfg.Embedding.Endpoint)

	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.ChunkMin)
	assert.Equal(t, 50, cfg.Chunking.ChunkOverlap)

	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 5, cfg.Retrieval.MemoryTopK)

	assert.Equal(t, 15000, cfg.Assembly.TokenBudget)

	assert.NotEmpty(t, cfg.Paths.Docs)
	assert.NotEmpty(t, cfg.Paths.Ignore)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	expected := Default()
	assert.Equal(t, expected.Embedding.Provider, cfg.Embedding.Provider)
	assert.Equal(t, expected.Chunking.ChunkSize, cfg.Chunking.ChunkSize)
	assert.Equal(t, expected.Assembly.TokenBudget, cfg.Assembly.TokenBudget)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cortexDir := filepath.Join(tempDir, ".cortex")
	require.NoError(t, os.MkdirAll(cortexDir, 0755))

	configContent := `
embedding:
  provider: mock
  model: test-model
  dimensions: 128
  endpoint: ""

chunking:
  chunk_size: 1000
  chunk_min: 100
  chunk_overlap: 200

retrieval:
  top_k: 20
  memory_top_k: 8

assembly:
  token_budget: 8000
`
	configPath := filepath.Join(cortexDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, "test-model", cfg.Embedding.Model)
	assert.Equal(t, 128, cfg.Embedding.Dimensions)

	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 100, cfg.Chunking.ChunkMin)
	assert.Equal(t, 200, cfg.Chunking.ChunkOverlap)

	assert.Equal(t, 20, cfg.Retrieval.TopK)
	assert.Equal(t, 8, cfg.Retrieval.MemoryTopK)

	assert.Equal(t, 8000, cfg.Assembly.TokenBudget)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cortexDir := filepath.Join(tempDir, ".cortex")
	require.NoError(t, os.MkdirAll(cortexDir, 0755))

	configContent := `
embedding:
  provider: mock
  model: custom-model
  dimensions: 384
  endpoint: ""
`
	configPath := filepath.Join(cortexDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, "custom-model", cfg.Embedding.Model)

	// Non-overridden sections should come from defaults.
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 15000, cfg.Assembly.TokenBudget)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: cannot use t.Parallel() with t.Setenv().
	tempDir := t.TempDir()
	cortexDir := filepath.Join(tempDir, ".cortex")
	require.NoError(t, os.MkdirAll(cortexDir, 0755))

	configContent := `
embedding:
  provider: mock
  model: file-model
  dimensions: 384
  endpoint: ""
`
	configPath := filepath.Join(cortexDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	t.Setenv("CORTEX_EMBEDDING_MODEL", "env-model")
	t.Setenv("CORTEX_CHUNKING_CHUNK_SIZE", "1200")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.Embedding.Model)
	assert.Equal(t, 1200, cfg.Chunking.ChunkSize)
	// Not overridden, should come from the config file.
	assert.Equal(t, "mock", cfg.Embedding.Provider)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: cannot use t.Parallel() with t.Setenv().
	tempDir := t.TempDir()

	t.Setenv("CORTEX_RETRIEVAL_TOP_K", "25")
	t.Setenv("CORTEX_ASSEMBLY_TOKEN_BUDGET", "20000")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Retrieval.TopK)
	assert.Equal(t, 20000, cfg.Assembly.TokenBudget)
	// Non-overridden values should be defaults.
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cortexDir := filepath.Join(tempDir, ".cortex")
	require.NoError(t, os.MkdirAll(cortexDir, 0755))

	malformed := "embedding:\n  provider: mock\n  model: \"unclosed\n"
	configPath := filepath.Join(cortexDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(malformed), 0644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cortexDir := filepath.Join(tempDir, ".cortex")
	require.NoError(t, os.MkdirAll(cortexDir, 0755))

	invalid := `
embedding:
  provider: invalid-provider
  model: test-model
  dimensions: -10
  endpoint: ""
`
	configPath := filepath.Join(cortexDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(invalid), 0644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestValidate_AcceptsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, Validate(cfg))
}

func TestValidate_RejectsInvalidProvider(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Embedding.Provider = "unsupported"

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidProvider)
}

func TestValidate_RejectsNonPositiveDimensions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Embedding.Dimensions = 0

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestValidate_RejectsEmptyModel(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Embedding.Model = ""

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestValidate_RejectsEmptyEndpointForHTTPProvider(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Embedding.Provider = "http"
	cfg.Embedding.Endpoint = ""

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestValidate_RejectsChunkMinGreaterThanOrEqualChunkSize(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Chunking.ChunkMin = cfg.Chunking.ChunkSize

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidChunkMin)
}

func TestValidate_RejectsNegativeOverlap(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Chunking.ChunkOverlap = -1

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestValidate_RejectsOverlapGreaterThanChunkSize(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Chunking.ChunkOverlap = cfg.Chunking.ChunkSize + 1

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestValidate_RejectsNonPositiveTopK(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Retrieval.TopK = 0

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestValidate_RejectsNonPositiveTokenBudget(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Assembly.TokenBudget = 0

	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Embedding: EmbeddingConfig{Provider: "invalid", Model: "", Dimensions: -1, Endpoint: ""},
		Chunking:  ChunkingConfig{ChunkSize: -100, ChunkMin: 0, ChunkOverlap: -50},
		Retrieval: RetrievalConfig{TopK: 0, MemoryTopK: 0},
		Assembly:  AssemblyConfig{TokenBudget: 0},
	}

	err := Validate(cfg)
	require.Error(t, err)

	errMsg := err.Error()
	assert.Contains(t, errMsg, "provider")
	assert.Contains(t, errMsg, "model")
	assert.Contains(t, errMsg, "dimensions")
	assert.Contains(t, errMsg, "chunk size")
	assert.Contains(t, errMsg, "top-k")
	assert.Contains(t, errMsg, "token budget")
}
