package config

// Config represents the complete cortex configuration.
// It can be loaded from .cortex/config.yml with environment variable overrides.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Assembly  AssemblyConfig  `yaml:"assembly" mapstructure:"assembly"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`     // "http" or "mock"
	Model      string `yaml:"model" mapstructure:"model"`           // e.g., "intfloat/e5-small-v2"
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"` // embedding vector dimensions
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`     // e.g., "http://localhost:8121"
}

// PathsConfig defines which documentation files to chunk and which to ignore.
type PathsConfig struct {
	Docs   []string `yaml:"docs" mapstructure:"docs"`     // glob patterns for documentation files
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore during bulk chunking
}

// ChunkingConfig defines how markdown documents are segmented.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size" mapstructure:"chunk_size"`       // target tokens per chunk
	ChunkMin     int `yaml:"chunk_min" mapstructure:"chunk_min"`         // minimum tokens to keep a chunk
	ChunkOverlap int `yaml:"chunk_overlap" mapstructure:"chunk_overlap"` // token overlap between sequential chunks
}

// RetrievalConfig defines default retrieval behavior. Score weights are
// fixed by the spec and intentionally not configurable.
type RetrievalConfig struct {
	TopK       int `yaml:"top_k" mapstructure:"top_k"`
	MemoryTopK int `yaml:"memory_top_k" mapstructure:"memory_top_k"`
}

// AssemblyConfig defines the default token budget for context assembly.
type AssemblyConfig struct {
	TokenBudget int `yaml:"token_budget" mapstructure:"token_budget"`
}

// Default returns a configuration with sensible defaults, matching the
// original implementation's constants.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   "http",
			Model:      "intfloat/e5-small-v2",
			Dimensions: 384,
			Endpoint:   "http://localhost:8121",
		},
		Paths: PathsConfig{
			Docs: []string{
				"**/*.md",
			},
			Ignore: []string{
				"node_modules/**",
				".git/**",
				"dist/**",
				"build/**",
				".cortex/**",
			},
		},
		Chunking: ChunkingConfig{
			ChunkSize:    500,
			ChunkMin:     50,
			ChunkOverlap: 50,
		},
		Retrieval: RetrievalConfig{
			TopK:       10,
			MemoryTopK: 5,
		},
		Assembly: AssemblyConfig{
			TokenBudget: 15000,
		},
	}
}
