package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProvider indicates an unsupported embedding provider.
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidDimensions indicates invalid embedding dimensions.
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidChunkSize indicates invalid chunk size configuration.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkMin indicates invalid chunk minimum configuration.
	ErrInvalidChunkMin = errors.New("invalid chunk minimum")

	// ErrInvalidOverlap indicates invalid overlap configuration.
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrEmptyEndpoint indicates a missing embedding endpoint.
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")

	// ErrEmptyModel indicates a missing embedding model.
	ErrEmptyModel = errors.New("empty embedding model")

	// ErrInvalidTopK indicates a non-positive retrieval top-k.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidBudget indicates a non-positive token budget.
	ErrInvalidBudget = errors.New("invalid token budget")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}
	if err := validateRetrieval(&cfg.Retrieval); err != nil {
		errs = append(errs, err)
	}
	if err := validateAssembly(&cfg.Assembly); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != "http" && provider != "mock" {
		errs = append(errs, fmt.Errorf("%w: must be 'http' or 'mock', got '%s'", ErrInvalidProvider, cfg.Provider))
	}

	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
	}

	if cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}

	if provider == "http" && strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required for the http provider", ErrEmptyEndpoint))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateChunking(cfg *ChunkingConfig) error {
	var errs []error

	if cfg.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunkSize, cfg.ChunkSize))
	}

	if cfg.ChunkMin < 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_min cannot be negative, got %d", ErrInvalidChunkMin, cfg.ChunkMin))
	}

	if cfg.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_overlap cannot be negative, got %d", ErrInvalidOverlap, cfg.ChunkOverlap))
	}

	if cfg.ChunkSize > 0 && cfg.ChunkMin >= cfg.ChunkSize {
		errs = append(errs, fmt.Errorf("%w: chunk_min (%d) must be less than chunk_size (%d)", ErrInvalidChunkMin, cfg.ChunkMin, cfg.ChunkSize))
	}

	if cfg.ChunkSize > 0 && cfg.ChunkOverlap >= cfg.ChunkSize {
		errs = append(errs, fmt.Errorf("%w: chunk_overlap (%d) should be less than chunk_size (%d)", ErrInvalidOverlap, cfg.ChunkOverlap, cfg.ChunkSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateRetrieval(cfg *RetrievalConfig) error {
	var errs []error

	if cfg.TopK <= 0 {
		errs = append(errs, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidTopK, cfg.TopK))
	}
	if cfg.MemoryTopK <= 0 {
		errs = append(errs, fmt.Errorf("%w: memory_top_k must be positive, got %d", ErrInvalidTopK, cfg.MemoryTopK))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateAssembly(cfg *AssemblyConfig) error {
	if cfg.TokenBudget <= 0 {
		return fmt.Errorf("%w: token_budget must be positive, got %d", ErrInvalidBudget, cfg.TokenBudget)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
