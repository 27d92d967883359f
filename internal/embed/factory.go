package embed

import "fmt"

// Config contains configuration for creating an embedding provider.
type Config struct {
	// Provider selects the provider implementation ("http", "mock").
	Provider string

	// Endpoint is the base URL of the embedding service (for the http provider).
	Endpoint string

	// Dimensions is the expected vector dimensionality.
	Dimensions int

	// Model names the embedding model the external service is expected to run.
	// Cortex never loads this model itself; the name is passed through for
	// operators to verify the server is configured correctly.
	Model string
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "http", "": // empty defaults to http
		return newHTTPProvider(config.Endpoint, config.Dimensions)

	case "mock": // for testing
		return newMockProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: http, mock)", config.Provider)
	}
}
