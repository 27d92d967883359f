package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpProvider talks to an externally managed embedding server over HTTP.
// Cortex never loads or manages the embedding model itself; the server is
// someone else's process, reachable at a configured endpoint.
type httpProvider struct {
	endpoint   string
	dimensions int
	client     *http.Client
}

// newHTTPProvider creates a provider backed by an HTTP embedding service.
func newHTTPProvider(endpoint string, dimensions int) (*httpProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("embed: http provider requires a non-empty endpoint")
	}
	if dimensions <= 0 {
		dimensions = 384
	}
	return &httpProvider{
		endpoint:   endpoint,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// embedRequest represents the JSON request body for the /embed endpoint.
// Texts are sent already prefixed (query: / passage: ) per the e5 convention.
type embedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
}

// embedResponse represents the JSON response from the /embed endpoint.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func modePrefix(mode EmbedMode) string {
	switch mode {
	case EmbedModeQuery:
		return "query: "
	case EmbedModePassage:
		return "passage: "
	default:
		return ""
	}
}

// Embed converts a slice of text strings into their vector representations.
func (p *httpProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	prefix := modePrefix(mode)
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = prefix + t
	}

	reqBody := embedRequest{Texts: prefixed, Mode: string(mode)}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := p.endpoint + "/embed"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return embedResp.Embeddings, nil
}

// Dimensions returns the dimensionality of the embeddings this provider produces.
func (p *httpProvider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op: the server's lifecycle belongs to whoever started it.
func (p *httpProvider) Close() error {
	return nil
}
