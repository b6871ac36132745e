package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tbracken/newsgraph/internal/models"
)

const voyageAPI = "https://api.voyageai.com/v1/embeddings"

// VoyageProvider generates embeddings via the Voyage AI REST API
type VoyageProvider struct {
	apiKey string
	model  string
	client *http.Client
}

// NewVoyageProvider creates a Voyage AI embedding provider. The API key
// is read from the VOYAGE_API_KEY environment variable.
func NewVoyageProvider(model string) (*VoyageProvider, error) {
	apiKey := os.Getenv("VOYAGE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("VOYAGE_API_KEY environment variable not set")
	}
	if model == "" {
		model = "voyage-3-lite"
	}

	return &VoyageProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Embed generates an embedding vector for the given text
func (p *VoyageProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// EmbedBatch generates embeddings for multiple texts in one request
func (p *VoyageProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	jsonBody, err := json.Marshal(embeddingRequest{Input: texts, Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, voyageAPI, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, models.NewExternalServiceError("embedding", true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewExternalServiceError("embedding", true, err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, models.NewExternalServiceError("embedding", retryable,
			fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body)))
	}

	var apiResp embeddingResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, models.NewExternalServiceError("embedding", false,
			fmt.Errorf("unmarshal response: %w", err))
	}
	if len(apiResp.Data) != len(texts) {
		return nil, models.NewExternalServiceError("embedding", false,
			fmt.Errorf("expected %d vectors, got %d", len(texts), len(apiResp.Data)))
	}

	vectors := make([][]float64, len(texts))
	for _, item := range apiResp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, models.NewExternalServiceError("embedding", false,
				fmt.Errorf("vector index %d out of range", item.Index))
		}
		vectors[item.Index] = Normalize(item.Embedding)
	}
	return vectors, nil
}
