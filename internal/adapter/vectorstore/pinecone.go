package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// DefaultControllerURL is the Pinecone control-plane endpoint.
const DefaultControllerURL = "https://api.pinecone.io"

// PineconeConfig holds the configuration for a serverless Pinecone index.
type PineconeConfig struct {
	APIKey        string
	IndexName     string
	Dimension     int
	Metric        string // e.g. cosine
	Cloud         string // e.g. aws
	Region        string // e.g. us-east-1
	ControllerURL string // empty = DefaultControllerURL
}

// PineconeIndex implements port.VectorIndex against the Pinecone REST API.
// The data-plane host is resolved once by EnsureIndex and reused for all
// queries and upserts.
type PineconeIndex struct {
	cfg        PineconeConfig
	httpClient *http.Client

	mu   sync.RWMutex
	host string
}

// NewPineconeIndex creates a Pinecone-backed vector index client.
func NewPineconeIndex(cfg PineconeConfig) *PineconeIndex {
	if cfg.ControllerURL == "" {
		cfg.ControllerURL = DefaultControllerURL
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	return &PineconeIndex{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
}

// EnsureIndex describes the index and creates it if absent. Idempotent.
func (p *PineconeIndex) EnsureIndex(ctx context.Context) error {
	desc, err := p.describeIndex(ctx)
	if err == nil {
		p.setHost(desc.Host)
		return nil
	}
	if !errors.Is(err, port.ErrIndexNotFound) {
		return fmt.Errorf("describe index: %w", err)
	}

	slog.Info("creating managed index", "index", p.cfg.IndexName, "dimension", p.cfg.Dimension, "metric", p.cfg.Metric)

	payload := map[string]any{
		"name":      p.cfg.IndexName,
		"dimension": p.cfg.Dimension,
		"metric":    p.cfg.Metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  p.cfg.Cloud,
				"region": p.cfg.Region,
			},
		},
	}
	body, err := p.do(ctx, http.MethodPost, p.cfg.ControllerURL+"/indexes", payload)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	var created indexDescription
	if err := json.Unmarshal(body, &created); err != nil {
		return fmt.Errorf("create index decode: %w", err)
	}
	p.setHost(created.Host)
	return nil
}

// Query returns the topK nearest neighbors with their stored metadata,
// in Pinecone's descending-similarity order.
func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	host, err := p.dataHost(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	body, err := p.do(ctx, http.MethodPost, host+"/query", payload)
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("pinecone query decode: %w", err)
	}

	matches := make([]domain.VectorMatch, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = domain.VectorMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	return matches, nil
}

// Upsert writes entity vectors, replacing existing ids.
func (p *PineconeIndex) Upsert(ctx context.Context, records []port.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	host, err := p.dataHost(ctx)
	if err != nil {
		return err
	}

	vectors := make([]map[string]any, len(records))
	for i, r := range records {
		vectors[i] = map[string]any{
			"id":       r.ID,
			"values":   r.Values,
			"metadata": r.Metadata,
		}
	}
	if _, err := p.do(ctx, http.MethodPost, host+"/vectors/upsert", map[string]any{"vectors": vectors}); err != nil {
		return fmt.Errorf("pinecone upsert: %w", err)
	}
	return nil
}

func (p *PineconeIndex) describeIndex(ctx context.Context) (*indexDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.ControllerURL+"/indexes/"+p.cfg.IndexName, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, port.ErrIndexNotFound
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pinecone API error (%d): %s", resp.StatusCode, string(body))
	}

	var desc indexDescription
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, fmt.Errorf("describe decode: %w", err)
	}
	return &desc, nil
}

// dataHost returns the resolved data-plane base URL, resolving it on
// first use if EnsureIndex has not run yet.
func (p *PineconeIndex) dataHost(ctx context.Context) (string, error) {
	p.mu.RLock()
	host := p.host
	p.mu.RUnlock()
	if host != "" {
		return host, nil
	}

	desc, err := p.describeIndex(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve index host: %w", err)
	}
	p.setHost(desc.Host)

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.host, nil
}

func (p *PineconeIndex) setHost(host string) {
	if host != "" && !strings.Contains(host, "://") {
		host = "https://" + host
	}
	p.mu.Lock()
	p.host = host
	p.mu.Unlock()
}

// do is a helper for JSON requests against the Pinecone API.
func (p *PineconeIndex) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("pinecone API error (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
