// Package prediction serves the price and timeline capabilities from HTTP model services.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/drugqa/internal/usecase/adapter"
)

const (
	defaultTimeout     = 20 * time.Second
	defaultMaxEvidence = 5
	maxErrorBody       = 512
)

// Config describes one prediction service.
type Config struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	MaxEvidence int
	HTTPClient  *http.Client
}

// HTTPAdapter posts the query to a prediction service and returns its JSON object.
type HTTPAdapter struct {
	cfg    Config
	client *http.Client
}

// NewHTTPAdapter creates an adapter for the service at cfg.URL.
func NewHTTPAdapter(cfg Config) (*HTTPAdapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("prediction service url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = defaultMaxEvidence
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPAdapter{cfg: cfg, client: client}, nil
}

type evidence struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score"`
}

type requestBody struct {
	Query    string     `json:"query"`
	DrugID   string     `json:"drug_id,omitempty"`
	Evidence []evidence `json:"evidence,omitempty"`
}

// Invoke returns the decoded response object as map[string]any.
func (a *HTTPAdapter) Invoke(ctx context.Context, query string, actx adapter.Context) (any, error) {
	body := requestBody{Query: query, DrugID: actx.DrugID}
	for _, r := range actx.Retrieval {
		if len(body.Evidence) == a.cfg.MaxEvidence {
			break
		}
		body.Evidence = append(body.Evidence, evidence{Text: r.Text, Source: r.Source, Score: r.Score})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call prediction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("prediction service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode prediction response: %w", err)
	}
	if out == nil {
		return nil, errors.New("prediction service returned null")
	}
	return out, nil
}
