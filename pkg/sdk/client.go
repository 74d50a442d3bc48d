package drugqa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 2 * time.Minute
	defaultUserAgent = "drugqa-go"
	maxErrorBody     = 4 << 10
)

// Client is the drugqa API entry point. It is safe for concurrent use.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
	obs       *observer
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("drugqa: invalid base url %q", baseURL)
	}

	cfg := &clientConfig{timeout: defaultTimeout, userAgent: defaultUserAgent}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    cfg.apiKey,
		userAgent: cfg.userAgent,
		http:      hc,
		obs:       obs,
	}, nil
}

// Ask answers one question.
func (c *Client) Ask(ctx context.Context, req AskRequest) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	if strings.TrimSpace(req.Query) == "" {
		return Answer{}, fmt.Errorf("drugqa: query is empty: %w", ErrInvalidRequest)
	}
	err = c.do(ctx, http.MethodPost, "/v1/ask", req, &ans)
	return ans, err
}

// Ingest chunks, embeds and indexes docs into a tenant. Either every
// chunk is written or none is.
func (c *Client) Ingest(ctx context.Context, tenant string, docs ...Document) (res IngestResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	if len(docs) == 0 {
		return IngestResult{}, fmt.Errorf("drugqa: no documents: %w", ErrInvalidRequest)
	}
	err = c.do(ctx, http.MethodPost, tenantPath(tenant, "documents"), ingestRequest{Documents: docs}, &res)
	return res, err
}

// DeleteDrug removes every chunk of a drug. It reports whether anything matched.
func (c *Client) DeleteDrug(ctx context.Context, tenant, drugID string) (deleted bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_drug", start, err) }()

	var resp deleteResponse
	err = c.do(ctx, http.MethodDelete, tenantPath(tenant, "drugs", drugID), nil, &resp)
	return resp.Deleted, err
}

// DeleteFile removes every chunk extracted from a file.
func (c *Client) DeleteFile(ctx context.Context, tenant, fileID string) (deleted bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_file", start, err) }()

	var resp deleteResponse
	err = c.do(ctx, http.MethodDelete, tenantPath(tenant, "files", fileID), nil, &resp)
	return resp.Deleted, err
}

// Stats describes a tenant index.
func (c *Client) Stats(ctx context.Context, tenant string) (st Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	err = c.do(ctx, http.MethodGet, tenantPath(tenant, "stats"), nil, &st)
	return st, err
}

func tenantPath(tenant string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/v1/tenants/")
	b.WriteString(url.PathEscape(tenant))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// do sends body as JSON and decodes a 2xx response into out. A non-2xx
// response becomes *APIError; its body is still decoded into out when it
// is valid JSON for it, so callers like Health can keep the payload.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("drugqa: encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("drugqa: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("drugqa: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("drugqa: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Code != "" {
			apiErr.Code, apiErr.Message = payload.Code, payload.Message
		} else {
			apiErr.Message = snippet(data)
			if out != nil {
				_ = json.Unmarshal(data, out)
			}
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("drugqa: decode response: %w", err)
	}
	return nil
}

func snippet(data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "empty response"
	}
	return s
}

// IsRetryable reports whether err is worth retrying: rate limits, provider
// failures, unavailability and transport errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return !errors.Is(err, context.Canceled)
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderError) || errors.Is(err, ErrUnavailable)
}
