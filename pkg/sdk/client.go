package docqa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// Client is the docqa API client.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	obs     *observer
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		hc:      hc,
		obs:     obs,
	}, nil
}

// Health probes the service and its dependencies. A degraded service still
// yields the per-check report with a nil error; only transport and protocol
// failures error out.
func (c *Client) Health(ctx context.Context) (h Health, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	resp, err := c.request(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return Health{}, err
	}
	defer drain(resp)

	// 503 still carries the per-check report.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return Health{}, c.apiError(resp)
	}
	err = json.NewDecoder(resp.Body).Decode(&h)
	return h, err
}

// Info returns the running service description.
func (c *Client) Info(ctx context.Context) (info ServiceInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("info", start, err) }()

	err = c.doJSON(ctx, http.MethodGet, "/info", nil, &info)
	return info, err
}

// Ingest indexes a PDF file or a folder of PDFs into a collection. The path
// is resolved on the server.
func (c *Client) Ingest(ctx context.Context, path, collection string) (res IngestResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	err = c.doJSON(ctx, http.MethodPost, "/ingest", IngestRequest{Path: path, Collection: collection}, &res)
	return res, err
}

// Query answers a question against indexed documents.
func (c *Client) Query(ctx context.Context, req QueryRequest) (a Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, err) }()

	err = c.doJSON(ctx, http.MethodPost, "/query", req, &a)
	return a, err
}

// Context retrieves ranked context for a question without generating an answer.
func (c *Client) Context(ctx context.Context, req QueryRequest) (res ContextResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("context", start, err) }()

	err = c.doJSON(ctx, http.MethodPost, "/context", req, &res)
	return res, err
}

// Collections lists every collection with its record count.
func (c *Client) Collections(ctx context.Context) (cols []Collection, err error) {
	start := time.Now()
	defer func() { c.obs.observe("collections", start, err) }()

	var resp struct {
		Collections []Collection `json:"collections"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/collections", nil, &resp)
	return resp.Collections, err
}

// CollectionStats returns one collection's record count.
func (c *Client) CollectionStats(ctx context.Context, name string) (col Collection, err error) {
	start := time.Now()
	defer func() { c.obs.observe("collection_stats", start, err) }()

	err = c.doJSON(ctx, http.MethodGet, "/collections/"+url.PathEscape(name)+"/stats", nil, &col)
	return col, err
}

// DeleteCollection removes a collection and its records.
func (c *Client) DeleteCollection(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_collection", start, err) }()

	return c.doJSON(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil, nil)
}

// Image fetches a retained page rasterization as raw PNG bytes.
func (c *Client) Image(ctx context.Context, collection, id string) (png []byte, err error) {
	start := time.Now()
	defer func() { c.obs.observe("image", start, err) }()

	var resp struct {
		DataB64 string `json:"data_b64"`
	}
	path := "/collections/" + url.PathEscape(collection) + "/images/" + url.PathEscape(id)
	if err = c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	png, err = base64.StdEncoding.DecodeString(resp.DataB64)
	if err != nil {
		return nil, fmt.Errorf("docqa: decode image: %w", err)
	}
	return png, nil
}

// Stats returns the usage snapshot with per-collection counts.
func (c *Client) Stats(ctx context.Context) (s ServiceStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	err = c.doJSON(ctx, http.MethodGet, "/stats", nil, &s)
	return s, err
}

// ResetStats zeroes the usage counters.
func (c *Client) ResetStats(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reset_stats", start, err) }()

	return c.doJSON(ctx, http.MethodPost, "/stats/reset", nil, nil)
}

// doJSON performs a request and decodes a 2xx JSON response into out.
// out may be nil for responses without a body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("docqa: decode response: %w", err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("docqa: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("docqa: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docqa: %s %s: %w", method, path, err)
	}
	return resp, nil
}

// apiError builds an APIError from a non-2xx response.
func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Code != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	} else {
		apiErr.Code = "internal_error"
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// drain discards leftovers and closes the body so connections are reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
