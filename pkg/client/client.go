// Package client is the HTTP transport for the research backend. It opens
// the streaming research endpoint and exposes the comparison endpoints.
// The backend's wire format beyond the event stream is not interpreted
// here; parsing and folding belong to pkg/sse and pkg/stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/sse"
)

const (
	streamPath     = "/research/stream"
	comparePath    = "/research/compare"
	comparisonPath = "/research/comparison"
)

// defaultTimeout bounds non-streaming requests. Streaming requests are
// bounded by their context instead; research runs can be long.
const defaultTimeout = 30 * time.Second

// ResearchRequest is the body of POST /research/stream.
type ResearchRequest struct {
	Query  string `json:"query"`
	Model  string `json:"model"`
	APIKey string `json:"api_key,omitempty"`
}

// CompareRequest is the body of POST /research/compare, recording a
// finished multi-model run so the backend can aggregate metrics.
type CompareRequest struct {
	Query   string            `json:"query"`
	Models  []string          `json:"models"`
	APIKeys map[string]string `json:"api_keys,omitempty"`
	Results []CompareResult   `json:"results,omitempty"`
}

// CompareResult is one model's terminal outcome within a comparison run.
type CompareResult struct {
	Model        string  `json:"model"`
	Status       string  `json:"status"`
	DurationSecs float64 `json:"duration_seconds"`
	Events       int     `json:"events"`
	SourceCount  int     `json:"source_count"`
	ReportLength int     `json:"report_length"`
	Error        string  `json:"error,omitempty"`
}

// ComparisonStats is the response of GET /research/comparison.
type ComparisonStats struct {
	TotalRuns int                   `json:"total_runs"`
	Models    map[string]ModelStats `json:"models"`
}

// ModelStats holds historical aggregate metrics for one model.
type ModelStats struct {
	Runs            int     `json:"runs"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	AvgDurationSecs float64 `json:"avg_duration_seconds"`
	AvgSources      float64 `json:"avg_sources"`
}

// StatusError is a transport-level failure: the backend answered with a
// non-2xx status. The raw status and body are surfaced verbatim.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the transport logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client talks to one research backend.
type Client struct {
	target string
	http   *http.Client
	logger *zap.Logger
}

// New creates a Client for the given base URL (scheme + host + port).
func New(target string, opts ...Option) *Client {
	c := &Client{
		target: target,
		http:   &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the configured backend base URL.
func (c *Client) Target() string {
	return c.target
}

// Stream is one open research event stream. Close releases the underlying
// network reader; cancelling the request context does the same promptly.
type Stream struct {
	body   io.ReadCloser
	reader *sse.Reader
}

// Next returns the next SSE event, or nil, nil when the stream ends.
func (s *Stream) Next() (*sse.Event, error) {
	return s.reader.Next()
}

// Close releases the network reader.
func (s *Stream) Close() error {
	return s.body.Close()
}

// OpenStream starts a research run and returns its event stream. The
// stream stays open until the backend finishes, the context is cancelled,
// or Close is called. A non-nil capture writer receives the raw bytes.
func (c *Client) OpenStream(ctx context.Context, req ResearchRequest, capture io.Writer) (*Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("opening research stream",
		zap.String("target", c.target),
		zap.String("model", req.Model),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target+streamPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("connecting to backend: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(respBody))}
	}

	return &Stream{
		body:   resp.Body,
		reader: sse.NewCaptureReader(resp.Body, capture),
	}, nil
}

// SubmitComparison records a finished multi-model run.
func (c *Client) SubmitComparison(ctx context.Context, req CompareRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling comparison: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target+comparePath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("submitting comparison: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(respBody))}
	}

	return nil
}

// ComparisonStats fetches historical aggregate metrics.
func (c *Client) ComparisonStats(ctx context.Context) (*ComparisonStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target+comparisonPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching comparison stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(respBody))}
	}

	stats := &ComparisonStats{}
	if err := json.NewDecoder(resp.Body).Decode(stats); err != nil {
		return nil, fmt.Errorf("decoding comparison stats: %w", err)
	}

	return stats, nil
}
