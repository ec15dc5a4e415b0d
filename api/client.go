// Package api implements the HTTP contract between the terminal front end and
// the analysis backend: a Client for the front end and a Server that serves
// the same endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
)

// Endpoint paths.
const (
	AnalyzePath = "/api/v1/analyze"
	HistoryPath = "/api/v1/history"
)

// IdentityHeader attributes a request to a user.
const IdentityHeader = "X-User-ID"

// Default timeouts.
const (
	DefaultAnalyzeTimeout = 60 * time.Second
	DefaultHistoryTimeout = 15 * time.Second
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Compile-time interface verification.
var (
	_ codereview.Analyzer       = (*Client)(nil)
	_ codereview.HistoryFetcher = (*Client)(nil)
)

// Client calls the analysis API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	analyzeTimeout time.Duration
	historyTimeout time.Duration
	logger         *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the timeout for analysis requests.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.analyzeTimeout = d }
}

// WithHistoryTimeout sets the timeout for history requests.
func WithHistoryTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.historyTimeout = d }
}

// WithClientLogger sets the logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     http.DefaultClient,
		analyzeTimeout: DefaultAnalyzeTimeout,
		historyTimeout: DefaultHistoryTimeout,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("api")
	return c
}

// Analyze submits code for analysis on behalf of identity. An empty identity
// is sent as "anonymous". Failures are returned as
// *codereview.AnalysisRequestError. No retries are attempted.
func (c *Client) Analyze(ctx context.Context, identity string, req codereview.AnalysisRequest) (*codereview.AnalysisResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.analyzeTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &codereview.AnalysisRequestError{Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, &codereview.AnalysisRequestError{Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(IdentityHeader, identityOrAnonymous(identity))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("analyze request failed", zap.Error(err))
		return nil, &codereview.AnalysisRequestError{Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("analyze response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &codereview.AnalysisRequestError{
			Status:  resp.StatusCode,
			Message: readDetail(resp),
		}
	}

	var out codereview.AnalysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &codereview.AnalysisRequestError{
			Status:  resp.StatusCode,
			Message: "invalid response from analysis server",
			Err:     err,
		}
	}
	if unknown := codereview.Unrecognized(out); len(unknown) > 0 {
		c.logger.Warn("unrecognized values in analysis response", zap.Stringers("values", unknown))
	}
	return &out, nil
}

// History returns every stored analysis for identity. Failures are returned
// as *codereview.HistoryFetchError.
func (c *Client) History(ctx context.Context, identity string) ([]codereview.HistoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.historyTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HistoryPath, nil)
	if err != nil {
		return nil, &codereview.HistoryFetchError{Message: "build request", Err: err}
	}
	httpReq.Header.Set(IdentityHeader, identityOrAnonymous(identity))
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("history request failed", zap.Error(err))
		return nil, &codereview.HistoryFetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &codereview.HistoryFetchError{
			Status:  resp.StatusCode,
			Message: readDetail(resp),
		}
	}

	var records []codereview.HistoryRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &codereview.HistoryFetchError{
			Status:  resp.StatusCode,
			Message: "invalid response from analysis server",
			Err:     err,
		}
	}
	if records == nil {
		records = []codereview.HistoryRecord{}
	}
	return records, nil
}

func identityOrAnonymous(identity string) string {
	if strings.TrimSpace(identity) == "" {
		return codereview.AnonymousIdentity
	}
	return identity
}

// errorBody is the error document returned by the server. Detail is usually
// a string; validation failures carry a list of objects instead.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// readDetail extracts the server's message from an error response, falling
// back to the status text.
func readDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return http.StatusText(resp.StatusCode)
	}
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		return detail
	}
	return string(body.Detail)
}
