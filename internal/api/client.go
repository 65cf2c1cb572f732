package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/s22625/jobctl/internal/logging"
	"github.com/s22625/jobctl/internal/model"
)

// Header names sent with every request.
const (
	HeaderRequestID = "X-Request-Id"
	HeaderClientID  = "X-Client-Id"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4096

// maxStartBody bounds the start response body.
const maxStartBody = 1 << 20

// Paths holds the endpoint paths of the job server.
type Paths struct {
	Start    string
	Stop     string
	Pause    string
	Resume   string
	Progress string
	ClearLog string
}

// DefaultPaths returns the paths served by the reference job server.
func DefaultPaths() Paths {
	return Paths{
		Start:    "/",
		Stop:     "/stop",
		Pause:    "/pause",
		Resume:   "/resume",
		Progress: "/progress",
		ClearLog: "/clear_log",
	}
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Paths   Paths
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client is an HTTP client for the job server control API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clientID   string
	paths      Paths
	logger     zerolog.Logger
}

// New creates a client for the server at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must use http or https", opts.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	paths := DefaultPaths()
	if opts.Paths.Start != "" {
		paths.Start = opts.Paths.Start
	}
	if opts.Paths.Stop != "" {
		paths.Stop = opts.Paths.Stop
	}
	if opts.Paths.Pause != "" {
		paths.Pause = opts.Paths.Pause
	}
	if opts.Paths.Resume != "" {
		paths.Resume = opts.Paths.Resume
	}
	if opts.Paths.Progress != "" {
		paths.Progress = opts.Paths.Progress
	}
	if opts.Paths.ClearLog != "" {
		paths.ClearLog = opts.Paths.ClearLog
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		clientID:   uuid.NewString(),
		paths:      paths,
		logger:     logger.With().Str(logging.ServerField, base).Logger(),
	}, nil
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClientID returns the id sent in X-Client-Id for this process.
func (c *Client) ClientID() string {
	return c.clientID
}

// Start submits the start form. A response carrying an error message is
// returned without an error; callers check resp.Rejected().
func (c *Client) Start(ctx context.Context, req model.StartRequest) (*model.StartResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, c.paths.Start, strings.NewReader(req.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStartBody))
	if err != nil {
		return nil, fmt.Errorf("start: reading response: %w", err)
	}

	var out model.StartResponse
	decodeErr := json.Unmarshal(body, &out)

	if !isSuccess(resp.StatusCode) {
		// Some servers reject with a 4xx and an error body; treat that like a 200 rejection.
		if decodeErr == nil && out.Rejected() {
			return &out, nil
		}
		return nil, newStatusError(http.MethodPost, c.paths.Start, resp.StatusCode, body)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("start: decoding response: %w", decodeErr)
	}
	return &out, nil
}

// Stop asks the server to stop the job.
func (c *Client) Stop(ctx context.Context) error {
	return c.command(ctx, http.MethodPost, c.paths.Stop)
}

// Pause asks the server to pause all threads.
func (c *Client) Pause(ctx context.Context) error {
	return c.command(ctx, http.MethodPost, c.paths.Pause)
}

// Resume asks the server to resume paused threads.
func (c *Client) Resume(ctx context.Context) error {
	return c.command(ctx, http.MethodPost, c.paths.Resume)
}

// ClearLog asks the server to drop its log buffer.
func (c *Client) ClearLog(ctx context.Context) error {
	return c.command(ctx, http.MethodGet, c.paths.ClearLog)
}

// Progress fetches the current progress snapshot.
func (c *Client) Progress(ctx context.Context) (*model.ProgressSnapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, c.paths.Progress, nil, "")
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newStatusError(http.MethodGet, c.paths.Progress, resp.StatusCode, body)
	}

	var snap model.ProgressSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("progress: decoding response: %w", err)
	}
	return &snap, nil
}

// command issues a request whose response body only signals completion.
func (c *Client) command(ctx context.Context, method, path string) error {
	resp, err := c.do(ctx, method, path, nil, "")
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimPrefix(path, "/"), err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if !isSuccess(resp.StatusCode) {
		return newStatusError(method, path, resp.StatusCode, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, reqID)
	req.Header.Set(HeaderClientID, c.clientID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().
			Str(logging.RequestIDField, reqID).
			Str("method", method).
			Str(logging.PathField, path).
			Err(err).
			Msg("request failed")
		return nil, err
	}

	c.logger.Debug().
		Str(logging.RequestIDField, reqID).
		Str("method", method).
		Str(logging.PathField, path).
		Int(logging.StatusField, resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request")
	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
