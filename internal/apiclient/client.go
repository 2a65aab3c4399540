package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"learnhub/internal/util"
)

// DefaultTimeout bounds every API call end to end.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 8 << 20

// ErrInvalidBaseURL indicates the configured API address is unusable.
var ErrInvalidBaseURL = errors.New("invalid api base url")

// Recorder receives per-call metrics. metrics.Collector implements it.
type Recorder interface {
	ObserveRequest(method string, status int, d time.Duration)
	RecordTransportFailure(method string)
}

// Config wires a Client.
type Config struct {
	BaseURL string
	Tokens  TokenSource
	Logger  *slog.Logger
	Metrics Recorder
	// HTTPClient replaces the default client; tests use it to shorten the
	// timeout. Production code leaves it nil.
	HTTPClient *http.Client
}

// Client sends JSON requests to the platform API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       bearerAuth
	logger     *slog.Logger
	metrics    Recorder
}

// Response is a completed exchange with status below 500.
// Data is nil when the body was empty or not JSON.
type Response struct {
	Status int
	Data   json.RawMessage
}

// NewClient constructs an API client. The base URL is fixed for the
// lifetime of the client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		auth:       bearerAuth{tokens: cfg.Tokens},
		logger:     logger,
		metrics:    rec,
	}, nil
}

// BaseURL returns the API address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends one request. Statuses below 500 are returned as a Response so the
// caller can inspect business errors; 5xx and network failures return a
// *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, payload any) (Response, error) {
	logger := util.LoggerFromContext(ctx, c.logger)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Response{}, &TransportError{Message: "could not encode request", Err: err}
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Response{}, &TransportError{Message: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := util.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = util.NewID()
	}
	req.Header.Set(util.RequestIDHeader, requestID)
	c.auth.authorize(ctx, req, logger)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordTransportFailure(method)
		logger.Error("api transport error", "method", method, "path", path, "request_id", requestID, "err", err)
		return Response{}, &TransportError{Message: describeTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.ObserveRequest(method, resp.StatusCode, time.Since(start))
	if err != nil {
		c.metrics.RecordTransportFailure(method)
		logger.Error("api read error", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID, "err", err)
		return Response{}, &TransportError{Message: describeTransportError(err), Err: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.metrics.RecordTransportFailure(method)
		logger.Error("api server error", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
		return Response{}, &TransportError{
			Status:  resp.StatusCode,
			Message: "The service is currently unavailable. Please try again later.",
			Err:     ErrServiceUnavailable,
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warn("api error", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
	}
	return Response{Status: resp.StatusCode, Data: jsonBody(raw)}, nil
}

func jsonBody(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return json.RawMessage(raw)
}

func describeTransportError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "The request timed out. Please check your connection and try again."
	case errors.Is(err, context.Canceled):
		return "The request was canceled."
	default:
		return "Unable to connect to the server. Please check your internet connection."
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, int, time.Duration) {}
func (nopRecorder) RecordTransportFailure(string)             {}
