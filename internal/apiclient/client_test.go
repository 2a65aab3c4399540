package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"learnhub/internal/util"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) { return s.token, s.err }

type fakeRecorder struct {
	mu       sync.Mutex
	statuses []int
	failures int
}

func (f *fakeRecorder) ObserveRequest(_ string, status int, _ time.Duration) {
	f.mu.Lock()
	f.statuses = append(f.statuses, status)
	f.mu.Unlock()
}

func (f *fakeRecorder) RecordTransportFailure(string) {
	f.mu.Lock()
	f.failures++
	f.mu.Unlock()
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource, logger *slog.Logger, rec Recorder) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, Tokens: tokens, Logger: logger, Metrics: rec})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestDoAttachesBearerTokenAndJSONHeaders(t *testing.T) {
	var gotAuth, gotCT, gotAccept, gotReqID string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotReqID = r.Header.Get("X-Request-Id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", staticTokens{token: "abc"}, nil, nil)
	ctx := util.WithRequestID(context.Background(), "req-42")
	resp, err := c.Do(ctx, http.MethodPost, "/auth/login", map[string]string{"username": "alice"})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotCT != "application/json" || gotAccept != "application/json" {
		t.Fatalf("unexpected content negotiation headers: %q %q", gotCT, gotAccept)
	}
	if gotReqID != "req-42" {
		t.Fatalf("request id = %q, want req-42", gotReqID)
	}
	if gotBody["username"] != "alice" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
	if !strings.Contains(string(resp.Data), `"ok":"yes"`) {
		t.Fatalf("unexpected data: %s", resp.Data)
	}
}

func TestDoWithoutTokenSendsNoAuthorization(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"unauthorized"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, staticTokens{}, nil, nil)
	resp, err := c.Do(context.Background(), http.MethodGet, "/auth/profile", nil)
	if err != nil {
		t.Fatalf("4xx must not be an error: %v", err)
	}
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Status)
	}
	if len(gotAuth) != 0 {
		t.Fatalf("expected no authorization header, got %v", gotAuth)
	}
}

func TestDoTokenStoreFailureFallsBackAndLogs(t *testing.T) {
	var calls int
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"courses":[]}`)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	c := newTestClient(t, srv.URL, staticTokens{err: errors.New("disk unavailable")}, logger, nil)

	if _, err := c.Do(context.Background(), http.MethodGet, "/course", nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls != 1 || gotAuth != "" {
		t.Fatalf("expected one unauthenticated call, calls=%d auth=%q", calls, gotAuth)
	}
	if !strings.Contains(logs.String(), "session token unavailable") || !strings.Contains(logs.String(), "disk unavailable") {
		t.Fatalf("expected warning in logs, got %s", logs.String())
	}
}

func TestDoServerErrorIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"message":"upstream down"}`)
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	c := newTestClient(t, srv.URL, nil, nil, rec)
	resp, err := c.Do(context.Background(), http.MethodGet, "/course", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if te.Status != http.StatusBadGateway || !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("unexpected transport error: %+v", te)
	}
	if resp.Data != nil || resp.Status != 0 {
		t.Fatalf("5xx must not carry a body: %+v", resp)
	}
	if rec.failures != 1 || len(rec.statuses) != 1 || rec.statuses[0] != http.StatusBadGateway {
		t.Fatalf("unexpected metrics: %+v", rec)
	}
}

func TestDoTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{BaseURL: srv.URL, HTTPClient: &http.Client{Timeout: 50 * time.Millisecond}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	start := time.Now()
	_, err = c.Do(context.Background(), http.MethodGet, "/course", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(te.Message, "timed out") {
		t.Fatalf("unexpected message: %q", te.Message)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}

func TestDoConnectionRefusedIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, nil, nil, nil)
	_, err := c.Do(context.Background(), http.MethodGet, "/course", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if te.Status != 0 || te.Message == "" {
		t.Fatalf("unexpected transport error: %+v", te)
	}
}

func TestDoNonJSONBodyHasNilData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "<html>not found</html>")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, nil, nil)
	resp, err := c.Do(context.Background(), http.MethodGet, "/missing", nil)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.Status != http.StatusNotFound || resp.Data != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDoGeneratesRequestIDWhenMissing(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, nil, nil)
	if _, err := c.Do(context.Background(), http.MethodDelete, "/course/c1", nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if got == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestNewClientRejectsInvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "localhost:5000", "ftp://example.com", "http://"} {
		if _, err := NewClient(Config{BaseURL: base}); !errors.Is(err, ErrInvalidBaseURL) {
			t.Fatalf("NewClient(%q) err = %v, want ErrInvalidBaseURL", base, err)
		}
	}
	c, err := NewClient(Config{BaseURL: "https://api.example.com/api/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.BaseURL() != "https://api.example.com/api" {
		t.Fatalf("base url = %q", c.BaseURL())
	}
}
