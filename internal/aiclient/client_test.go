package aiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"learnhub/internal/apiclient"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := apiclient.NewClient(apiclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	return NewClient(api)
}

func TestRecommendSendsPromptAndReturnsRecommendations(t *testing.T) {
	var prompt string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/gemini/recommend" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		prompt = body["prompt"]
		_, _ = io.WriteString(w, `{"recommendations":[{"_id":"c1","title":"Go"},{"_id":"c2","title":"Distributed Systems"}]}`)
	})

	r := c.Recommend(context.Background(), "backend engineer")
	if !r.OK() || len(r.Value) != 2 || r.Value[1].ID != "c2" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if prompt != "backend engineer" {
		t.Fatalf("prompt = %q", prompt)
	}
}

func TestRecommendFailuresAreDistinguishable(t *testing.T) {
	rejected := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Prompt is required"}`)
	})
	r := rejected.Recommend(context.Background(), "")
	if r.Kind != apiclient.KindBusinessError || r.Body.Text() != "Prompt is required" {
		t.Fatalf("unexpected result: %+v", r)
	}

	down := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r = down.Recommend(context.Background(), "go")
	if r.Kind != apiclient.KindTransportFailure || r.Value == nil || len(r.Value) != 0 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.Err() == nil {
		t.Fatalf("expected error for failed fetch")
	}
}
