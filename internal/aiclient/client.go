package aiclient

import (
	"context"
	"net/http"

	"learnhub/internal/apiclient"
	"learnhub/pkg/domain"
)

// Client calls the AI recommendation endpoint.
type Client struct {
	api *apiclient.Client
}

// NewClient constructs an AI client on top of api.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// Recommend asks the backend for courses matching a free-text prompt.
// Callers that cache the answer must check the Kind: an empty list on
// failure is a sentinel, not an answer.
func (c *Client) Recommend(ctx context.Context, prompt string) apiclient.Result[[]domain.Course] {
	payload := map[string]string{"prompt": prompt}
	resp, err := c.api.Do(ctx, http.MethodPost, "/gemini/recommend", payload)
	return apiclient.Normalize(resp, err, []domain.Course{}, apiclient.ListField[domain.Course]("recommendations"))
}
