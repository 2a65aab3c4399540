package authclient

import (
	"context"
	"net/http"

	"learnhub/internal/apiclient"
	"learnhub/pkg/domain"
)

// Client calls the auth endpoints.
type Client struct {
	api *apiclient.Client
}

// NewClient constructs an auth client on top of api.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// RegisterRequest carries the sign-up form. Username is the user's email.
type RegisterRequest struct {
	Name     string          `json:"name"`
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

// Login exchanges credentials for a session. A response without a token is
// a business error carrying the body.
func (c *Client) Login(ctx context.Context, username, password string) apiclient.Result[*domain.Session] {
	payload := map[string]string{"username": username, "password": password}
	resp, err := c.api.Do(ctx, http.MethodPost, "/auth/login", payload)
	return apiclient.Normalize[*domain.Session](resp, err, nil, sessionPayload)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) apiclient.Result[*domain.Session] {
	resp, err := c.api.Do(ctx, http.MethodPost, "/auth/register", req)
	return apiclient.Normalize[*domain.Session](resp, err, nil, sessionPayload)
}

// Profile returns the user behind the stored session.
func (c *Client) Profile(ctx context.Context) apiclient.Result[*domain.User] {
	resp, err := c.api.Do(ctx, http.MethodGet, "/auth/profile", nil)
	return apiclient.Normalize[*domain.User](resp, err, nil, apiclient.ObjectField[domain.User]("user"))
}

var sessionPayload = apiclient.Object(func(s *domain.Session) bool {
	return s.Authenticated()
})
