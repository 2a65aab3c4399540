package apiclient

import (
	"context"
	"log/slog"
	"net/http"
)

// TokenSource yields the current bearer token. An empty token means the
// caller is logged out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type bearerAuth struct {
	tokens TokenSource
}

// authorize attaches the bearer token when one is stored. A failing store
// never blocks the request: it goes out unauthenticated and the backend
// decides.
func (a bearerAuth) authorize(ctx context.Context, req *http.Request, logger *slog.Logger) {
	if a.tokens == nil {
		return
	}
	token, err := a.tokens.Token(ctx)
	if err != nil {
		logger.Warn("session token unavailable, sending request without credentials",
			"method", req.Method, "path", req.URL.Path, "err", err)
		return
	}
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}
