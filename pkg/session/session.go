package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"learnhub/pkg/domain"
	"learnhub/pkg/kv"
)

// Store persists the current session in a key-value store.
// Token and role are always written and removed together.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStore wraps store. A nil logger falls back to slog.Default().
func NewStore(store kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: store, logger: logger, now: time.Now}
}

// Save stores token and role in a single write.
func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	return s.kv.SetMany(ctx, map[string]string{
		kv.KeyUserToken: sess.Token,
		kv.KeyUserRole:  string(sess.Role),
	})
}

// Load returns the stored session. ok is false when no token is stored.
func (s *Store) Load(ctx context.Context) (domain.Session, bool, error) {
	vals, err := s.kv.GetMany(ctx, kv.KeyUserToken, kv.KeyUserRole)
	if err != nil {
		return domain.Session{}, false, err
	}
	sess := domain.Session{
		Token: vals[kv.KeyUserToken],
		Role:  domain.UserRole(vals[kv.KeyUserRole]),
	}
	if !sess.Authenticated() {
		return domain.Session{}, false, nil
	}
	return sess, true, nil
}

// Clear removes token and role.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, kv.KeyUserToken, kv.KeyUserRole)
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, ok, err := s.kv.Get(ctx, kv.KeyUserToken)
	if err != nil || !ok {
		return "", err
	}
	token = strings.TrimSpace(token)
	if claims, err := Inspect(token); err == nil && claims.ExpiredAt(s.now()) {
		s.logger.Debug("stored session token looks expired", "expires_at", claims.ExpiresAt)
	}
	return token, nil
}
