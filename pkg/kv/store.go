package kv

import "context"

// Keys persisted by the client.
const (
	KeyUserToken         = "userToken"
	KeyUserRole          = "userRole"
	KeyUserInterests     = "userInterests"
	KeyCachedAIInterests = "cachedAiInterests"
	KeyCachedAICourses   = "cachedAiCourses"
	KeyLastAIFetchTime   = "lastAiFetchTime"
)

// Store is an asynchronous string key-value store.
// SetMany must be all-or-nothing as observed by readers.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
