// Package recommend caches AI course recommendations in a single slot keyed
// by the prompt that produced them.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"learnhub/internal/apiclient"
	"learnhub/internal/util"
	"learnhub/pkg/domain"
	"learnhub/pkg/kv"
)

// DefaultTTL is how long a cached answer is reused for an unchanged prompt.
const DefaultTTL = 24 * time.Hour

// ErrEmptyPrompt indicates there is nothing to ask recommendations for.
var ErrEmptyPrompt = errors.New("recommendation prompt is empty")

var slotKeys = []string{kv.KeyCachedAIInterests, kv.KeyCachedAICourses, kv.KeyLastAIFetchTime}

// Fetcher performs a live recommendation call. aiclient.Client implements it.
type Fetcher interface {
	Recommend(ctx context.Context, prompt string) apiclient.Result[[]domain.Course]
}

// Recorder receives cache metrics. metrics.Collector implements it.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss(reason string)
}

// Entry is the content of the cache slot.
type Entry struct {
	Prompt    string
	Courses   []domain.Course
	FetchedAt time.Time
}

// Cache decides whether to reuse the stored answer or fetch a new one.
type Cache struct {
	store   kv.Store
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics Recorder
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func WithMetrics(rec Recorder) Option {
	return func(c *Cache) { c.metrics = rec }
}

// New builds a cache over store that fetches through fetcher.
func New(store kv.Store, fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		fetcher: fetcher,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = nopRecorder{}
	}
	return c
}

// Recommendations returns courses for prompt, from the slot when it holds a
// fresh answer for the same prompt, otherwise from a live fetch. refresh
// forces a live fetch. A failed fetch leaves the slot untouched and returns
// the failure.
func (c *Cache) Recommendations(ctx context.Context, prompt string, refresh bool) ([]domain.Course, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	logger := util.LoggerFromContext(ctx, c.logger)

	if !refresh {
		entry, ok, err := c.Entry(ctx)
		if err != nil {
			// Unreadable local state counts as no cached value.
			logger.Warn("recommendation cache unreadable", "err", err)
		}
		reason := c.missReason(entry, ok, err, prompt)
		if reason == "" {
			c.metrics.RecordCacheHit()
			logger.Debug("recommendation cache hit", "prompt", prompt, "fetched_at", entry.FetchedAt)
			return entry.Courses, nil
		}
		c.metrics.RecordCacheMiss(reason)
		logger.Debug("recommendation cache miss", "prompt", prompt, "reason", reason)
	} else {
		c.metrics.RecordCacheMiss("refresh")
	}

	res := c.fetcher.Recommend(ctx, prompt)
	if !res.OK() {
		logger.Warn("recommendation fetch failed", "kind", res.Kind.String(), "status", res.Status)
		return nil, res.Err()
	}
	c.save(ctx, logger, Entry{Prompt: prompt, Courses: res.Value, FetchedAt: c.now()})
	return res.Value, nil
}

// Entry reads the slot. ok is false when the slot is empty or incomplete.
func (c *Cache) Entry(ctx context.Context) (Entry, bool, error) {
	vals, err := c.store.GetMany(ctx, slotKeys...)
	if err != nil {
		return Entry{}, false, err
	}
	prompt, hasPrompt := vals[kv.KeyCachedAIInterests]
	rawCourses, hasCourses := vals[kv.KeyCachedAICourses]
	rawTime, hasTime := vals[kv.KeyLastAIFetchTime]
	if !hasPrompt || !hasCourses || !hasTime {
		return Entry{}, false, nil
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(rawTime), 10, 64)
	if err != nil {
		return Entry{}, false, err
	}
	var courses []domain.Course
	if err := json.Unmarshal([]byte(rawCourses), &courses); err != nil {
		return Entry{}, false, err
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	return Entry{Prompt: prompt, Courses: courses, FetchedAt: time.UnixMilli(ms)}, true, nil
}

// Invalidate empties the slot.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx, slotKeys...)
}

func (c *Cache) missReason(entry Entry, ok bool, readErr error, prompt string) string {
	switch {
	case readErr != nil:
		return "unreadable"
	case !ok:
		return "empty"
	case c.now().Sub(entry.FetchedAt) > c.ttl:
		return "expired"
	case entry.Prompt != prompt:
		return "changed"
	default:
		return ""
	}
}

// save overwrites all three slot keys in one write. A failed write is
// logged; the caller still gets the fresh answer.
func (c *Cache) save(ctx context.Context, logger *slog.Logger, e Entry) {
	data, err := json.Marshal(e.Courses)
	if err != nil {
		logger.Warn("encode recommendation cache", "err", err)
		return
	}
	err = c.store.SetMany(ctx, map[string]string{
		kv.KeyCachedAIInterests: e.Prompt,
		kv.KeyCachedAICourses:   string(data),
		kv.KeyLastAIFetchTime:   strconv.FormatInt(e.FetchedAt.UnixMilli(), 10),
	})
	if err != nil {
		logger.Warn("write recommendation cache", "err", err)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit()         {}
func (nopRecorder) RecordCacheMiss(string) {}
