// Package promptcache is a content-addressed cache in front of the
// summarization client. Responses are keyed by a hash of the prompt text and
// expire after a fixed TTL.
package promptcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirescope/hirescope/internal/llm"
	"github.com/hirescope/hirescope/internal/metrics"
	"github.com/hirescope/hirescope/lru"
)

// Store is the external key-value cache, treated as a black-box get/set
// with expiry. A miss is (nil, false, nil); errors indicate the store
// itself is unhealthy.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key computes the cache key for a prompt pair: hex SHA-256 over the
// concatenated prompt bytes. Pure function of the input, stable across
// process restarts.
func Key(systemPrompt, userPrompt string) string {
	h := sha256.New()
	h.Write([]byte(systemPrompt))
	h.Write([]byte(userPrompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Cache wraps a Completer with a two-level cache: an in-process LRU hot
// layer and the external store. There is no single-flight de-duplication;
// concurrent identical requests may each call the upstream once.
type Cache struct {
	upstream llm.Completer
	store    Store
	hot      *lru.Cache[string, json.RawMessage]
	ttl      time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// Option configures the cache.
type Option func(*Cache)

func WithHotSize(n int) Option {
	return func(c *Cache) { c.hot = lru.New[string, json.RawMessage](n) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.logger = l.With().Str("component", "promptcache").Logger() }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a prompt cache over the given upstream completer and store.
func New(upstream llm.Completer, store Store, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		upstream: upstream,
		store:    store,
		hot:      lru.New[string, json.RawMessage](256),
		ttl:      ttl,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CompleteJSON implements llm.Completer. On a hit the stored JSON is
// returned without contacting the upstream. On a miss the upstream is called
// synchronously and its raw JSON stored under the computed key. A failing
// store degrades to a direct upstream call — the cache is a best-effort
// accelerator, never a point of failure.
func (c *Cache) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	key := Key(systemPrompt, userPrompt)

	if cached, ok := c.hot.Get(key); ok {
		c.record("get", "hit")
		return cached, nil
	}

	value, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.record("get", "error")
		c.logger.Warn().Err(err).Str("key", key).Msg("cache store get failed, calling upstream directly")
	} else if found {
		c.record("get", "hit")
		c.hot.PutTTL(key, json.RawMessage(value), c.ttl)
		return json.RawMessage(value), nil
	} else {
		c.record("get", "miss")
	}

	raw, err := c.upstream.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.record("set", "error")
		c.logger.Warn().Err(err).Str("key", key).Msg("cache store set failed")
	} else {
		c.record("set", "ok")
	}
	c.hot.PutTTL(key, raw, c.ttl)

	return raw, nil
}

func (c *Cache) record(op, result string) {
	if c.metrics != nil {
		c.metrics.RecordCacheOp(op, result)
	}
}
