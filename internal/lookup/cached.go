package lookup

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/cache"
	"github.com/ppiankov/powlink/internal/model"
)

// Cached stores candidate lists, misses included, per backend and value
type Cached struct {
	inner   Lookup
	store   cache.Cache
	backend string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCached wraps inner. A zero ttl uses the store default.
func NewCached(inner Lookup, store cache.Cache, backend string, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, store: store, backend: backend, ttl: ttl, logger: logger}
}

func (c *Cached) Lookup(ctx context.Context, value string) ([]model.Candidate, error) {
	key := cache.Key(c.backend, value)

	if data, ok := c.store.Get(key); ok {
		var candidates []model.Candidate
		if err := json.Unmarshal(data, &candidates); err == nil {
			return candidates, nil
		}
		_ = c.store.Delete(key)
	}

	candidates, err := c.inner.Lookup(ctx, value)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}

	data, err := json.Marshal(candidates)
	if err == nil {
		err = c.store.Set(key, data, c.ttl)
	}
	if err != nil {
		c.logger.Warn("cache write failed", zap.String("backend", c.backend), zap.Error(err))
	}
	return candidates, nil
}
