package service

import (
	"context"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/okian/parkrank/internal/domain/model"
	"github.com/okian/parkrank/pkg/metrics"
)

const rankingCacheName = "rankings"

// rankingCache memoises ranking reads between votes. Concurrent misses
// for the same key share one store query.
type rankingCache struct {
	lru   *expirable.LRU[string, []model.Park]
	group singleflight.Group
	// gen advances on invalidate; loads started before it are not stored.
	gen atomic.Uint64
}

// newRankingCache returns nil when size is 0; a nil cache always loads.
func newRankingCache(size int, ttl time.Duration) *rankingCache {
	if size <= 0 {
		return nil
	}
	return &rankingCache{lru: expirable.NewLRU[string, []model.Park](size, nil, ttl)}
}

func (c *rankingCache) get(ctx context.Context, key string, load func(context.Context) ([]model.Park, error)) ([]model.Park, error) {
	if c == nil {
		return load(ctx)
	}
	if parks, ok := c.lru.Get(key); ok {
		metrics.RecordCacheHit(rankingCacheName)
		return slices.Clone(parks), nil
	}
	metrics.RecordCacheMiss(rankingCacheName)

	// a load started before the last invalidate is never joined
	gen := c.gen.Load()
	v, err, _ := c.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		parks, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if c.gen.Load() == gen {
			c.lru.Add(key, parks)
		}
		return parks, nil
	})
	if err != nil {
		return nil, err
	}
	parks, _ := v.([]model.Park)
	return slices.Clone(parks), nil
}

// invalidate drops every cached ranking.
func (c *rankingCache) invalidate() {
	if c == nil {
		return
	}
	c.gen.Add(1)
	c.lru.Purge()
}
