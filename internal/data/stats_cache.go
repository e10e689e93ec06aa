package data

import (
	"context"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
)

const statsKeyPrefix = "place_stats:"

// statsEntry 缓存值；stats 为 nil 表示该店铺没有评论。
type statsEntry struct {
	stats *biz.PlaceStats
}

// StatsCache 评分统计的本地缓存，TTL 为 0 时不缓存。
type StatsCache struct {
	cache cache.CacheInterface[any]
	ttl   time.Duration
}

func NewStatsCache(d *Data, c *conf.Data) *StatsCache {
	var ttl time.Duration
	if c.Cache != nil {
		ttl = c.Cache.StatsTTL.AsDuration()
	}
	return &StatsCache{cache: d.cache, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context, ids []string) (map[string]*biz.PlaceStats, []string) {
	hits := make(map[string]*biz.PlaceStats)
	if c.ttl <= 0 {
		return hits, ids
	}
	var misses []string
	for _, id := range ids {
		v, err := c.cache.Get(ctx, statsKeyPrefix+id)
		if err != nil {
			misses = append(misses, id)
			continue
		}
		e, ok := v.(statsEntry)
		if !ok {
			misses = append(misses, id)
			continue
		}
		hits[id] = e.stats
	}
	return hits, misses
}

func (c *StatsCache) Set(ctx context.Context, stats map[string]biz.PlaceStats, missing []string) {
	if c.ttl <= 0 {
		return
	}
	for id, st := range stats {
		st := st
		_ = c.cache.Set(ctx, statsKeyPrefix+id, statsEntry{stats: &st}, store.WithExpiration(c.ttl))
	}
	for _, id := range missing {
		_ = c.cache.Set(ctx, statsKeyPrefix+id, statsEntry{}, store.WithExpiration(c.ttl))
	}
}
