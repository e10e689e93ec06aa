package biz

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"placefinder-go/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

const maxStatsBatchSize = 1000

// PlaceStats 评分统计，不存在评论时为 {nil, 0}。
type PlaceStats struct {
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount int64    `json:"review_count"`
}

// StatsCache 评分统计的读穿缓存。Get 返回命中的条目（含"无评论"的负缓存）与未命中的 id。
type StatsCache interface {
	Get(ctx context.Context, ids []string) (hits map[string]*PlaceStats, misses []string)
	Set(ctx context.Context, stats map[string]PlaceStats, missing []string)
}

// StatsAggregator 按批次查询 place_stats 视图。
type StatsAggregator struct {
	store       RowStore
	cache       StatsCache
	table       string
	cols        *conf.Columns
	batchSize   int
	concurrency int
	log         *log.Helper
}

func NewStatsAggregator(store RowStore, cache StatsCache, c *conf.Places, logger log.Logger) *StatsAggregator {
	batch := c.StatsBatchSize
	if batch <= 0 || batch > maxStatsBatchSize {
		batch = maxStatsBatchSize
	}
	concurrency := c.StatsConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &StatsAggregator{
		store:       store,
		cache:       cache,
		table:       c.StatsTable,
		cols:        c.Columns,
		batchSize:   batch,
		concurrency: concurrency,
		log:         log.NewHelper(log.With(logger, "module", "biz/stats")),
	}
}

// GetStats 返回 id 到统计的映射；没有评论的 id 不出现在结果中。任一批次失败则整体失败。
func (a *StatsAggregator) GetStats(ctx context.Context, ids []string) (map[string]PlaceStats, error) {
	uniq := dedupeIDs(ids)
	out := make(map[string]PlaceStats, len(uniq))
	if len(uniq) == 0 {
		return out, nil
	}

	misses := uniq
	if a.cache != nil {
		var hits map[string]*PlaceStats
		hits, misses = a.cache.Get(ctx, uniq)
		for id, st := range hits {
			if st != nil {
				out[id] = *st
			}
		}
		if len(misses) == 0 {
			return out, nil
		}
	}

	var mu sync.Mutex
	fetched := make(map[string]PlaceStats, len(misses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, batch := range chunk(misses, a.batchSize) {
		g.Go(func() error {
			part, err := a.queryBatch(gctx, batch)
			if err != nil {
				statsBatches.WithLabelValues("error").Inc()
				return err
			}
			statsBatches.WithLabelValues("ok").Inc()
			mu.Lock()
			for id, st := range part {
				fetched[id] = st
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &StatsError{Err: err}
	}

	for id, st := range fetched {
		out[id] = st
	}
	if a.cache != nil {
		var missing []string
		for _, id := range misses {
			if _, ok := fetched[id]; !ok {
				missing = append(missing, id)
			}
		}
		a.cache.Set(ctx, fetched, missing)
	}
	a.log.WithContext(ctx).Debugf("stats ids=%d fetched=%d", len(uniq), len(fetched))
	return out, nil
}

func (a *StatsAggregator) queryBatch(ctx context.Context, batch []string) (map[string]PlaceStats, error) {
	rs, err := a.store.Query(ctx, &Query{
		Table:   a.table,
		Select:  []string{a.cols.StatsID, a.cols.StatsAvg, a.cols.StatsCount},
		Filters: []Filter{{Column: a.cols.StatsID, Op: OpIn, Value: batch}},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]PlaceStats, len(rs.Rows))
	for _, r := range rs.Rows {
		id := asString(r[a.cols.StatsID])
		if id == "" {
			continue
		}
		st := PlaceStats{}
		if v, ok := asFloat(r[a.cols.StatsAvg]); ok {
			st.AvgRating = &v
		}
		if v, ok := asFloat(r[a.cols.StatsCount]); ok && v > 0 {
			st.ReviewCount = int64(v)
		}
		out[id] = st
	}
	return out, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// asString 行值统一转成字符串，数字 id 也按字符串比较。
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
