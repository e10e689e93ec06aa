package data

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/olivere/elastic/v7"
	"golang.org/x/sync/singleflight"
)

const (
	regionAlias = "region"
	countAlias  = "cnt"
	regionKey   = "regions:"
)

type regionRepo struct {
	data   *Data
	table  string
	cols   *conf.Columns
	ttl    time.Duration
	flight singleflight.Group
	log    *log.Helper
}

// NewRegionRepo 地区计数，新地区列为空时回落到旧列。
func NewRegionRepo(d *Data, c *conf.Data, logger log.Logger) biz.RegionRepo {
	var ttl time.Duration
	if c.Cache != nil {
		ttl = c.Cache.RegionTTL.AsDuration()
	}
	return &regionRepo{
		data:  d,
		table: d.places.Table,
		cols:  d.places.Columns,
		ttl:   ttl,
		log:   log.NewHelper(log.With(logger, "module", "data/region")),
	}
}

func (r *regionRepo) ProvinceCounts(ctx context.Context) ([]biz.RegionCount, error) {
	return r.cached(ctx, regionKey, func(ctx context.Context) ([]biz.RegionCount, error) {
		if r.data.es != nil {
			return r.esCounts(ctx, r.cols.Province, r.cols.LegacyProvince, "")
		}
		return r.sqlCounts(ctx, r.cols.Province, r.cols.LegacyProvince, "")
	})
}

func (r *regionRepo) DistrictCounts(ctx context.Context, province string) ([]biz.RegionCount, error) {
	return r.cached(ctx, regionKey+province, func(ctx context.Context) ([]biz.RegionCount, error) {
		if r.data.es != nil {
			return r.esCounts(ctx, r.cols.District, r.cols.LegacyDistrict, province)
		}
		return r.sqlCounts(ctx, r.cols.District, r.cols.LegacyDistrict, province)
	})
}

// cached 读穿缓存，同一个 key 的并发加载只执行一次。
func (r *regionRepo) cached(ctx context.Context, key string, load func(context.Context) ([]biz.RegionCount, error)) ([]biz.RegionCount, error) {
	if r.ttl > 0 {
		if v, err := r.data.cache.Get(ctx, key); err == nil {
			if counts, ok := v.([]biz.RegionCount); ok {
				return counts, nil
			}
		}
	}
	v, err, _ := r.flight.Do(key, func() (any, error) {
		counts, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if r.ttl > 0 {
			if err := r.data.cache.Set(ctx, key, counts, store.WithExpiration(r.ttl)); err != nil {
				r.log.WithContext(ctx).Warnf("cache %s: %v", key, err)
			}
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]biz.RegionCount), nil
}

// regionExpr COALESCE(NULLIF(新列, ''), 旧列)
func regionExpr(d, col, legacy string) string {
	return entsql.Dialect(d).String(func(b *entsql.Builder) {
		switch {
		case col != "" && legacy != "":
			b.WriteString("COALESCE(NULLIF(").Ident(col).WriteString(", ''), ").Ident(legacy).WriteString(")")
		case col != "":
			b.Ident(col)
		default:
			b.Ident(legacy)
		}
	})
}

func (r *regionRepo) sqlCounts(ctx context.Context, col, legacy, province string) ([]biz.RegionCount, error) {
	if col == "" && legacy == "" {
		return []biz.RegionCount{}, nil
	}
	d := r.data.sqlDrv.Dialect()
	expr := regionExpr(d, col, legacy)
	sel := entsql.Dialect(d).
		Select(entsql.As(expr, regionAlias), entsql.As(entsql.Count("*"), countAlias)).
		From(entsql.Table(r.table)).
		GroupBy(expr).
		OrderBy(entsql.Desc(countAlias), entsql.Asc(regionAlias))
	if province != "" {
		provExpr := regionExpr(d, r.cols.Province, r.cols.LegacyProvince)
		sel.Where(entsql.P(func(b *entsql.Builder) {
			b.WriteString(provExpr).WriteOp(entsql.OpEQ).Arg(province)
		}))
	}
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.data.sqlDrv.Query(ctx, query, args, rows); err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []biz.RegionCount{}
	for rows.Next() {
		var (
			name  entsql.NullString
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, classify(err)
		}
		if n := strings.TrimSpace(name.String); n != "" {
			out = append(out, biz.RegionCount{Name: n, Count: count})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// regionScript painless 表达式，与 SQL 的 COALESCE(NULLIF()) 等价。
func regionScript(col, legacy string) string {
	pick := func(f string) string {
		return fmt.Sprintf("(doc.containsKey('%[1]s') && doc['%[1]s'].size() > 0 && doc['%[1]s'].value != '' ? doc['%[1]s'].value : null)", f)
	}
	switch {
	case col != "" && legacy != "":
		return fmt.Sprintf("(%s != null ? %s : %s)", pick(col), pick(col), pick(legacy))
	case col != "":
		return pick(col)
	default:
		return pick(legacy)
	}
}

func (r *regionRepo) esCounts(ctx context.Context, col, legacy, province string) ([]biz.RegionCount, error) {
	if col == "" && legacy == "" {
		return []biz.RegionCount{}, nil
	}
	agg := elastic.NewTermsAggregation().
		Script(elastic.NewScript(regionScript(col, legacy))).
		Size(1000)
	query := elastic.NewBoolQuery()
	if province != "" {
		query.Filter(elastic.NewScriptQuery(
			elastic.NewScript(regionScript(r.cols.Province, r.cols.LegacyProvince) + " == params.p").
				Param("p", province)))
	}
	res, err := r.data.es.Search().
		Index(r.table).
		Query(query).
		Size(0).
		Aggregation(regionAlias, agg).
		Do(ctx)
	if err != nil {
		return nil, classifyElastic(err)
	}
	out := []biz.RegionCount{}
	terms, ok := res.Aggregations.Terms(regionAlias)
	if !ok {
		return out, nil
	}
	for _, bucket := range terms.Buckets {
		name := strings.TrimSpace(fmt.Sprint(bucket.Key))
		if name == "" {
			continue
		}
		out = append(out, biz.RegionCount{Name: name, Count: bucket.DocCount})
	}
	slices.SortStableFunc(out, func(a, b biz.RegionCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}
