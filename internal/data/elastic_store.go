package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/olivere/elastic/v7"
)

// approximateHits 近似计数时最多精确统计的命中数。
const approximateHits = 10000

// ElasticStore 以 Elasticsearch 索引作为行存储，索引名与表名一致。
type ElasticStore struct {
	client *elastic.Client
	places *conf.Places
	log    *log.Helper
}

func NewElasticStore(client *elastic.Client, c *conf.Places, logger log.Logger) *ElasticStore {
	return &ElasticStore{
		client: client,
		places: c,
		log:    log.NewHelper(log.With(logger, "module", "data/elastic")),
	}
}

func (s *ElasticStore) Query(ctx context.Context, q *biz.Query) (*biz.RowSet, error) {
	svc, err := s.search(q)
	if err != nil {
		return nil, err
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, classifyElastic(err)
	}
	out := &biz.RowSet{Rows: make([]biz.Row, 0, len(res.Hits.Hits))}
	for _, hit := range res.Hits.Hits {
		var r biz.Row
		if err := json.Unmarshal(hit.Source, &r); err != nil {
			s.log.WithContext(ctx).Debugf("skip hit %s: %v", hit.Id, err)
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	if q.Count != biz.CountNone && res.Hits.TotalHits != nil {
		n := res.Hits.TotalHits.Value
		out.Count = &n
	}
	return out, nil
}

func (s *ElasticStore) search(q *biz.Query) (*elastic.SearchService, error) {
	query, err := buildElasticQuery(q)
	if err != nil {
		return nil, err
	}
	svc := s.client.Search().Index(q.Table).Query(query)
	if len(q.Select) > 0 {
		svc = svc.FetchSourceContext(elastic.NewFetchSourceContext(true).Include(q.Select...))
	}
	for _, o := range q.Order {
		svc = svc.SortBy(elastic.NewFieldSort(o.Column).Order(!o.Desc).UnmappedType("keyword"))
	}
	if q.Range != nil {
		svc = svc.From(q.Range.From).Size(q.Range.Limit())
	}
	switch q.Count {
	case biz.CountExact:
		svc = svc.TrackTotalHits(true)
	case biz.CountApproximate:
		svc = svc.TrackTotalHits(approximateHits)
	default:
		svc = svc.TrackTotalHits(false)
	}
	return svc, nil
}

// buildElasticQuery 普通过滤放在 filter，每个 OR 组是一个 should 子查询。
func buildElasticQuery(q *biz.Query) (elastic.Query, error) {
	root := elastic.NewBoolQuery()
	for _, f := range q.Filters {
		eq, err := elasticFilter(f)
		if err != nil {
			return nil, err
		}
		root.Filter(eq)
	}
	for _, group := range q.Or {
		if len(group) == 0 {
			continue
		}
		should := elastic.NewBoolQuery().MinimumNumberShouldMatch(1)
		for _, f := range group {
			eq, err := elasticFilter(f)
			if err != nil {
				return nil, err
			}
			should.Should(eq)
		}
		root.Filter(should)
	}
	return root, nil
}

func elasticFilter(f biz.Filter) (elastic.Query, error) {
	switch f.Op {
	case biz.OpEq, biz.OpCS:
		return elastic.NewTermQuery(f.Column, f.Value), nil
	case biz.OpIn:
		return elastic.NewTermsQuery(f.Column, inValues(f.Value)...), nil
	case biz.OpILike:
		pattern, ok := f.Value.(string)
		if !ok {
			return nil, &biz.StoreError{Code: biz.CodePermanent, Message: fmt.Sprintf("ilike on %s needs a string pattern", f.Column)}
		}
		return elastic.NewWildcardQuery(f.Column, likeToWildcard(pattern)).CaseInsensitive(true), nil
	default:
		return nil, &biz.StoreError{Code: biz.CodePermanent, Message: fmt.Sprintf("unsupported operator %q", f.Op)}
	}
}

// likeToWildcard 把反斜杠转义的 LIKE 模式转换为 wildcard 语法。
func likeToWildcard(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if escaped {
			escaped = false
			switch r {
			case '*', '?', '\\':
				b.WriteByte('\\')
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '%':
			b.WriteByte('*')
		case '_':
			b.WriteByte('?')
		case '*', '?':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EnsureIndex 索引不存在时按列配置创建映射，字符串列均为 keyword。
func (s *ElasticStore) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.IndexExists(s.places.Table).Do(ctx)
	if err != nil {
		return classifyElastic(err)
	}
	if exists {
		return nil
	}
	res, err := s.client.CreateIndex(s.places.Table).BodyJson(indexMapping(s.places.Columns)).Do(ctx)
	if err != nil {
		return classifyElastic(err)
	}
	if !res.Acknowledged {
		s.log.WithContext(ctx).Warnf("create index %s was not acknowledged", s.places.Table)
	}
	return nil
}

func indexMapping(c *conf.Columns) map[string]any {
	props := map[string]any{}
	for _, name := range []string{
		c.ID, c.Name, c.RoadAddress, c.LotAddress, c.SubCategory, c.Category, c.FoodCategory,
		c.BusinessType, c.HygieneType, c.Tags, c.Province, c.District, c.LegacyProvince, c.LegacyDistrict,
	} {
		if name != "" {
			props[name] = map[string]any{"type": "keyword"}
		}
	}
	if c.CreatedAt != "" {
		props[c.CreatedAt] = map[string]any{"type": "date"}
	}
	return map[string]any{
		"settings": map[string]any{"index": map[string]any{"max_result_window": 20000}},
		"mappings": map[string]any{"properties": props},
	}
}

// Index 批量写入店铺文档，文档 id 为管理编号。
func (s *ElasticStore) Index(ctx context.Context, rows []biz.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	bulk := s.client.Bulk().Index(s.places.Table)
	for _, r := range rows {
		id := fmt.Sprint(r[s.places.Columns.ID])
		bulk.Add(elastic.NewBulkIndexRequest().Id(id).Doc(r))
	}
	res, err := bulk.Do(ctx)
	if err != nil {
		return 0, classifyElastic(err)
	}
	failed := res.Failed()
	for _, item := range failed {
		if item.Error != nil {
			s.log.WithContext(ctx).Warnf("index %s: %s", item.Id, item.Error.Reason)
		}
	}
	return len(rows) - len(failed), nil
}

func classifyElastic(err error) error {
	if err == nil {
		return nil
	}
	var e *elastic.Error
	if errors.As(err, &e) {
		code := biz.CodePermanent
		switch {
		case e.Status == 408 || e.Status == 504:
			code = biz.CodeStatementTimeout
		case e.Status == 429 || e.Status >= 500:
			code = biz.CodeServerError
		}
		return storeError(code, strconv.Itoa(e.Status), err)
	}
	if elastic.IsConnErr(err) {
		return storeError(biz.CodeServerError, "", err)
	}
	return classify(err)
}
