package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqljson"
	"github.com/go-kratos/kratos/v2/log"
)

// NewRowStore 按驱动选择 SQL 或 Elasticsearch 实现。
func NewRowStore(d *Data, logger log.Logger) biz.RowStore {
	if d.es != nil {
		return NewElasticStore(d.es, d.places, logger)
	}
	return NewSQLStore(d.sqlDrv, d.places, logger)
}

// SQLStore 基于 ent SQL 构建器的行存储，支持 postgres、mysql 与 sqlite。
type SQLStore struct {
	drv     *entsql.Driver
	dialect string
	json    map[string]bool
	log     *log.Helper
}

func NewSQLStore(drv *entsql.Driver, c *conf.Places, logger log.Logger) *SQLStore {
	jsonCols := map[string]bool{}
	if c.Columns.Tags != "" {
		jsonCols[c.Columns.Tags] = true
	}
	return &SQLStore{
		drv:     drv,
		dialect: drv.Dialect(),
		json:    jsonCols,
		log:     log.NewHelper(log.With(logger, "module", "data/sql")),
	}
}

func (s *SQLStore) Query(ctx context.Context, q *biz.Query) (*biz.RowSet, error) {
	if q.Table == "" {
		return nil, &biz.StoreError{Code: biz.CodePermanent, Message: "empty table"}
	}
	where, err := s.where(q)
	if err != nil {
		return nil, err
	}
	sel := entsql.Dialect(s.dialect).Select(q.Select...).From(entsql.Table(q.Table))
	if where != nil {
		sel.Where(where)
	}
	for _, o := range q.Order {
		if o.Desc {
			sel.OrderBy(entsql.Desc(o.Column))
		} else {
			sel.OrderBy(entsql.Asc(o.Column))
		}
	}
	if q.Range != nil {
		sel.Limit(q.Range.Limit()).Offset(q.Range.From)
	}
	query, args := sel.Query()
	rows, err := s.scan(ctx, query, args)
	if err != nil {
		return nil, classify(err)
	}
	out := &biz.RowSet{Rows: rows}

	switch q.Count {
	case biz.CountExact:
		n, err := s.count(ctx, q.Table, where)
		if err != nil {
			return nil, classify(err)
		}
		out.Count = &n
	case biz.CountApproximate:
		n, err := s.estimate(ctx, q.Table, where)
		if err != nil {
			return nil, classify(err)
		}
		out.Count = n
	}
	return out, nil
}

// where 普通过滤条件以 AND 连接，每个 OR 组作为一个整体参与 AND。
func (s *SQLStore) where(q *biz.Query) (*entsql.Predicate, error) {
	var preds []*entsql.Predicate
	for _, f := range q.Filters {
		p, err := s.filter(f)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	for _, group := range q.Or {
		if len(group) == 0 {
			continue
		}
		ors := make([]*entsql.Predicate, 0, len(group))
		for _, f := range group {
			p, err := s.filter(f)
			if err != nil {
				return nil, err
			}
			ors = append(ors, p)
		}
		preds = append(preds, entsql.Or(ors...))
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	default:
		return entsql.And(preds...), nil
	}
}

func (s *SQLStore) filter(f biz.Filter) (*entsql.Predicate, error) {
	switch f.Op {
	case biz.OpEq:
		return entsql.EQ(f.Column, f.Value), nil
	case biz.OpIn:
		vals := inValues(f.Value)
		if len(vals) == 0 {
			return entsql.False(), nil
		}
		return entsql.In(f.Column, vals...), nil
	case biz.OpILike:
		pattern, ok := f.Value.(string)
		if !ok {
			return nil, &biz.StoreError{Code: biz.CodePermanent, Message: fmt.Sprintf("ilike on %s needs a string pattern", f.Column)}
		}
		return s.ilike(f.Column, pattern), nil
	case biz.OpCS:
		return s.contains(f.Column, f.Value), nil
	default:
		return nil, &biz.StoreError{Code: biz.CodePermanent, Message: fmt.Sprintf("unsupported operator %q", f.Op)}
	}
}

// ilike 模式已按 LIKE 规则转义，转义符为反斜杠。
func (s *SQLStore) ilike(col, pattern string) *entsql.Predicate {
	isJSON := s.json[col]
	return entsql.P(func(b *entsql.Builder) {
		switch b.Dialect() {
		case dialect.Postgres:
			if isJSON {
				b.WriteString("CAST(").Ident(col).WriteString(" AS TEXT)")
			} else {
				b.Ident(col)
			}
			b.WriteString(" ILIKE ").Arg(pattern)
		case dialect.MySQL:
			b.WriteString("LOWER(")
			if isJSON {
				b.WriteString("CAST(").Ident(col).WriteString(" AS CHAR)")
			} else {
				b.Ident(col)
			}
			b.WriteString(") LIKE ").Arg(strings.ToLower(pattern))
		default:
			b.WriteString("LOWER(").Ident(col).WriteString(") LIKE ").Arg(strings.ToLower(pattern))
			b.WriteString(" ESCAPE ").Arg(`\`)
		}
	})
}

// contains 数组列包含某个元素；sqlite 中非 JSON 文本直接视为不匹配。
func (s *SQLStore) contains(col string, v any) *entsql.Predicate {
	return entsql.P(func(b *entsql.Builder) {
		if b.Dialect() == dialect.SQLite {
			b.Wrap(func(b *entsql.Builder) {
				b.WriteString("JSON_VALID(").Ident(col).WriteString(") AND ")
				b.Join(sqljson.ValueContains(col, v))
			})
			return
		}
		b.Join(sqljson.ValueContains(col, v))
	})
}

func (s *SQLStore) count(ctx context.Context, table string, where *entsql.Predicate) (int64, error) {
	sel := entsql.Dialect(s.dialect).Select(entsql.Count("*")).From(entsql.Table(table))
	if where != nil {
		sel.Where(where)
	}
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt64(rows)
}

type explainPlan struct {
	Plan struct {
		PlanRows float64 `json:"Plan Rows"`
	} `json:"Plan"`
}

// estimate 只有 postgres 能从执行计划读出估算行数，其他方言返回 nil。
func (s *SQLStore) estimate(ctx context.Context, table string, where *entsql.Predicate) (*int64, error) {
	if s.dialect != dialect.Postgres {
		return nil, nil
	}
	sel := entsql.Dialect(s.dialect).Select().From(entsql.Table(table))
	if where != nil {
		sel.Where(where)
	}
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, "EXPLAIN (FORMAT JSON) "+query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	v, err := entsql.ScanValue(rows)
	if err != nil {
		return nil, err
	}
	n, ok := parseExplain(v)
	if !ok {
		s.log.WithContext(ctx).Warnf("unreadable explain output for %s", table)
		return nil, nil
	}
	return &n, nil
}

func parseExplain(v any) (int64, bool) {
	var raw []byte
	switch t := v.(type) {
	case []byte:
		raw = t
	case string:
		raw = []byte(t)
	default:
		return 0, false
	}
	var plans []explainPlan
	if err := json.Unmarshal(raw, &plans); err != nil || len(plans) == 0 {
		return 0, false
	}
	return int64(plans[0].Plan.PlanRows), true
}

func (s *SQLStore) scan(ctx context.Context, query string, args []any) ([]biz.Row, error) {
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []biz.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(biz.Row, len(cols))
		for i, c := range cols {
			r[c] = s.value(c, vals[i])
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// value []byte 转为字符串；JSON 列尽量解码，失败时保留原文。
func (s *SQLStore) value(col string, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if !s.json[col] {
		return v
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(str), &decoded); err != nil {
		return str
	}
	return decoded
}

func inValues(v any) []any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		return t
	case nil:
		return nil
	default:
		return []any{t}
	}
}
