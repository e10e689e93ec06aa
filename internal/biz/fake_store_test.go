package biz

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"placefinder-go/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// fakeStore 内存行存储，按与 SQL 适配器相同的语义解释 Query。
type fakeStore struct {
	mu     sync.Mutex
	tables map[string][]Row
	calls  []Query
	// fail 返回非 nil 时该次查询失败
	fail func(q *Query) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string][]Row{}}
}

func (s *fakeStore) add(table string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], rows...)
}

func (s *fakeStore) queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.calls...)
}

func (s *fakeStore) queriesOn(table string) []Query {
	var out []Query
	for _, q := range s.queries() {
		if q.Table == table {
			out = append(out, q)
		}
	}
	return out
}

func (s *fakeStore) Query(ctx context.Context, q *Query) (*RowSet, error) {
	s.mu.Lock()
	s.calls = append(s.calls, *q)
	fail := s.fail
	rows := append([]Row(nil), s.tables[q.Table]...)
	s.mu.Unlock()

	if fail != nil {
		if err := fail(q); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []Row
	for _, r := range rows {
		if fakeMatch(r, q) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range q.Order {
			c := fakeCompare(matched[i][o.Column], matched[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	out := &RowSet{}
	if q.Count != CountNone {
		n := int64(len(matched))
		out.Count = &n
	}
	if q.Range != nil {
		from, to := q.Range.From, q.Range.To+1
		if from > len(matched) {
			from = len(matched)
		}
		if to > len(matched) {
			to = len(matched)
		}
		matched = matched[from:to]
	}
	for _, r := range matched {
		sel := Row{}
		for _, c := range q.Select {
			if v, ok := r[c]; ok {
				sel[c] = v
			}
		}
		out.Rows = append(out.Rows, sel)
	}
	return out, nil
}

func fakeMatch(r Row, q *Query) bool {
	for _, f := range q.Filters {
		if !fakeFilter(r, f) {
			return false
		}
	}
	for _, g := range q.Or {
		ok := false
		for _, f := range g {
			if fakeFilter(r, f) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func fakeFilter(r Row, f Filter) bool {
	v := r[f.Column]
	switch f.Op {
	case OpEq:
		return v != nil && asString(v) == asString(f.Value)
	case OpIn:
		for _, id := range f.Value.([]string) {
			if asString(v) == id {
				return true
			}
		}
		return false
	case OpCS:
		switch arr := v.(type) {
		case []string:
			for _, e := range arr {
				if e == f.Value {
					return true
				}
			}
		case []any:
			for _, e := range arr {
				if e == f.Value {
					return true
				}
			}
		}
		return false
	case OpILike:
		if v == nil {
			return false
		}
		text, ok := v.(string)
		if !ok {
			b, _ := json.Marshal(v)
			text = string(b)
		}
		return likeRegexp(f.Value.(string)).MatchString(text)
	}
	return false
}

func likeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '\\':
			if i+1 < len(rs) {
				i++
				b.WriteString(regexp.QuoteMeta(string(rs[i])))
			}
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(rs[i])))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func fakeCompare(a, b any) int {
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(asString(a), asString(b))
}

func testPlaces() *conf.Places {
	return conf.DefaultPlaces()
}

func placeRow(id, name string, kv ...any) Row {
	r := Row{"manage_no": id, "place_name": name}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = kv[i+1]
	}
	return r
}

func statsRow(id string, avg float64, n int64) Row {
	return Row{"place_manage_no": id, "avg_rating": avg, "review_count": n}
}

func newTestUsecase(store RowStore) *PlaceUsecase {
	c := testPlaces()
	logger := log.NewStdLogger(nilWriter{})
	return NewPlaceUsecase(
		c,
		store,
		NewStrategyBuilder(c),
		NewOrchestrator(store, logger),
		NewStatsAggregator(store, nil, c, logger),
		NewNormalizer(c),
		logger,
	)
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

func itoa(i int) string { return strconv.Itoa(i) }
