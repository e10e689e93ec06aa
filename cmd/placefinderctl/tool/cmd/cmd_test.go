package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"placefinder-go/internal/biz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlaces 内存中的固定数据集，按页切分。
type fakePlaces struct {
	items   []biz.Place
	queries []biz.ListQuery
	err     error
}

func newFakePlaces(n int) *fakePlaces {
	f := &fakePlaces{}
	for i := 1; i <= n; i++ {
		f.items = append(f.items, biz.Place{ID: fmt.Sprintf("P%02d", i), Name: fmt.Sprintf("place%02d", i)})
	}
	return f
}

func (f *fakePlaces) FetchPlacesList(_ context.Context, q biz.ListQuery) (*biz.ListResult, error) {
	q = q.Normalize(10, 100)
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	start := min((q.Page-1)*q.PageSize, len(f.items))
	end := min(start+q.PageSize, len(f.items))
	total := int64(len(f.items))
	return &biz.ListResult{
		Items:      f.items[start:end],
		TotalCount: &total,
		HasNext:    end < len(f.items),
		Page:       q.Page,
		PageSize:   q.PageSize,
		Sort:       q.Sort,
		Strategy:   biz.StrategyPrimary,
	}, nil
}

func (f *fakePlaces) ScanAll(_ context.Context, fn func([]biz.Place) error) error {
	for start := 0; start < len(f.items); start += 3 {
		if err := fn(f.items[start:min(start+3, len(f.items))]); err != nil {
			return err
		}
	}
	return f.err
}

func TestBrowse(t *testing.T) {
	f := newFakePlaces(25)
	var out bytes.Buffer
	in := strings.NewReader("n\nn\nn\np\ng 1\ns name_asc\nf 국밥\nbogus\ng x\nq\n")
	require.NoError(t, browse(context.Background(), f, biz.ListQuery{Sort: biz.SortRecent}, in, &out))

	var pages []int
	for _, q := range f.queries {
		pages = append(pages, q.Page)
	}
	// 第 3 页为末页，再次 n 停留在末页
	assert.Equal(t, []int{1, 2, 3, 3, 2, 1, 1, 1}, pages)
	last := f.queries[len(f.queries)-1]
	assert.Equal(t, "국밥", last.Query)
	assert.Equal(t, biz.SortNameAsc, last.Sort)
	assert.Contains(t, out.String(), "未知命令")
	assert.Contains(t, out.String(), "用法: g")
	assert.Contains(t, out.String(), "P21")
}

func TestBrowseShowsErrors(t *testing.T) {
	f := newFakePlaces(5)
	f.err = errors.New("boom")
	var out bytes.Buffer
	require.NoError(t, browse(context.Background(), f, biz.ListQuery{}, strings.NewReader("q\n"), &out))
	assert.Contains(t, out.String(), "查询失败: boom")
}

func TestPageSummary(t *testing.T) {
	total := int64(95)
	res := &biz.ListResult{Page: 5, PageSize: 10, TotalCount: &total, Strategy: biz.StrategySecondary}
	assert.Equal(t, "第 5 页/10，共 95 条  1 … 3 4 [5] 6 7 … 10  (secondary)", pageSummary(res))

	res = &biz.ListResult{Page: 1, PageSize: 10}
	assert.Equal(t, "第 1 页，总数未知", pageSummary(res))
}

func TestExport(t *testing.T) {
	f := newFakePlaces(7)

	var buf bytes.Buffer
	n, err := export(context.Background(), f, "jsonl", &buf)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	var p biz.Place
	require.NoError(t, json.Unmarshal([]byte(lines[6]), &p))
	assert.Equal(t, "P07", p.ID)

	buf.Reset()
	n, err = export(context.Background(), f, "csv", &buf)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.True(t, strings.HasPrefix(buf.String(), "id,name,"))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 8)

	f.err = errors.New("scan failed")
	_, err = export(context.Background(), f, "csv", &buf)
	assert.EqualError(t, err, "scan failed")
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, waitReady(ctx, ts.Client(), ts.URL, 10*time.Millisecond))
	assert.EqualValues(t, 3, calls.Load())

	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorContains(t, waitReady(ctx, ts.Client(), "http://127.0.0.1:1/healthz", 10*time.Millisecond), "超时")
}

func TestPrintReviews(t *testing.T) {
	var out bytes.Buffer
	printReviews(&out, nil)
	assert.Equal(t, "暂无评论\n", out.String())

	out.Reset()
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)
	printReviews(&out, []biz.Review{
		{ID: 2, Nickname: "민수", Rating: 4.5, Content: "국물이 진해요", CreatedAt: &created, UpCount: 3, DownCount: 1},
		{ID: 1, Rating: 2},
	})
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "민수")
	assert.Contains(t, lines[0], "2024-05-01 09:30")
	assert.Contains(t, lines[0], "+3/-1")
	assert.Equal(t, "    국물이 진해요", lines[1])
	assert.Contains(t, lines[2], "匿名")
	assert.Contains(t, lines[2], "  -  ")
}
