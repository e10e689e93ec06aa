package biz

import (
	"context"
	"sync"
	"sync/atomic"
)

// ListFetcher 列表查询入口，PlaceUsecase 实现。
type ListFetcher interface {
	FetchPlacesList(ctx context.Context, q ListQuery) (*ListResult, error)
}

// ListSessionState 会话当前可见的状态。
type ListSessionState struct {
	Query  ListQuery
	Result *ListResult
	Err    error
	Token  uint64
}

// ListSession 持有一个列表视图的状态。每次查询领取递增的 token，
// 返回时只有 token 仍是最新的才写入状态，较慢的旧请求结果被静默丢弃。
type ListSession struct {
	fetcher ListFetcher
	token   atomic.Uint64

	mu    sync.RWMutex
	state ListSessionState
}

func NewListSession(fetcher ListFetcher, q ListQuery) *ListSession {
	s := &ListSession{fetcher: fetcher}
	s.state.Query = q
	return s
}

// State 返回状态快照。
func (s *ListSession) State() ListSessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Fetch 执行查询；applied 为 false 表示结果已过期被丢弃。
func (s *ListSession) Fetch(ctx context.Context, q ListQuery) (st ListSessionState, applied bool) {
	tok := s.token.Add(1)
	res, err := s.fetcher.FetchPlacesList(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.token.Load() {
		return s.state, false
	}
	s.state = ListSessionState{Query: q, Result: res, Err: err, Token: tok}
	return s.state, true
}

// Reload 按当前条件重新查询。
func (s *ListSession) Reload(ctx context.Context) (ListSessionState, bool) {
	return s.Fetch(ctx, s.State().Query)
}

// SetFilters 更换筛选条件并回到第一页，排序与页大小保持不变。
func (s *ListSession) SetFilters(ctx context.Context, f ListQuery) (ListSessionState, bool) {
	cur := s.State().Query
	f.Sort = cur.Sort
	f.PageSize = cur.PageSize
	return s.Fetch(ctx, f.WithPage(1))
}

// SetSort 更换排序并回到第一页。
func (s *ListSession) SetSort(ctx context.Context, sort string) (ListSessionState, bool) {
	q := s.State().Query
	q.Sort = sort
	return s.Fetch(ctx, q.WithPage(1))
}

func (s *ListSession) GoTo(ctx context.Context, page int) (ListSessionState, bool) {
	q, p := s.pager()
	return s.Fetch(ctx, q.WithPage(p.GoTo(page)))
}

func (s *ListSession) Next(ctx context.Context) (ListSessionState, bool) {
	q, p := s.pager()
	return s.Fetch(ctx, q.WithPage(p.Next()))
}

func (s *ListSession) Prev(ctx context.Context) (ListSessionState, bool) {
	q, p := s.pager()
	return s.Fetch(ctx, q.WithPage(p.Prev()))
}

// Pager 当前结果的分页状态。
func (s *ListSession) Pager() *Pager {
	_, p := s.pager()
	return p
}

func (s *ListSession) pager() (ListQuery, *Pager) {
	st := s.State()
	if st.Result != nil {
		q := st.Query
		q.PageSize = st.Result.PageSize
		return q, st.Result.Pager()
	}
	p := NewPager(st.Query.PageSize)
	if st.Query.Page > 0 {
		p.Page = st.Query.Page
	}
	return st.Query, p
}
