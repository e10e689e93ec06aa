package biz

import (
	"context"

	"placefinder-go/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const scanPageSize = 1000

// ListResult 一次列表查询的结果。TotalCount 为 nil 表示总数未知。
// HasNext 表示存在下一页：总数已知时按总数判断，未知时按满页判断。
// HasMore 与 Pager.HasMore 一致，只在总数未知且本页取满时为 true。
type ListResult struct {
	Items       []Place  `json:"items"`
	TotalCount  *int64   `json:"total_count"`
	Approximate bool     `json:"approximate"`
	HasNext     bool     `json:"has_next"`
	HasMore     bool     `json:"has_more"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	Sort        string   `json:"sort"`
	Strategy    Strategy `json:"strategy"`
	Attempts    int      `json:"attempts"`
}

// Pager 基于结果构造分页状态。去重可能让本页条数少于原始行数，满页判断以 HasMore 为准。
func (r *ListResult) Pager() *Pager {
	rows := len(r.Items)
	if r.TotalCount == nil && r.HasMore {
		rows = r.PageSize
	}
	p := NewPager(r.PageSize)
	p.Update(r.Page, r.TotalCount, rows)
	return p
}

func (r *ListResult) TotalPages() int {
	return r.Pager().TotalPages()
}

// PlaceUsecase 列表、详情与全量导出。
type PlaceUsecase struct {
	conf    *conf.Places
	store   RowStore
	builder *StrategyBuilder
	orch    *Orchestrator
	stats   *StatsAggregator
	norm    *Normalizer
	log     *log.Helper
}

func NewPlaceUsecase(c *conf.Places, store RowStore, builder *StrategyBuilder, orch *Orchestrator, stats *StatsAggregator, norm *Normalizer, logger log.Logger) *PlaceUsecase {
	return &PlaceUsecase{
		conf:    c,
		store:   store,
		builder: builder,
		orch:    orch,
		stats:   stats,
		norm:    norm,
		log:     log.NewHelper(log.With(logger, "module", "biz/place")),
	}
}

// FetchPlacesList 列表查询的唯一入口。相同输入在数据不变时结果相同。
func (uc *PlaceUsecase) FetchPlacesList(ctx context.Context, q ListQuery) (*ListResult, error) {
	q = q.Normalize(uc.conf.DefaultPageSize, uc.conf.MaxPageSize)
	fetchID := uuid.NewString()
	l := uc.log.WithContext(ctx)

	plan := uc.builder.Build(q)
	out, err := uc.orch.Execute(ctx, plan)
	if err != nil {
		l.Errorw("msg", "list query failed", "fetch_id", fetchID, "err", err)
		return nil, err
	}
	stats, err := uc.stats.GetStats(ctx, uc.rowIDs(out.Rows))
	if err != nil {
		l.Errorw("msg", "list stats failed", "fetch_id", fetchID, "err", err)
		return nil, err
	}
	items := uc.norm.Normalize(out.Rows, stats)
	if dropped := len(out.Rows) - len(items); dropped > 0 {
		l.Debugf("fetch_id=%s dropped %d malformed or duplicate rows", fetchID, dropped)
	}

	res := &ListResult{
		Items:       items,
		TotalCount:  out.Count,
		Approximate: out.Count != nil && out.CountMode == CountApproximate,
		Page:        q.Page,
		PageSize:    q.PageSize,
		Sort:        plan.Sort,
		Strategy:    out.Strategy,
		Attempts:    out.Attempts,
	}
	res.HasMore = out.Count == nil && len(out.Rows) == q.PageSize
	if out.Count != nil {
		res.HasNext = int64(q.Offset+len(out.Rows)) < *out.Count
	} else {
		res.HasNext = res.HasMore
	}
	l.Infow(
		"msg", "list fetched",
		"fetch_id", fetchID,
		"strategy", out.Strategy,
		"count_mode", out.CountMode,
		"attempts", out.Attempts,
		"rows", len(items),
	)
	return res, nil
}

// GetPlace 按管理编号查询单个店铺，附带评分统计。
func (uc *PlaceUsecase) GetPlace(ctx context.Context, id string) (*Place, error) {
	if id == "" {
		return nil, ErrPlaceNotFound
	}
	cols := uc.conf.Columns
	rs, err := uc.store.Query(ctx, &Query{
		Table:   uc.conf.Table,
		Select:  uc.builder.selectColumns(),
		Filters: []Filter{{Column: cols.ID, Op: OpEq, Value: id}},
		Range:   &Range{From: 0, To: 0},
	})
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 {
		return nil, ErrPlaceNotFound
	}
	p, ok := uc.norm.Place(rs.Rows[0])
	if !ok {
		return nil, ErrPlaceNotFound
	}
	stats, err := uc.stats.GetStats(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	if st, ok := stats[p.ID]; ok {
		p.AvgRating = st.AvgRating
		p.ReviewCount = st.ReviewCount
	}
	return &p, nil
}

// ScanAll 按 id 升序分页遍历全部店铺，每页回调一次。
func (uc *PlaceUsecase) ScanAll(ctx context.Context, fn func([]Place) error) error {
	cols := uc.conf.Columns
	for from := 0; ; from += scanPageSize {
		rs, err := uc.store.Query(ctx, &Query{
			Table:  uc.conf.Table,
			Select: uc.builder.selectColumns(),
			Order:  []Order{{Column: cols.ID}},
			Range:  &Range{From: from, To: from + scanPageSize - 1},
		})
		if err != nil {
			return err
		}
		if len(rs.Rows) == 0 {
			return nil
		}
		stats, err := uc.stats.GetStats(ctx, uc.rowIDs(rs.Rows))
		if err != nil {
			return err
		}
		if err := fn(uc.norm.Normalize(rs.Rows, stats)); err != nil {
			return err
		}
		if len(rs.Rows) < scanPageSize {
			return nil
		}
	}
}

func (uc *PlaceUsecase) rowIDs(rows []Row) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, asString(r[uc.conf.Columns.ID]))
	}
	return ids
}
