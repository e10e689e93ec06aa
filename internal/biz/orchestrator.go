package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
)

// maxAttempts 计数降级与后备查询各最多一次。
const maxAttempts = 3

// Outcome 最终采用的查询结果。
type Outcome struct {
	Rows      []Row
	Count     *int64
	CountMode CountMode
	Strategy  Strategy
	Attempts  int
}

// empty 估算计数不可信（Postgres 估算至少为 1），只有精确计数才参与判断。
func (o *Outcome) empty() bool {
	if len(o.Rows) > 0 {
		return false
	}
	return o.CountMode != CountExact || o.Count == nil || *o.Count == 0
}

// Orchestrator 依次执行候选查询：
// 主查询（精确计数）遇到超时或服务端错误时改用估算计数重试；
// 主查询为空且存在地区/标签过滤时执行后备查询，仅当后备查询有数据才采用。
type Orchestrator struct {
	store RowStore
	log   *log.Helper
}

func NewOrchestrator(store RowStore, logger log.Logger) *Orchestrator {
	return &Orchestrator{store: store, log: log.NewHelper(log.With(logger, "module", "biz/orchestrator"))}
}

func (o *Orchestrator) Execute(ctx context.Context, plan *Plan) (*Outcome, error) {
	if plan == nil || len(plan.Candidates) == 0 {
		return nil, ErrEmptyPlan
	}
	var (
		best     *Outcome
		idx      int
		attempts int
		mode     = CountExact
	)
	for attempts < maxAttempts && idx < len(plan.Candidates) {
		c := plan.Candidates[idx]
		q := *c.Query
		q.Count = mode
		attempts++

		rs, err := o.store.Query(ctx, &q)
		if err != nil {
			// 调用方自己取消时不重试
			if IsTransient(err) && ctx.Err() == nil && mode == CountExact {
				listAttempts.WithLabelValues(string(c.Strategy), string(mode), "transient").Inc()
				o.log.WithContext(ctx).Warnf("%s query failed, retry with approximate count: %v", c.Strategy, err)
				mode = CountApproximate
				continue
			}
			listAttempts.WithLabelValues(string(c.Strategy), string(mode), "error").Inc()
			if best == nil {
				return nil, err
			}
			o.log.WithContext(ctx).Warnf("%s query failed, keep %s result: %v", c.Strategy, best.Strategy, err)
			break
		}

		out := &Outcome{Rows: rs.Rows, Count: rs.Count, CountMode: mode, Strategy: c.Strategy}
		if out.empty() {
			listAttempts.WithLabelValues(string(c.Strategy), string(mode), "empty").Inc()
		} else {
			listAttempts.WithLabelValues(string(c.Strategy), string(mode), "ok").Inc()
		}
		if best == nil {
			best = out
		} else if len(out.Rows) > 0 {
			fallbackAdopted.WithLabelValues(string(c.Strategy)).Inc()
			o.log.WithContext(ctx).Infof("adopt %s result rows=%d", c.Strategy, len(out.Rows))
			best = out
		}
		if !best.empty() || !plan.Filtered {
			break
		}
		idx++
	}
	if best == nil {
		return nil, ErrAttemptsExhausted
	}
	best.Attempts = attempts
	return best, nil
}
