package biz

import (
	"github.com/go-kratos/kratos/v2/errors"
)

var (
	BadRequest         = "BAD_REQUEST"
	PlaceNotFound      = "PLACE_NOT_FOUND"
	BackendUnavailable = "BACKEND_UNAVAILABLE"
	BackendError       = "BACKEND_ERROR"
	StatsUnavailable   = "STATS_UNAVAILABLE"
	QueryPlanInvalid   = "QUERY_PLAN_INVALID"
)

const (
	SortRecent  = "recent"
	SortNameAsc = "name_asc"
	// SortName 旧版前端使用的别名
	SortName = "name"
)

var (
	ErrPlaceNotFound      = errors.New(404, PlaceNotFound, "place not found")
	ErrBackendUnavailable = errors.New(503, BackendUnavailable, "backend temporarily unavailable")
	ErrBackendError       = errors.New(500, BackendError, "backend error")
	ErrStatsUnavailable   = errors.New(500, StatsUnavailable, "review statistics unavailable")
	ErrEmptyPlan          = errors.New(500, QueryPlanInvalid, "empty query plan")
	ErrAttemptsExhausted  = errors.New(500, QueryPlanInvalid, "query attempts exhausted")
)

// StatsError 评分统计失败，列表整体失败。
type StatsError struct {
	Err error
}

func (e *StatsError) Error() string {
	return "place stats: " + e.Err.Error()
}

func (e *StatsError) Unwrap() error {
	return e.Err
}
