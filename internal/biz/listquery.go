package biz

import "math"

// ListQuery 列表查询条件，由调用方按值传入。
type ListQuery struct {
	Query     string // 自由文本，匹配名称与地址
	Situation string // 场景标签，如 solo、rain
	Food      string
	Province  string
	District  string
	Sort      string // recent | name_asc
	Page      int    // 从 1 开始，0 表示未指定
	Offset    int    // 仅在 Page 未指定时使用
	PageSize  int
}

// Normalize 补齐分页参数：PageSize 取默认值并受上限约束；
// 指定 Page 时 Offset = (Page-1)*PageSize，否则由 Offset 反推 Page。
func (q ListQuery) Normalize(defaultSize, maxSize int) ListQuery {
	if q.PageSize <= 0 {
		q.PageSize = defaultSize
	}
	if maxSize > 0 && q.PageSize > maxSize {
		q.PageSize = maxSize
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	last := lastPage(q.PageSize)
	if q.Page > 0 {
		q.Page = min(q.Page, last)
		q.Offset = (q.Page - 1) * q.PageSize
		return q
	}
	q.Offset = min(max(q.Offset, 0), (last-1)*q.PageSize)
	q.Page = q.Offset/q.PageSize + 1
	return q
}

// lastPage 偏移量与区间上界 Offset+PageSize-1 都不溢出 int 的最大页码。
func lastPage(pageSize int) int {
	if pageSize <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / pageSize
}

// WithPage 翻页，其余条件不变。
func (q ListQuery) WithPage(page int) ListQuery {
	if page < 1 {
		page = 1
	}
	q.Page = min(page, lastPage(q.PageSize))
	q.Offset = (q.Page - 1) * q.PageSize
	return q
}
