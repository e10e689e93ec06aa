package biz

import "math"

// Pager 分页状态。TotalCount 为 nil 表示总数未知，此时用"本页是否满页"判断是否还有下一页。
type Pager struct {
	Page       int
	PageSize   int
	TotalCount *int64
	RowsOnPage int
}

// PageGap 页码窗口中的省略标记。
const PageGap = 0

func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Pager{Page: 1, PageSize: pageSize}
}

// Update 用一次查询结果刷新状态。
func (p *Pager) Update(page int, total *int64, rows int) {
	if page < 1 {
		page = 1
	}
	p.Page = page
	p.TotalCount = total
	p.RowsOnPage = rows
}

func (p *Pager) TotalPages() int {
	if p.TotalCount != nil {
		if p.PageSize <= 0 || *p.TotalCount <= 0 {
			return 0
		}
		return int((*p.TotalCount + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	if p.RowsOnPage > 0 {
		return 1
	}
	return 0
}

func (p *Pager) HasMore() bool {
	return p.TotalCount == nil && p.RowsOnPage == p.PageSize && p.PageSize > 0
}

func (p *Pager) HasNext() bool {
	if p.TotalCount == nil {
		return p.HasMore()
	}
	return p.Page < p.TotalPages()
}

func (p *Pager) HasPrev() bool {
	return p.Page > 1
}

// GoTo 总页数已知时限制在 [1, TotalPages]，否则只保证 >= 1。
func (p *Pager) GoTo(page int) int {
	if p.TotalCount != nil {
		if tp := p.TotalPages(); tp > 0 && page > tp {
			page = tp
		}
	}
	if page < 1 {
		page = 1
	}
	p.Page = page
	return page
}

func (p *Pager) Next() int {
	return p.GoTo(p.Page + 1)
}

func (p *Pager) Prev() int {
	return p.GoTo(p.Page - 1)
}

// Reset 筛选或排序变化时回到第一页。
func (p *Pager) Reset() {
	p.Page = 1
	p.TotalCount = nil
	p.RowsOnPage = 0
}

// Offset 当前页的起始偏移。
func (p *Pager) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Window 返回要展示的页码：首页、末页与当前页前后 radius 页，间隔处为 PageGap。
// 总页数未知时末页取当前页（有下一页时再多一页）。只遍历窗口内的页码。
func (p *Pager) Window(radius int) []int {
	last := p.TotalPages()
	if p.TotalCount == nil {
		last = p.Page
		if p.HasMore() && last < math.MaxInt {
			last++
		}
	}
	if last < 1 {
		return nil
	}
	radius = max(radius, 0)
	cur := min(max(p.Page, 1), last)

	out := make([]int, 0, 2*radius+5)
	prev := 0
	add := func(i int) {
		if prev != 0 && i-prev > 1 {
			out = append(out, PageGap)
		}
		out = append(out, i)
		prev = i
	}
	add(1)
	lo := max(2, cur-radius)
	hi := last - 1
	if radius < hi-cur {
		hi = cur + radius
	}
	for i := lo; i <= hi; i++ {
		add(i)
	}
	if last > 1 {
		add(last)
	}
	return out
}
