package biz

import (
	"placefinder-go/internal/conf"
)

// Strategy 候选查询的名称，出现在结果与指标中。
type Strategy string

const (
	StrategyPrimary   Strategy = "primary"
	StrategySecondary Strategy = "secondary"
)

// Candidate 一个候选查询。
type Candidate struct {
	Strategy Strategy
	Query    *Query
}

// Plan 按优先级排列的候选查询。只有存在地区或标签过滤时才会有 secondary。
type Plan struct {
	Candidates []Candidate
	// Filtered 地区或标签过滤生效，主查询为空时才值得尝试后备查询
	Filtered bool
	Sort     string
	Range    Range
}

// StrategyBuilder 根据 ListQuery 构造候选查询，兼顾新旧两套地区列与数组/字符串两种标签表示。
type StrategyBuilder struct {
	table string
	cols  *conf.Columns
}

func NewStrategyBuilder(c *conf.Places) *StrategyBuilder {
	return &StrategyBuilder{table: c.Table, cols: c.Columns}
}

// Build q 应已 Normalize。
func (b *StrategyBuilder) Build(q ListQuery) *Plan {
	kw := SanitizeKeyword(q.Query)
	food := SanitizeKeyword(q.Food)
	tag := SanitizeKeyword(q.Situation)
	province := SanitizeKeyword(q.Province)
	district := SanitizeKeyword(q.District)

	rng := Range{From: q.Offset, To: q.Offset + q.PageSize - 1}
	sort, order := b.order(q.Sort)

	var common []OrGroup
	if food != "" {
		common = append(common, b.anyLike(food, b.cols.FoodCategory, b.cols.Category, b.cols.HygieneType, b.cols.SubCategory, b.cols.BusinessType))
	}
	if kw != "" {
		common = append(common, b.anyLike(kw, b.cols.Name, b.cols.RoadAddress, b.cols.LotAddress))
	}

	plan := &Plan{Sort: sort, Range: rng, Filtered: province != "" || district != "" || tag != ""}

	primary := b.base(order, rng, common)
	if province != "" {
		primary.Filters = append(primary.Filters, Filter{Column: firstColumn(b.cols.Province, b.cols.LegacyProvince), Op: OpILike, Value: ContainsPattern(province)})
	}
	if district != "" {
		primary.Filters = append(primary.Filters, Filter{Column: firstColumn(b.cols.District, b.cols.LegacyDistrict), Op: OpILike, Value: ContainsPattern(district)})
	}
	if tag != "" {
		primary.Filters = append(primary.Filters, Filter{Column: b.cols.Tags, Op: OpCS, Value: tag})
	}
	plan.Candidates = append(plan.Candidates, Candidate{Strategy: StrategyPrimary, Query: primary})

	if !plan.Filtered {
		return plan
	}
	// 后备查询：地区同时匹配新旧列（单层 OR），标签按字符串子串匹配
	secondary := b.base(order, rng, common)
	changed := false
	for _, lv := range []struct {
		kw, col, legacy string
	}{
		{province, b.cols.Province, b.cols.LegacyProvince},
		{district, b.cols.District, b.cols.LegacyDistrict},
	} {
		if lv.kw == "" {
			continue
		}
		if lv.col != "" && lv.legacy != "" && lv.col != lv.legacy {
			secondary.Or = append(secondary.Or, b.anyLike(lv.kw, lv.col, lv.legacy))
			changed = true
			continue
		}
		secondary.Filters = append(secondary.Filters, Filter{Column: firstColumn(lv.col, lv.legacy), Op: OpILike, Value: ContainsPattern(lv.kw)})
	}
	if tag != "" {
		secondary.Filters = append(secondary.Filters, Filter{Column: b.cols.Tags, Op: OpILike, Value: ContainsPattern(tag)})
		changed = true
	}
	if changed {
		plan.Candidates = append(plan.Candidates, Candidate{Strategy: StrategySecondary, Query: secondary})
	}
	return plan
}

func (b *StrategyBuilder) base(order []Order, rng Range, groups []OrGroup) *Query {
	q := &Query{
		Table:  b.table,
		Select: b.selectColumns(),
		Order:  order,
		Range:  &Range{From: rng.From, To: rng.To},
		Count:  CountExact,
	}
	for _, g := range groups {
		q.Or = append(q.Or, append(OrGroup(nil), g...))
	}
	return q
}

// order 返回规范化后的排序名与排序列；总是追加 id 作为稳定分页的次序键。
func (b *StrategyBuilder) order(sort string) (string, []Order) {
	switch sort {
	case SortNameAsc, SortName:
		return SortNameAsc, []Order{{Column: b.cols.Name}, {Column: b.cols.ID}}
	default:
		if b.cols.CreatedAt != "" {
			return SortRecent, []Order{{Column: b.cols.CreatedAt, Desc: true}, {Column: b.cols.ID, Desc: true}}
		}
		return SortRecent, []Order{{Column: b.cols.ID, Desc: true}}
	}
}

func (b *StrategyBuilder) anyLike(kw string, cols ...string) OrGroup {
	pattern := ContainsPattern(kw)
	seen := make(map[string]bool, len(cols))
	g := make(OrGroup, 0, len(cols))
	for _, c := range cols {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		g = append(g, Filter{Column: c, Op: OpILike, Value: pattern})
	}
	return g
}

func (b *StrategyBuilder) selectColumns() []string {
	c := b.cols
	return uniqueColumns(
		c.ID, c.Name, c.RoadAddress, c.LotAddress,
		c.SubCategory, c.Category, c.FoodCategory, c.BusinessType, c.HygieneType,
		c.Tags, c.Province, c.District, c.LegacyProvince, c.LegacyDistrict, c.CreatedAt,
	)
}

func uniqueColumns(cols ...string) []string {
	seen := make(map[string]bool, len(cols))
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func firstColumn(cols ...string) string {
	for _, c := range cols {
		if c != "" {
			return c
		}
	}
	return ""
}
