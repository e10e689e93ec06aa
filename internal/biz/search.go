package biz

import (
	"context"
)

// 搜索命中等级，数值越小越靠前；完全同名的行在前缀一级内提前。
const (
	rankNamePrefix = iota + 1
	rankNameContains
	rankAddress
)

// SearchPlaces 按名称与地址分级检索：名称完全相同、名称前缀、名称包含、地址包含。
// 同级内按名称升序，结果不超过 SearchLimit。关键字为空时返回空结果。
func (uc *PlaceUsecase) SearchPlaces(ctx context.Context, keyword string, limit int) ([]Place, error) {
	kw := SanitizeKeyword(keyword)
	if kw == "" {
		return []Place{}, nil
	}
	if limit <= 0 || limit > uc.conf.SearchLimit {
		limit = uc.conf.SearchLimit
	}
	cols := uc.conf.Columns
	tiers := []struct {
		rank int
		or   OrGroup
	}{
		{rankNamePrefix, OrGroup{{Column: cols.Name, Op: OpILike, Value: EscapeLike(kw) + "%"}}},
		{rankNameContains, OrGroup{{Column: cols.Name, Op: OpILike, Value: ContainsPattern(kw)}}},
		{rankAddress, uc.builder.anyLike(kw, cols.RoadAddress, cols.LotAddress)},
	}

	seen := make(map[string]bool)
	var exact, rest []Row
	for _, tier := range tiers {
		if len(exact)+len(rest) >= limit {
			break
		}
		if len(tier.or) == 0 {
			continue
		}
		// 前一级已命中的行在后一级会再次出现，多取这部分
		n := limit + len(seen)
		rs, err := uc.store.Query(ctx, &Query{
			Table:  uc.conf.Table,
			Select: uc.builder.selectColumns(),
			Or:     []OrGroup{tier.or},
			Order:  []Order{{Column: cols.Name}, {Column: cols.ID}},
			Range:  &Range{From: 0, To: n - 1},
		})
		if err != nil {
			uc.log.WithContext(ctx).Errorw("msg", "search failed", "keyword", kw, "rank", tier.rank, "err", err)
			return nil, err
		}
		for _, r := range rs.Rows {
			id := asString(r[cols.ID])
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			if tier.rank == rankNamePrefix && uc.norm.text(r, cols.Name) == kw {
				exact = append(exact, r)
			} else {
				rest = append(rest, r)
			}
		}
	}

	rows := append(exact, rest...)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	stats, err := uc.stats.GetStats(ctx, uc.rowIDs(rows))
	if err != nil {
		return nil, err
	}
	items := uc.norm.Normalize(rows, stats)
	uc.log.WithContext(ctx).Infow("msg", "search", "keyword", kw, "limit", limit, "rows", len(items))
	return items, nil
}
