package biz

import (
	"regexp"
	"strings"

	"placefinder-go/internal/conf"
)

// Place 列表与详情展示用的店铺。
type Place struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	RoadAddress  string   `json:"road_address,omitempty"`
	LotAddress   string   `json:"lot_address,omitempty"`
	Area         string   `json:"area"`
	Category     string   `json:"category"`
	FoodCategory string   `json:"food_category,omitempty"`
	FoodLabel    string   `json:"food_label"`
	BusinessType string   `json:"business_type,omitempty"`
	HygieneType  string   `json:"hygiene_type,omitempty"`
	Tags         []string `json:"tags"`
	Province     string   `json:"province,omitempty"`
	District     string   `json:"district,omitempty"`
	AvgRating    *float64 `json:"avg_rating"`
	ReviewCount  int64    `json:"review_count"`
}

var tagSplit = regexp.MustCompile(`[,\s]+`)

// Normalizer 把原始行与评分统计合并成 Place，丢弃缺少 id/名称的行并去重。
type Normalizer struct {
	cols *conf.Columns
}

func NewNormalizer(c *conf.Places) *Normalizer {
	return &Normalizer{cols: c.Columns}
}

func (n *Normalizer) Normalize(rows []Row, stats map[string]PlaceStats) []Place {
	out := make([]Place, 0, len(rows))
	seenID := make(map[string]bool, len(rows))
	seenKey := make(map[string]bool, len(rows))
	for _, r := range rows {
		p, ok := n.Place(r)
		if !ok || seenID[p.ID] {
			continue
		}
		seenID[p.ID] = true
		// 同一家店可能以不同 id 重复录入
		key := p.Name + "||" + p.Area
		if seenKey[key] {
			continue
		}
		seenKey[key] = true
		if st, ok := stats[p.ID]; ok {
			p.AvgRating = st.AvgRating
			p.ReviewCount = st.ReviewCount
		}
		out = append(out, p)
	}
	return out
}

// Place 转换单行；缺少 id 或名称时返回 false。
func (n *Normalizer) Place(r Row) (Place, bool) {
	c := n.cols
	p := Place{
		ID:           n.text(r, c.ID),
		Name:         n.text(r, c.Name),
		RoadAddress:  n.text(r, c.RoadAddress),
		LotAddress:   n.text(r, c.LotAddress),
		FoodCategory: n.text(r, c.FoodCategory),
		BusinessType: n.text(r, c.BusinessType),
		HygieneType:  n.text(r, c.HygieneType),
		Province:     firstNonEmpty(n.text(r, c.Province), n.text(r, c.LegacyProvince)),
		District:     firstNonEmpty(n.text(r, c.District), n.text(r, c.LegacyDistrict)),
		Tags:         ParseTags(r[c.Tags]),
	}
	if p.ID == "" || p.Name == "" {
		return Place{}, false
	}
	p.Area = firstNonEmpty(p.RoadAddress, p.LotAddress)
	p.Category = firstNonEmpty(
		n.text(r, c.SubCategory),
		p.FoodCategory,
		n.text(r, c.Category),
		p.BusinessType,
		p.HygieneType,
	)
	p.FoodLabel = FoodLabel(firstNonEmpty(p.FoodCategory, n.text(r, c.Category), p.HygieneType), p.Name)
	return p, true
}

func (n *Normalizer) text(r Row, col string) string {
	if col == "" {
		return ""
	}
	return strings.TrimSpace(asString(r[col]))
}

// ParseTags 数组保持原样（去空白、去空项）；字符串按逗号或空白切分；其他类型视为空。
func ParseTags(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range tagSplit.Split(t, -1) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
