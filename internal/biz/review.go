package biz

import (
	"context"
	"strings"
	"time"
)

// 评论视图的列名，data 层建视图时使用同一组常量。
const (
	ReviewColID        = "id"
	ReviewColNickname  = "nickname"
	ReviewColRating    = "rating"
	ReviewColContent   = "content"
	ReviewColCreatedAt = "created_at"
	ReviewColUpCount   = "up_count"
	ReviewColDownCount = "down_count"

	VoteUp   = "up"
	VoteDown = "down"
)

// Review 店铺详情页的评论，附带赞/踩计数。
type Review struct {
	ID        int64      `json:"id"`
	PlaceID   string     `json:"place_id"`
	Nickname  string     `json:"nickname"`
	Rating    float64    `json:"rating"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpCount   int64      `json:"up_count"`
	DownCount int64      `json:"down_count"`
}

// ListReviews 按创建时间倒序返回店铺的评论，最多 MaxReviews 条。
func (uc *PlaceUsecase) ListReviews(ctx context.Context, placeID string) ([]Review, error) {
	if placeID == "" {
		return nil, ErrPlaceNotFound
	}
	placeCol := uc.conf.Columns.StatsID
	rs, err := uc.store.Query(ctx, &Query{
		Table: uc.conf.ReviewsView,
		Select: []string{
			ReviewColID, placeCol, ReviewColNickname, ReviewColRating, ReviewColContent,
			ReviewColCreatedAt, ReviewColUpCount, ReviewColDownCount,
		},
		Filters: []Filter{{Column: placeCol, Op: OpEq, Value: placeID}},
		Order:   []Order{{Column: ReviewColCreatedAt, Desc: true}, {Column: ReviewColID, Desc: true}},
		Range:   &Range{From: 0, To: uc.conf.MaxReviews - 1},
	})
	if err != nil {
		uc.log.WithContext(ctx).Errorw("msg", "list reviews failed", "place_id", placeID, "err", err)
		return nil, err
	}
	out := make([]Review, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		rv := Review{
			ID:        asInt(r[ReviewColID]),
			PlaceID:   asString(r[placeCol]),
			Nickname:  asString(r[ReviewColNickname]),
			Content:   asString(r[ReviewColContent]),
			CreatedAt: asTime(r[ReviewColCreatedAt]),
			UpCount:   asInt(r[ReviewColUpCount]),
			DownCount: asInt(r[ReviewColDownCount]),
		}
		if v, ok := asFloat(r[ReviewColRating]); ok {
			rv.Rating = v
		}
		out = append(out, rv)
	}
	return out, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	time.DateTime,
	time.DateOnly,
}

func asInt(v any) int64 {
	if f, ok := asFloat(v); ok {
		return int64(f)
	}
	return 0
}

// asTime 驱动可能返回 time.Time 或文本时间。
func asTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		return t
	case string, []byte:
		s := asString(t)
		// time.Time.String 的格式可能带单调时钟后缀
		if i := strings.Index(s, " m="); i > 0 {
			s = s[:i]
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return &ts
			}
		}
	}
	return nil
}
