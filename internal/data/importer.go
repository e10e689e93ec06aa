package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/go-kratos/kratos/v2/log"
)

const importBatch = 200

// Review 单条评论，place_stats 视图由评论聚合而来。
type Review struct {
	PlaceID   string
	Nickname  string
	Rating    float64
	Content   string
	CreatedAt time.Time
}

// Vote 对评论的赞/踩，同一投票人对同一评论只能投一次。
type Vote struct {
	ReviewID int64
	Voter    string
	Type     string
}

// Importer 批量写入店铺与评论，店铺按管理编号覆盖写。
type Importer struct {
	data   *Data
	places *conf.Places
	logger log.Logger
}

func NewImporter(d *Data, logger log.Logger) *Importer {
	return &Importer{data: d, places: d.places, logger: logger}
}

// Prepare 建表或建索引。
func (im *Importer) Prepare(ctx context.Context) error {
	if im.data.es != nil {
		return NewElasticStore(im.data.es, im.places, im.logger).EnsureIndex(ctx)
	}
	return Migrate(ctx, im.data.sqlDrv, im.places)
}

func (im *Importer) WritePlaces(ctx context.Context, rows []biz.Row) (int, error) {
	if im.data.es != nil {
		return NewElasticStore(im.data.es, im.places, im.logger).Index(ctx, rows)
	}
	written := 0
	for _, batch := range batches(rows, importBatch) {
		n, err := im.upsertPlaces(ctx, batch)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (im *Importer) placeColumns() []string {
	c := im.places.Columns
	var cols []string
	for _, name := range []string{
		c.ID, c.Name, c.RoadAddress, c.LotAddress, c.SubCategory, c.Category, c.FoodCategory,
		c.BusinessType, c.HygieneType, c.Tags, c.Province, c.District, c.LegacyProvince,
		c.LegacyDistrict, c.CreatedAt,
	} {
		if name != "" && !slices.Contains(cols, name) {
			cols = append(cols, name)
		}
	}
	return cols
}

func (im *Importer) upsertPlaces(ctx context.Context, rows []biz.Row) (int, error) {
	cols := im.placeColumns()
	ins := entsql.Dialect(im.data.sqlDrv.Dialect()).Insert(im.places.Table).Columns(cols...)
	now := time.Now()
	for _, r := range rows {
		vals := make([]any, len(cols))
		for i, col := range cols {
			vals[i] = im.columnValue(col, r[col], now)
		}
		ins.Values(vals...)
	}
	ins.OnConflict(entsql.ConflictColumns(im.places.Columns.ID), entsql.ResolveWithNewValues())
	query, args := ins.Query()
	if err := im.data.sqlDrv.Exec(ctx, query, args, nil); err != nil {
		return 0, classify(err)
	}
	return len(rows), nil
}

// columnValue 标签列写成 JSON 数组，创建时间缺省为导入时间。
func (im *Importer) columnValue(col string, v any, now time.Time) any {
	c := im.places.Columns
	switch col {
	case c.Tags:
		tags := biz.ParseTags(v)
		raw, _ := json.Marshal(tags)
		return string(raw)
	case c.CreatedAt:
		switch t := v.(type) {
		case time.Time:
			return t
		case string:
			for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
				if ts, err := time.Parse(layout, t); err == nil {
					return ts
				}
			}
		}
		return now
	}
	if v == nil {
		return nil
	}
	return fmt.Sprint(v)
}

func (im *Importer) WriteReviews(ctx context.Context, reviews []Review) (int, error) {
	if im.data.es != nil {
		return 0, errors.New("reviews are only stored in SQL backends")
	}
	written := 0
	for _, batch := range batches(reviews, importBatch) {
		ins := entsql.Dialect(im.data.sqlDrv.Dialect()).
			Insert(ReviewsTable).
			Columns(im.places.Columns.StatsID, reviewNickname, reviewRating, reviewContent, reviewCreatedAt)
		for _, rv := range batch {
			created := rv.CreatedAt
			if created.IsZero() {
				created = time.Now()
			}
			ins.Values(rv.PlaceID, nullString(rv.Nickname), rv.Rating, nullString(rv.Content), created)
		}
		query, args := ins.Query()
		if err := im.data.sqlDrv.Exec(ctx, query, args, nil); err != nil {
			return written, classify(err)
		}
		written += len(batch)
	}
	return written, nil
}

// WriteVotes 写入评论投票，重复投票按 (review_id, voter_key) 覆盖。
func (im *Importer) WriteVotes(ctx context.Context, votes []Vote) (int, error) {
	if im.data.es != nil {
		return 0, errors.New("votes are only stored in SQL backends")
	}
	// 同一语句内重复的键在 Postgres 上会冲突，保留最后一票
	last := make(map[[2]string]int, len(votes))
	for i, v := range votes {
		last[[2]string{fmt.Sprint(v.ReviewID), v.Voter}] = i
	}
	uniq := make([]Vote, 0, len(last))
	for i, v := range votes {
		if last[[2]string{fmt.Sprint(v.ReviewID), v.Voter}] == i {
			uniq = append(uniq, v)
		}
	}
	written := 0
	for _, batch := range batches(uniq, importBatch) {
		ins := entsql.Dialect(im.data.sqlDrv.Dialect()).
			Insert(VotesTable).
			Columns(voteReviewID, voteVoter, voteType)
		for _, v := range batch {
			if v.Type != VoteUp && v.Type != VoteDown {
				return written, fmt.Errorf("vote type %q: want %s or %s", v.Type, VoteUp, VoteDown)
			}
			ins.Values(v.ReviewID, v.Voter, v.Type)
		}
		ins.OnConflict(entsql.ConflictColumns(voteReviewID, voteVoter), entsql.ResolveWithNewValues())
		query, args := ins.Query()
		if err := im.data.sqlDrv.Exec(ctx, query, args, nil); err != nil {
			return written, classify(err)
		}
		written += len(batch)
	}
	return written, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func batches[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
