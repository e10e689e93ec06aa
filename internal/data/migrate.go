package data

import (
	"context"
	"fmt"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	// ReviewsTable 评论表，place_stats 视图在其上聚合。
	ReviewsTable = "reviews"
	// VotesTable 评论的赞/踩，每个投票人对一条评论只能投一次。
	VotesTable = "review_votes"
)

const (
	reviewID        = biz.ReviewColID
	reviewNickname  = biz.ReviewColNickname
	reviewRating    = biz.ReviewColRating
	reviewContent   = biz.ReviewColContent
	reviewCreatedAt = biz.ReviewColCreatedAt

	voteID       = "id"
	voteReviewID = "review_id"
	voteVoter    = "voter_key"
	voteType     = "vote_type"

	VoteUp   = biz.VoteUp
	VoteDown = biz.VoteDown
)

// Tables 按列配置生成店铺表与评论表。
func Tables(p *conf.Places) []*schema.Table {
	c := p.Columns
	places := schema.NewTable(p.Table).
		AddPrimary(&schema.Column{Name: c.ID, Type: field.TypeString, Size: 64})
	for _, name := range []string{
		c.Name, c.RoadAddress, c.LotAddress, c.SubCategory, c.Category, c.FoodCategory,
		c.BusinessType, c.HygieneType, c.Province, c.District, c.LegacyProvince, c.LegacyDistrict,
	} {
		if name == "" || places.HasColumn(name) {
			continue
		}
		places.AddColumn(&schema.Column{Name: name, Type: field.TypeString, Size: 255, Nullable: true})
	}
	if c.Tags != "" && !places.HasColumn(c.Tags) {
		places.AddColumn(&schema.Column{Name: c.Tags, Type: field.TypeJSON, Nullable: true})
	}
	if c.CreatedAt != "" && !places.HasColumn(c.CreatedAt) {
		places.AddColumn(&schema.Column{Name: c.CreatedAt, Type: field.TypeTime, Nullable: true})
	}
	for _, name := range []string{c.Name, c.Province, c.District, c.CreatedAt} {
		if name != "" {
			places.AddIndex(fmt.Sprintf("%s_%s", p.Table, name), false, []string{name})
		}
	}

	reviews := schema.NewTable(ReviewsTable).
		AddPrimary(&schema.Column{Name: reviewID, Type: field.TypeInt64, Increment: true}).
		AddColumn(&schema.Column{Name: c.StatsID, Type: field.TypeString, Size: 64}).
		AddColumn(&schema.Column{Name: reviewNickname, Type: field.TypeString, Size: 64, Nullable: true}).
		AddColumn(&schema.Column{Name: reviewRating, Type: field.TypeFloat64}).
		AddColumn(&schema.Column{Name: reviewContent, Type: field.TypeString, Size: 2000, Nullable: true}).
		AddColumn(&schema.Column{Name: reviewCreatedAt, Type: field.TypeTime, Nullable: true}).
		AddIndex(fmt.Sprintf("%s_%s", ReviewsTable, c.StatsID), false, []string{c.StatsID})

	votes := schema.NewTable(VotesTable).
		AddPrimary(&schema.Column{Name: voteID, Type: field.TypeInt64, Increment: true}).
		AddColumn(&schema.Column{Name: voteReviewID, Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: voteVoter, Type: field.TypeString, Size: 128}).
		AddColumn(&schema.Column{Name: voteType, Type: field.TypeString, Size: 8}).
		AddIndex(fmt.Sprintf("%s_%s_%s", VotesTable, voteReviewID, voteVoter), true, []string{voteReviewID, voteVoter})
	return []*schema.Table{places, reviews, votes}
}

// Migrate 创建或补齐表结构，并重建评分统计视图。
func Migrate(ctx context.Context, drv *entsql.Driver, p *conf.Places) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(false))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables(p)...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	for _, view := range []struct {
		name  string
		stmts []string
	}{
		{p.StatsTable, statsViewDDL(drv.Dialect(), p)},
		{p.ReviewsView, reviewsViewDDL(drv.Dialect(), p)},
	} {
		for _, stmt := range view.stmts {
			if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
				return fmt.Errorf("create %s view: %w", view.name, err)
			}
		}
	}
	return nil
}

func statsViewDDL(d string, p *conf.Places) []string {
	c := p.Columns
	b := entsql.Dialect(d)
	sel := b.Select(
		entsql.As(c.StatsID, c.StatsID),
		entsql.As(entsql.Avg(reviewRating), c.StatsAvg),
		entsql.As(entsql.Count("*"), c.StatsCount),
	).From(entsql.Table(ReviewsTable)).GroupBy(c.StatsID)
	drop := "DROP VIEW IF EXISTS " + b.String(func(b *entsql.Builder) { b.Ident(p.StatsTable) })
	create, _ := b.CreateView(p.StatsTable).As(sel).Query()
	return []string{drop, create}
}

// reviewsViewDDL 评论附带赞/踩计数，没有投票的评论计数为 0。
func reviewsViewDDL(d string, p *conf.Places) []string {
	b := entsql.Dialect(d)
	r := b.Table(ReviewsTable).As("r")
	v := b.Table(VotesTable).As("v")
	cols := []string{reviewID, p.Columns.StatsID, reviewNickname, reviewRating, reviewContent, reviewCreatedAt}
	sel := b.Select()
	for _, c := range cols {
		sel.AppendSelectAs(r.C(c), c)
	}
	sel.AppendSelectAs(voteSum(v, VoteUp), biz.ReviewColUpCount).
		AppendSelectAs(voteSum(v, VoteDown), biz.ReviewColDownCount).
		From(r).
		LeftJoin(v).
		On(r.C(reviewID), v.C(voteReviewID)).
		GroupBy(r.Columns(cols...)...)
	drop := "DROP VIEW IF EXISTS " + b.String(func(b *entsql.Builder) { b.Ident(p.ReviewsView) })
	create, _ := b.CreateView(p.ReviewsView).As(sel).Query()
	return []string{drop, create}
}

func voteSum(v *entsql.SelectTable, kind string) string {
	return fmt.Sprintf("COALESCE(SUM(CASE WHEN %s = '%s' THEN 1 ELSE 0 END), 0)", v.C(voteType), kind)
}
