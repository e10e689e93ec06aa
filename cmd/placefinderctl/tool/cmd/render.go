package cmd

import (
	"fmt"
	"io"
	"strings"

	"placefinder-go/internal/biz"

	"github.com/fatih/color"
)

// printPage 以表格形式输出一页结果，末尾附分页信息。
func printPage(w io.Writer, res *biz.ListResult) {
	printPlaces(w, res.Items)
	fmt.Fprintln(w, pageSummary(res))
}

func printPlaces(w io.Writer, items []biz.Place) {
	head := color.New(color.Bold)
	head.Fprintf(w, "%-12s %-24s %-12s %-8s %-6s %s\n", "ID", "NAME", "AREA", "FOOD", "RATING", "TAGS")
	for i := range items {
		p := &items[i]
		rating := "-"
		if p.AvgRating != nil {
			rating = fmt.Sprintf("%.1f", *p.AvgRating)
		}
		fmt.Fprintf(w, "%-12s %-24s %-12s %-8s %-6s %s\n", p.ID, p.Name, p.Area, p.FoodLabel, rating, strings.Join(p.Tags, ","))
	}
}

// printReviews 每条评论一行，内容另起一行缩进。
func printReviews(w io.Writer, reviews []biz.Review) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "暂无评论")
		return
	}
	for _, rv := range reviews {
		when := "-"
		if rv.CreatedAt != nil {
			when = rv.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		nick := rv.Nickname
		if nick == "" {
			nick = "匿名"
		}
		color.New(color.Bold).Fprintf(w, "%-4.1f %s", rv.Rating, nick)
		fmt.Fprintf(w, "  %s  +%d/-%d\n", when, rv.UpCount, rv.DownCount)
		if rv.Content != "" {
			fmt.Fprintf(w, "    %s\n", rv.Content)
		}
	}
}

func pageSummary(res *biz.ListResult) string {
	pager := res.Pager()
	var b strings.Builder
	fmt.Fprintf(&b, "第 %d 页", res.Page)
	switch {
	case res.TotalCount == nil:
		b.WriteString("，总数未知")
	case res.Approximate:
		fmt.Fprintf(&b, "，约 %d 条", *res.TotalCount)
	default:
		fmt.Fprintf(&b, "/%d，共 %d 条", pager.TotalPages(), *res.TotalCount)
	}
	if w := pager.Window(2); len(w) > 1 {
		parts := make([]string, len(w))
		for i, n := range w {
			switch {
			case n == biz.PageGap:
				parts[i] = "…"
			case n == res.Page:
				parts[i] = fmt.Sprintf("[%d]", n)
			default:
				parts[i] = fmt.Sprint(n)
			}
		}
		fmt.Fprintf(&b, "  %s", strings.Join(parts, " "))
	}
	if res.Strategy != "" {
		fmt.Fprintf(&b, "  (%s)", res.Strategy)
	}
	return b.String()
}
