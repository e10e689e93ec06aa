package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/data"
)

// readPlacesCSV 首行为物理列名，其余每行一个店铺；空单元格不写入。
func readPlacesCSV(r io.Reader) ([]biz.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	var rows []biz.Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := biz.Row{}
		for i, v := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				row[header[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readReviewsCSV 列顺序：店铺编号,评分[,创建时间[,昵称[,内容]]]，首行表头跳过。
func readReviewsCSV(r io.Reader) ([]data.Review, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	var out []data.Review
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("第 %d 行缺少列", line)
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行评分无效: %w", line, err)
		}
		rv := data.Review{PlaceID: strings.TrimSpace(rec[0]), Rating: rating}
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			if rv.CreatedAt, err = time.Parse(time.RFC3339, strings.TrimSpace(rec[2])); err != nil {
				return nil, fmt.Errorf("第 %d 行时间无效: %w", line, err)
			}
		}
		if len(rec) > 3 {
			rv.Nickname = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 {
			rv.Content = strings.TrimSpace(rec[4])
		}
		out = append(out, rv)
	}
	return out, nil
}

// readVotesCSV 列顺序：评论 id,投票人,up|down，首行表头跳过。
func readVotesCSV(r io.Reader) ([]data.Vote, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	var out []data.Vote
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 3 {
			return nil, fmt.Errorf("第 %d 行缺少列", line)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行评论 id 无效: %w", line, err)
		}
		kind := strings.ToLower(strings.TrimSpace(rec[2]))
		if kind != biz.VoteUp && kind != biz.VoteDown {
			return nil, fmt.Errorf("第 %d 行投票类型无效: %q", line, rec[2])
		}
		out = append(out, data.Vote{ReviewID: id, Voter: strings.TrimSpace(rec[1]), Type: kind})
	}
	return out, nil
}

var placeCSVHeader = []string{"id", "name", "area", "category", "food_label", "province", "district", "tags", "avg_rating", "review_count"}

func placeCSVRecord(p *biz.Place) []string {
	rating := ""
	if p.AvgRating != nil {
		rating = strconv.FormatFloat(*p.AvgRating, 'f', 2, 64)
	}
	return []string{
		p.ID, p.Name, p.Area, p.Category, p.FoodLabel, p.Province, p.District,
		strings.Join(p.Tags, "|"), rating, strconv.FormatInt(p.ReviewCount, 10),
	}
}
