package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"placefinder-go/internal/data"

	"github.com/spf13/cobra"
)

var (
	placesCSV  string
	reviewsCSV string
	votesCSV   string
	skipSchema bool
)

// importCmd loads places, reviews and review votes from CSV files
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "从 CSV 导入店铺与评论（店铺按管理编号覆盖写）",
	RunE: func(cmd *cobra.Command, args []string) error {
		if placesCSV == "" && reviewsCSV == "" && votesCSV == "" {
			return fmt.Errorf("必须提供 --places、--reviews 或 --votes 其中之一")
		}
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()

		im := data.NewImporter(e.data, e.logger)
		if !skipSchema {
			if err := im.Prepare(ctx); err != nil {
				return err
			}
		}
		if placesCSV != "" {
			f, err := os.Open(placesCSV)
			if err != nil {
				return err
			}
			rows, err := readPlacesCSV(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", placesCSV, err)
			}
			n, err := im.WritePlaces(ctx, rows)
			if err != nil {
				return fmt.Errorf("已写入 %d 条店铺后失败: %w", n, err)
			}
			cmd.Printf("店铺：写入 %d 条\n", n)
		}
		if reviewsCSV != "" {
			f, err := os.Open(reviewsCSV)
			if err != nil {
				return err
			}
			reviews, err := readReviewsCSV(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", reviewsCSV, err)
			}
			n, err := im.WriteReviews(ctx, reviews)
			if err != nil {
				return fmt.Errorf("已写入 %d 条评论后失败: %w", n, err)
			}
			cmd.Printf("评论：写入 %d 条\n", n)
		}
		if votesCSV != "" {
			f, err := os.Open(votesCSV)
			if err != nil {
				return err
			}
			votes, err := readVotesCSV(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", votesCSV, err)
			}
			n, err := im.WriteVotes(ctx, votes)
			if err != nil {
				return fmt.Errorf("已写入 %d 条投票后失败: %w", n, err)
			}
			cmd.Printf("投票：写入 %d 条\n", n)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&placesCSV, "places", "", "店铺 CSV，首行为物理列名")
	importCmd.Flags().StringVar(&reviewsCSV, "reviews", "", "评论 CSV：店铺编号,评分[,创建时间[,昵称[,内容]]]")
	importCmd.Flags().StringVar(&votesCSV, "votes", "", "投票 CSV：评论 id,投票人,up|down")
	importCmd.Flags().BoolVar(&skipSchema, "skip-schema", false, "跳过建表/建索引")
	rootCmd.AddCommand(importCmd)
}
