package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchJSON  bool
)

// searchCmd ranks places by name and address match
var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "按名称与地址检索店铺（完全同名优先）",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		items, err := e.places.SearchPlaces(ctx, strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}
		if searchJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		printPlaces(cmd.OutOrStdout(), items)
		return nil
	},
}

// reviewsCmd prints the reviews of one place, newest first
var reviewsCmd = &cobra.Command{
	Use:   "reviews <place-id>",
	Short: "查看店铺评论（按时间倒序，附赞/踩数）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		reviews, err := e.places.ListReviews(ctx, strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		printReviews(cmd.OutOrStdout(), reviews)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "结果上限，0 或超过配置上限时取配置值")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "以 JSON 输出")
	rootCmd.AddCommand(searchCmd, reviewsCmd)
}
