package cmd

import (
	"context"
	"time"

	"placefinder-go/internal/data"

	"github.com/spf13/cobra"
)

// migrateCmd creates tables, indexes and the stats view (or the Elasticsearch index)
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "建表、建索引并重建评分统计视图",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := data.NewImporter(e.data, e.logger).Prepare(ctx); err != nil {
			return err
		}
		cmd.Printf("migrate 完成（%s）\n", e.data.Backend())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
