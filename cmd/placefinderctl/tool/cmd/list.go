package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

var listJSON bool

// listCmd runs a single list query with the same fallback rules as the HTTP API
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "按条件查询一页店铺",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := e.places.FetchPlacesList(ctx, listQuery())
		if err != nil {
			return err
		}
		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printPage(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	addListFlags(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "以 JSON 输出")
	rootCmd.AddCommand(listCmd)
}
