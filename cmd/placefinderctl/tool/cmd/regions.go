package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// regionsCmd prints place counts per province, or per district of one province
var regionsCmd = &cobra.Command{
	Use:   "regions [province]",
	Short: "按地区统计店铺数量",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		counts, err := e.regions.Provinces(ctx)
		if len(args) == 1 {
			counts, err = e.regions.Districts(ctx, args[0])
		}
		if err != nil {
			return err
		}
		for _, rc := range counts {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d\n", rc.Name, rc.Count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
