package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"placefinder-go/internal/biz"

	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportFormat string
)

// exportCmd dumps every place (with review stats) as JSON lines or CSV
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出全部店铺（含评分统计）为 JSON Lines 或 CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "jsonl" && exportFormat != "csv" {
			return fmt.Errorf("不支持的格式 %q，可选 jsonl、csv", exportFormat)
		}
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		n, err := export(cmd.Context(), e.places, exportFormat, w)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "导出 %d 条\n", n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "输出文件，- 表示标准输出")
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "jsonl | csv")
	rootCmd.AddCommand(exportCmd)
}

type placeScanner interface {
	ScanAll(ctx context.Context, fn func([]biz.Place) error) error
}

func export(ctx context.Context, src placeScanner, format string, w io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	n := 0
	if format == "csv" {
		cw := csv.NewWriter(w)
		if err := cw.Write(placeCSVHeader); err != nil {
			return 0, err
		}
		err := src.ScanAll(ctx, func(batch []biz.Place) error {
			for i := range batch {
				if err := cw.Write(placeCSVRecord(&batch[i])); err != nil {
					return err
				}
				n++
			}
			return nil
		})
		cw.Flush()
		if err != nil {
			return n, err
		}
		return n, cw.Error()
	}
	enc := json.NewEncoder(w)
	err := src.ScanAll(ctx, func(batch []biz.Place) error {
		for i := range batch {
			if err := enc.Encode(&batch[i]); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}
