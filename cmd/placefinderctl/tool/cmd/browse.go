package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"placefinder-go/internal/biz"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// browseCmd pages through results interactively on top of a ListSession
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "交互式翻页浏览（n 下一页、p 上一页、g N 跳页、s 排序、f 关键字、q 退出）",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := openEnv()
		if err != nil {
			return err
		}
		defer cleanup()
		return browse(cmd.Context(), e.places, listQuery(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	addListFlags(browseCmd)
	rootCmd.AddCommand(browseCmd)
}

func browse(ctx context.Context, fetcher biz.ListFetcher, q biz.ListQuery, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s := biz.NewListSession(fetcher, q)
	show := func(st biz.ListSessionState) {
		if st.Err != nil {
			color.New(color.FgRed).Fprintf(out, "查询失败: %v\n", st.Err)
			return
		}
		if st.Result != nil {
			printPage(out, st.Result)
		}
	}
	st, _ := s.Reload(ctx)
	show(st)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "", "n":
			st, _ = s.Next(ctx)
		case "p":
			st, _ = s.Prev(ctx)
		case "g":
			page, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintln(out, "用法: g <页码>")
				continue
			}
			st, _ = s.GoTo(ctx, page)
		case "s":
			st, _ = s.SetSort(ctx, arg)
		case "f":
			f := s.State().Query
			f.Query = arg
			st, _ = s.SetFilters(ctx, f)
		case "r":
			st, _ = s.Reload(ctx)
		case "q":
			return nil
		default:
			fmt.Fprintln(out, "未知命令，可用: n p g s f r q")
			continue
		}
		show(st)
	}
}
