package cmd

import (
	"fmt"
	"os"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"
	"placefinder-go/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "placefinderctl",
	Short:        "placefinder 运维工具",
	Long:         `placefinderctl 提供建表、导入、列表查询、导出等子命令，与服务共用同一份配置。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "conf", "c", "./configs", "config path (directory or file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出 debug 日志")
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// env 子命令共用的数据层与用例。
type env struct {
	conf    *conf.Bootstrap
	logger  log.Logger
	data    *data.Data
	places  *biz.PlaceUsecase
	regions *biz.RegionUsecase
}

func openEnv() (*env, func(), error) {
	bc, err := conf.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	level := log.LevelWarn
	if verbose {
		level = log.LevelDebug
	}
	logger := log.NewFilter(log.With(log.NewStdLogger(os.Stderr), "ts", log.DefaultTimestamp), log.FilterLevel(level))
	d, cleanup, err := data.NewData(bc.Data, bc.Places, logger)
	if err != nil {
		return nil, nil, err
	}
	p := bc.Places
	store := data.NewRowStore(d, logger)
	places := biz.NewPlaceUsecase(p, store,
		biz.NewStrategyBuilder(p),
		biz.NewOrchestrator(store, logger),
		biz.NewStatsAggregator(store, data.NewStatsCache(d, bc.Data), p, logger),
		biz.NewNormalizer(p),
		logger,
	)
	regions := biz.NewRegionUsecase(data.NewRegionRepo(d, bc.Data, logger), logger)
	return &env{conf: bc, logger: logger, data: d, places: places, regions: regions}, cleanup, nil
}

// 列表查询相关的公共参数
var listFlags struct {
	q, situation, food, province, district, sort string
	page, pageSize                               int
}

func addListFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&listFlags.q, "query", "q", "", "关键字，匹配名称与地址")
	f.StringVar(&listFlags.situation, "situation", "", "场景标签，如 solo、rain")
	f.StringVar(&listFlags.food, "food", "", "菜系")
	f.StringVar(&listFlags.province, "province", "", "省级地区")
	f.StringVar(&listFlags.district, "district", "", "区县")
	f.StringVar(&listFlags.sort, "sort", biz.SortRecent, "排序：recent | name_asc")
	f.IntVar(&listFlags.page, "page", 1, "页码")
	f.IntVar(&listFlags.pageSize, "page-size", 0, "每页条数，0 使用配置默认值")
}

func listQuery() biz.ListQuery {
	return biz.ListQuery{
		Query:     listFlags.q,
		Situation: listFlags.situation,
		Food:      listFlags.food,
		Province:  listFlags.province,
		District:  listFlags.district,
		Sort:      listFlags.sort,
		Page:      listFlags.page,
		PageSize:  listFlags.pageSize,
	}
}
