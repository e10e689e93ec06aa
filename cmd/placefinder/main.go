package main

import (
	"flag"
	"os"

	"placefinder-go/internal/conf"
	"placefinder-go/internal/logger"
	"placefinder-go/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "placefinder"
	// Version is the version of the compiled software.
	Version = "dev"
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "./configs", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}

// newLogger 按配置选择标准输出或 zap JSON 输出。
func newLogger(c *conf.Log) (log.Logger, func(), error) {
	var base log.Logger = log.NewStdLogger(os.Stdout)
	cleanup := func() {}
	if c.Format == "zap" {
		zl, err := logger.NewProduction(c.Level)
		if err != nil {
			return nil, nil, err
		}
		base = zl
		cleanup = func() { _ = zl.Sync() }
	}
	return log.NewFilter(base, log.FilterLevel(log.ParseLevel(c.Level))), cleanup, nil
}

func main() {
	flag.Parse()
	if id == "" {
		id = uuid.NewString()
	}
	service.Version = Version

	bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}
	base, flush, err := newLogger(bc.Log)
	if err != nil {
		panic(err)
	}
	defer flush()
	logger := log.With(base,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Places, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
