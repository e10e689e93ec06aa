package data

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/store/go_cache/v4"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-sql-driver/mysql"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/olivere/elastic/v7"
	gocache "github.com/patrickmn/go-cache"
	"github.com/qustavo/sqlhooks/v2"
	"modernc.org/sqlite"
)

// DriverElastic 使用 Elasticsearch 作为行存储。
const DriverElastic = "elasticsearch"

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRowStore,
	NewStatsCache,
	NewRegionRepo,
	wire.Bind(new(biz.StatsCache), new(*StatsCache)),
)

// Data 持有后端连接与本地缓存。
type Data struct {
	conf   *conf.Data
	places *conf.Places
	sqlDrv *entsql.Driver
	es     *elastic.Client
	cache  cache.CacheInterface[any]
	log    *log.Helper
}

// Driver 返回 ent SQL 驱动，后端为 Elasticsearch 时为 nil。
func (d *Data) Driver() *entsql.Driver {
	return d.sqlDrv
}

// SQLDB 返回共享的 *sql.DB（由 ent 驱动管理的连接池）
func (d *Data) SQLDB() *sql.DB {
	if d.sqlDrv != nil {
		return d.sqlDrv.DB()
	}
	return nil
}

func (d *Data) Elastic() *elastic.Client {
	return d.es
}

// Cache 返回缓存客户端
func (d *Data) Cache() cache.CacheInterface[any] {
	return d.cache
}

func (d *Data) Places() *conf.Places {
	return d.places
}

// Backend 返回后端驱动名。
func (d *Data) Backend() string {
	return d.conf.Database.Driver
}

// Ping 检查后端是否可用。
func (d *Data) Ping(ctx context.Context) error {
	if d.es != nil {
		for _, u := range d.conf.Elastic.URLs {
			if _, _, err := d.es.Ping(u).Do(ctx); err != nil {
				return classify(err)
			}
		}
		return nil
	}
	return classify(d.sqlDrv.DB().PingContext(ctx))
}

// NewData .
func NewData(c *conf.Data, p *conf.Places, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "data"))
	goCache := gocache.New(5*time.Minute, 10*time.Minute)
	store := go_cache.NewGoCache(goCache)
	data := &Data{
		conf:   c,
		places: p,
		cache:  cache.New[any](store),
		log:    helper,
	}

	if c.Database.Driver == DriverElastic {
		es, err := NewElasticClient(c.Elastic)
		if err != nil {
			return nil, nil, err
		}
		data.es = es
		cleanup := func() {
			helper.Info("closing the data resources")
			es.Stop()
		}
		return data, cleanup, nil
	}

	drv, err := NewSqlDriver(c)
	if err != nil {
		return nil, nil, err
	}
	data.sqlDrv = drv
	cleanup := func() {
		helper.Info("closing the data resources")
		if err := drv.Close(); err != nil {
			helper.Errorf("close driver: %v", err)
		}
	}
	if c.Database.AutoMigrate {
		if err := Migrate(context.Background(), drv, p); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return data, cleanup, nil
}

// NewElasticClient 关闭嗅探时只访问配置的地址。
func NewElasticClient(c *conf.Elastic) (*elastic.Client, error) {
	urls := c.URLs
	if len(urls) == 0 {
		urls = []string{elastic.DefaultURL}
	}
	return elastic.NewClient(
		elastic.SetURL(urls...),
		elastic.SetSniff(c.Sniff),
		elastic.SetHealthcheck(c.Sniff),
	)
}

var (
	hookedMu      sync.Mutex
	hookedDrivers = map[string]struct{}{}
)

// registerHooked 同一驱动与钩子配置只注册一次，sql.Register 重复注册会 panic。
func registerHooked(name string, drv driver.Driver, hooks *Hooks) string {
	key := fmt.Sprintf("%sWithHooks-%s-%t", name, hooks.threshold, hooks.debug)
	hookedMu.Lock()
	defer hookedMu.Unlock()
	if _, ok := hookedDrivers[key]; !ok {
		sql.Register(key, sqlhooks.Wrap(drv, hooks))
		hookedDrivers[key] = struct{}{}
	}
	return key
}

// NewSqlDriver 按配置打开带慢查询钩子的连接池。
func NewSqlDriver(conf *conf.Data) (*entsql.Driver, error) {
	hooks := &Hooks{
		threshold: conf.Database.SlowThreshold.AsDuration(),
		debug:     conf.Database.Debug,
	}
	switch strings.ToLower(conf.Database.Driver) {
	case "mysql":
		hooks.driver = dialect.MySQL
		return newMySqlDriver(conf, hooks)
	case "sqlite3", "sqlite":
		hooks.driver = dialect.SQLite
		return openDriver(dialect.SQLite, registerHooked("sqlite3", &sqlite.Driver{}, hooks), conf.Database.Source)
	case "postgres", "postgresql", "pgx":
		hooks.driver = dialect.Postgres
		return openDriver(dialect.Postgres, registerHooked("pgx", &stdlib.Driver{}, hooks), conf.Database.Source)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conf.Database.Driver)
	}
}

func openDriver(dialectName, driverName, source string) (*entsql.Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Minute * 10)
	return entsql.OpenDB(dialectName, db), nil
}

func newMySqlDriver(conf *conf.Data, hooks *Hooks) (*entsql.Driver, error) {
	name := registerHooked("mysql", &mysql.MySQLDriver{}, hooks)
	cfg, err := mysql.ParseDSN(conf.Database.Source)
	if err != nil {
		return nil, err
	}
	dbName := cfg.DBName
	if dbName != "" {
		// 去除数据库名字，自动创建数据库
		cfg.DBName = ""
		tdb, err := sql.Open(name, cfg.FormatDSN())
		if err != nil {
			return nil, err
		}
		defer tdb.Close()
		if _, err := tdb.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4", dbName)); err != nil {
			return nil, err
		}
	}
	return openDriver(dialect.MySQL, name, conf.Database.Source)
}
