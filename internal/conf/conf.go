package conf

import (
	"time"
)

// Bootstrap 为启动配置的根结构。
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Places *Places `json:"places"`
	Log    *Log    `json:"log"`
}

// Server 传输层配置。
type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Network   string   `json:"network"`
	Addr      string   `json:"addr"`
	Timeout   Duration `json:"timeout"`
	RateLimit float64  `json:"rate_limit"` // 每秒请求数，0 表示不限流
}

// Data 数据层配置。
type Data struct {
	Database *Database `json:"database"`
	Elastic  *Elastic  `json:"elastic"`
	Cache    *Cache    `json:"cache"`
}

type Database struct {
	Driver        string   `json:"driver"` // postgres/mysql/sqlite3/elasticsearch
	Source        string   `json:"source"`
	Debug         bool     `json:"debug"`
	AutoMigrate   bool     `json:"auto_migrate"`
	SlowThreshold Duration `json:"slow_threshold"` // 慢查询阈值
}

type Elastic struct {
	URLs  []string `json:"urls"`
	Sniff bool     `json:"sniff"`
}

type Cache struct {
	StatsTTL  Duration `json:"stats_ttl"`  // 0 表示不缓存评分统计
	RegionTTL Duration `json:"region_ttl"` // 地区计数缓存
}

// Places 列表引擎配置：表名、列名、分页与批量参数。
type Places struct {
	Table            string   `json:"table"`
	StatsTable       string   `json:"stats_table"`
	ReviewsView      string   `json:"reviews_view"` // 评论及投票计数视图
	Columns          *Columns `json:"columns"`
	StatsBatchSize   int      `json:"stats_batch_size"`
	StatsConcurrency int      `json:"stats_concurrency"`
	DefaultPageSize  int      `json:"default_page_size"`
	MaxPageSize      int      `json:"max_page_size"`
	MaxReviews       int      `json:"max_reviews"`  // 详情页最多返回的评论数
	SearchLimit      int      `json:"search_limit"` // 搜索结果上限
}

// Columns 物理列名。历史迁移导致同一含义存在多个列。
type Columns struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RoadAddress    string `json:"road_address"`
	LotAddress     string `json:"lot_address"`
	SubCategory    string `json:"sub_category"`
	Category       string `json:"category"`
	FoodCategory   string `json:"food_category"`
	BusinessType   string `json:"business_type"`
	HygieneType    string `json:"hygiene_type"`
	Tags           string `json:"tags"`
	Province       string `json:"province"`
	District       string `json:"district"`
	LegacyProvince string `json:"legacy_province"`
	LegacyDistrict string `json:"legacy_district"`
	CreatedAt      string `json:"created_at"` // "-" 表示后端没有创建时间列

	StatsID    string `json:"stats_id"`
	StatsAvg   string `json:"stats_avg"`
	StatsCount string `json:"stats_count"`
}

type Log struct {
	Format string `json:"format"` // std | zap
	Level  string `json:"level"`
}

// Duration 支持 "2s"、"500ms" 形式的文本配置。
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// AsDuration 与 durationpb 的用法保持一致。
func (d Duration) AsDuration() time.Duration {
	return d.Duration
}

// Default 返回带默认值的完整配置。
func Default() *Bootstrap {
	return &Bootstrap{
		Server: &Server{Http: &HTTP{Network: "tcp", Addr: "0.0.0.0:8000", Timeout: Duration{5 * time.Second}}},
		Data: &Data{
			Database: &Database{Driver: "sqlite3", Source: "file:placefinder.db?_pragma=foreign_keys(1)", SlowThreshold: Duration{500 * time.Millisecond}},
			Elastic:  &Elastic{},
			Cache:    &Cache{StatsTTL: Duration{30 * time.Second}, RegionTTL: Duration{10 * time.Minute}},
		},
		Places: DefaultPlaces(),
		Log:    &Log{Format: "std", Level: "info"},
	}
}

func DefaultPlaces() *Places {
	return &Places{
		Table:            "places_v2",
		StatsTable:       "place_stats",
		ReviewsView:      "reviews_with_votes",
		Columns:          DefaultColumns(),
		StatsBatchSize:   500,
		StatsConcurrency: 4,
		DefaultPageSize:  20,
		MaxPageSize:      100,
		MaxReviews:       200,
		SearchLimit:      50,
	}
}

func DefaultColumns() *Columns {
	return &Columns{
		ID:             "manage_no",
		Name:           "place_name",
		RoadAddress:    "address_road",
		LotAddress:     "address_jibun",
		SubCategory:    "subcategory",
		Category:       "category",
		FoodCategory:   "food_category",
		BusinessType:   "uptae",
		HygieneType:    "hygiene_uptae",
		Tags:           "tags",
		Province:       "region_sido",
		District:       "region_sigungu",
		LegacyProvince: "sido",
		LegacyDistrict: "sigungu",
		CreatedAt:      "created_at",
		StatsID:        "place_manage_no",
		StatsAvg:       "avg_rating",
		StatsCount:     "review_count",
	}
}

// Complete 用默认值补齐缺失的配置段。
func (b *Bootstrap) Complete() *Bootstrap {
	def := Default()
	if b.Server == nil {
		b.Server = def.Server
	}
	if b.Server.Http == nil {
		b.Server.Http = def.Server.Http
	}
	if b.Data == nil {
		b.Data = def.Data
	}
	if b.Data.Database == nil {
		b.Data.Database = def.Data.Database
	}
	if b.Data.Database.SlowThreshold.Duration == 0 {
		b.Data.Database.SlowThreshold = def.Data.Database.SlowThreshold
	}
	if b.Data.Elastic == nil {
		b.Data.Elastic = def.Data.Elastic
	}
	if b.Data.Cache == nil {
		b.Data.Cache = def.Data.Cache
	}
	if b.Places == nil {
		b.Places = def.Places
	}
	b.Places.complete()
	if b.Log == nil {
		b.Log = def.Log
	}
	return b
}

func (p *Places) complete() {
	def := DefaultPlaces()
	if p.Table == "" {
		p.Table = def.Table
	}
	if p.StatsTable == "" {
		p.StatsTable = def.StatsTable
	}
	if p.ReviewsView == "" {
		p.ReviewsView = def.ReviewsView
	}
	if p.Columns == nil {
		p.Columns = def.Columns
	}
	p.Columns.complete(def.Columns)
	if p.StatsBatchSize <= 0 {
		p.StatsBatchSize = def.StatsBatchSize
	}
	if p.StatsBatchSize > 1000 {
		p.StatsBatchSize = 1000
	}
	if p.StatsConcurrency <= 0 {
		p.StatsConcurrency = def.StatsConcurrency
	}
	if p.DefaultPageSize <= 0 {
		p.DefaultPageSize = def.DefaultPageSize
	}
	if p.MaxPageSize <= 0 {
		p.MaxPageSize = def.MaxPageSize
	}
	if p.DefaultPageSize > p.MaxPageSize {
		p.DefaultPageSize = p.MaxPageSize
	}
	if p.MaxReviews <= 0 {
		p.MaxReviews = def.MaxReviews
	}
	if p.SearchLimit <= 0 {
		p.SearchLimit = def.SearchLimit
	}
}

// complete 空列名取默认值；"-" 表示该列不存在（例如没有旧版地区列）。
func (c *Columns) complete(def *Columns) {
	fields := []struct {
		v   *string
		def string
	}{
		{&c.ID, def.ID}, {&c.Name, def.Name}, {&c.RoadAddress, def.RoadAddress},
		{&c.LotAddress, def.LotAddress}, {&c.SubCategory, def.SubCategory},
		{&c.Category, def.Category}, {&c.FoodCategory, def.FoodCategory},
		{&c.BusinessType, def.BusinessType}, {&c.HygieneType, def.HygieneType},
		{&c.Tags, def.Tags}, {&c.Province, def.Province}, {&c.District, def.District},
		{&c.LegacyProvince, def.LegacyProvince}, {&c.LegacyDistrict, def.LegacyDistrict},
		{&c.CreatedAt, def.CreatedAt}, {&c.StatsID, def.StatsID},
		{&c.StatsAvg, def.StatsAvg}, {&c.StatsCount, def.StatsCount},
	}
	for _, f := range fields {
		switch *f.v {
		case "":
			*f.v = f.def
		case "-":
			*f.v = ""
		}
	}
}
