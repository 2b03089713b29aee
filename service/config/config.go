/*
 * @module service/config/config
 * @description 服务配置，启动时从环境变量（可选 .env 文件）一次性构建，显式传递给各组件
 * @architecture 分层架构 - 配置层
 * @documentReference DESIGN.md
 * @stateFlow .env 加载 -> 环境变量读取 -> 类型转换 -> 校验 -> Config
 * @rules 配置在 main 中构建一次，各组件通过构造函数接收，不读取全局状态；数据源与输出位置全部来自配置
 * @dependencies github.com/joho/godotenv, github.com/spf13/cast
 * @refs main.go, service/init.go
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// 运行模式
const (
	RunModeServe = "serve"
	RunModeOnce  = "once"
)

// 记录源类型
const (
	SourceTypeDB  = "db"
	SourceTypeCSV = "csv"
)

// 价格策略
const (
	PriceStrategyRandom   = "random"
	PriceStrategyMidpoint = "midpoint"
	PriceStrategyScript   = "script"
)

// 事件发布方式
const (
	EventTypeNone  = "none"
	EventTypeKafka = "kafka"
	EventTypeMQTT  = "mqtt"
)

// 默认值
const (
	DefaultPort              = 80
	DefaultSourceTable       = "sales_orders"
	DefaultCleanedTable      = "sales_orders_cleaned"
	DefaultReportDir         = "reports"
	DefaultSweepCron         = "0 0 1 * * *"
	DefaultCleanupCron       = "0 0 2 * * *"
	DefaultRunRetentionDays  = 30
	DefaultLockTTL           = 10 * time.Minute
	DefaultEventTopic        = "sales-quality-runs"
	DefaultDatabaseDriver    = "postgres"
	DefaultCSVEncoding       = "utf-8"
	DefaultLogLevel          = "info"
	DefaultMQTTClientID      = "sales-quality-service"
	DefaultPriceStrategyName = PriceStrategyRandom
	DefaultRateLimitWindow   = 60
	DefaultRateLimitClient   = 30
	DefaultRateLimitGlobal   = 300
)

// Config 服务配置
type Config struct {
	RunMode   string
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Source    SourceConfig
	Sink      SinkConfig
	Quality   QualityConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Event     EventConfig
	Schedule  ScheduleConfig
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port        int
	BaseContext string
}

// LogConfig 日志配置
type LogConfig struct {
	Level string
}

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	Driver   string // postgres | sqlite
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Schema   string
}

// DSN 连接字符串，优先使用 URL
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == "sqlite" {
		return c.Name
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Schema)
}

// SourceConfig 原始记录源配置
type SourceConfig struct {
	Type        string // db | csv
	Table       string
	CSVPath     string
	CSVEncoding string // utf-8 | gbk
}

// SinkConfig 清洗结果输出配置
type SinkConfig struct {
	CleanedTable string
	ReportDir    string
}

// QualityConfig 质量引擎配置
type QualityConfig struct {
	CatalogPath   string
	PriceStrategy string
	PriceScript   string
	RandomSeed    int64
}

// RedisConfig 分布式锁使用的 Redis 配置
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr Redis 地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// RateLimitConfig 在线评估/清洗与手动运行接口的限流配置，依赖 Redis
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	ClientMax     int // 单个客户端每窗口最大请求数
	GlobalMax     int // 全部客户端每窗口最大请求数
}

// EventConfig 运行完成事件发布配置
type EventConfig struct {
	Type         string
	KafkaBrokers []string
	Topic        string
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
}

// ScheduleConfig 定时任务配置
type ScheduleConfig struct {
	SweepCron        string // 为空时不启动定时质量运行
	CleanupCron      string
	RunRetentionDays int
	LockTTL          time.Duration
}

// Load 加载 .env 文件（不存在时忽略）后从环境变量构建配置
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)
	return FromEnv()
}

// FromEnv 从环境变量构建配置
func FromEnv() (*Config, error) {
	cfg := &Config{
		RunMode: strings.ToLower(getEnvWithDefault("RUN_MODE", RunModeServe)),
		Server: ServerConfig{
			Port:        cast.ToInt(getEnvWithDefault("LISTEN_PORT", cast.ToString(DefaultPort))),
			BaseContext: os.Getenv("BASE_CONTEXT"),
		},
		Log: LogConfig{
			Level: getEnvWithDefault("LOG_LEVEL", DefaultLogLevel),
		},
		Database: DatabaseConfig{
			Driver:   getEnvWithDefault("DB_DRIVER", DefaultDatabaseDriver),
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnvWithDefault("DB_HOST", "localhost"),
			Port:     getEnvWithDefault("DB_PORT", "5432"),
			User:     getEnvWithDefault("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnvWithDefault("DB_NAME", "postgres"),
			SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
			Schema:   getEnvWithDefault("DB_SCHEMA", "public"),
		},
		Source: SourceConfig{
			Type:        strings.ToLower(getEnvWithDefault("SOURCE_TYPE", SourceTypeDB)),
			Table:       getEnvWithDefault("SOURCE_TABLE", DefaultSourceTable),
			CSVPath:     os.Getenv("SOURCE_CSV_PATH"),
			CSVEncoding: strings.ToLower(getEnvWithDefault("SOURCE_CSV_ENCODING", DefaultCSVEncoding)),
		},
		Sink: SinkConfig{
			CleanedTable: getEnvWithDefault("SINK_CLEANED_TABLE", DefaultCleanedTable),
			ReportDir:    getEnvWithDefault("SINK_REPORT_DIR", DefaultReportDir),
		},
		Quality: QualityConfig{
			CatalogPath:   os.Getenv("QUALITY_CATALOG_PATH"),
			PriceStrategy: strings.ToLower(getEnvWithDefault("QUALITY_PRICE_STRATEGY", DefaultPriceStrategyName)),
			PriceScript:   os.Getenv("QUALITY_PRICE_SCRIPT"),
			RandomSeed:    cast.ToInt64(os.Getenv("QUALITY_RANDOM_SEED")),
		},
		Redis: RedisConfig{
			Enabled:  cast.ToBool(getEnvWithDefault("REDIS_ENABLED", "false")),
			Host:     getEnvWithDefault("REDIS_HOST", "localhost"),
			Port:     getEnvWithDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       cast.ToInt(getEnvWithDefault("REDIS_DB", "0")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       cast.ToBool(getEnvWithDefault("RATE_LIMIT_ENABLED", "false")),
			WindowSeconds: cast.ToInt(getEnvWithDefault("RATE_LIMIT_WINDOW", cast.ToString(DefaultRateLimitWindow))),
			ClientMax:     cast.ToInt(getEnvWithDefault("RATE_LIMIT_CLIENT_MAX", cast.ToString(DefaultRateLimitClient))),
			GlobalMax:     cast.ToInt(getEnvWithDefault("RATE_LIMIT_GLOBAL_MAX", cast.ToString(DefaultRateLimitGlobal))),
		},
		Event: EventConfig{
			Type:         strings.ToLower(getEnvWithDefault("EVENT_TYPE", EventTypeNone)),
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        getEnvWithDefault("EVENT_TOPIC", DefaultEventTopic),
			MQTTBroker:   os.Getenv("MQTT_BROKER"),
			MQTTClientID: getEnvWithDefault("MQTT_CLIENT_ID", DefaultMQTTClientID),
			MQTTUsername: os.Getenv("MQTT_USERNAME"),
			MQTTPassword: os.Getenv("MQTT_PASSWORD"),
		},
		Schedule: ScheduleConfig{
			SweepCron:        os.Getenv("SCHEDULE_SWEEP_CRON"),
			CleanupCron:      getEnvWithDefault("SCHEDULE_CLEANUP_CRON", DefaultCleanupCron),
			RunRetentionDays: cast.ToInt(getEnvWithDefault("RUN_RETENTION_DAYS", cast.ToString(DefaultRunRetentionDays))),
			LockTTL:          cast.ToDuration(getEnvWithDefault("LOCK_TTL", DefaultLockTTL.String())),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.RunMode != RunModeServe && c.RunMode != RunModeOnce {
		return fmt.Errorf("不支持的运行模式: %s", c.RunMode)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("监听端口无效: %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	switch c.Source.Type {
	case SourceTypeDB:
		if c.Source.Table == "" {
			return fmt.Errorf("数据库记录源必须配置表名")
		}
	case SourceTypeCSV:
		if c.Source.CSVPath == "" {
			return fmt.Errorf("CSV 记录源必须配置 SOURCE_CSV_PATH")
		}
		if c.Source.CSVEncoding != "utf-8" && c.Source.CSVEncoding != "gbk" {
			return fmt.Errorf("不支持的 CSV 编码: %s", c.Source.CSVEncoding)
		}
	default:
		return fmt.Errorf("不支持的记录源类型: %s", c.Source.Type)
	}
	if c.Sink.CleanedTable == "" {
		return fmt.Errorf("清洗结果表名不能为空")
	}
	if c.Sink.CleanedTable == c.Source.Table {
		return fmt.Errorf("清洗结果表不能与原始表相同: %s", c.Sink.CleanedTable)
	}
	switch c.Quality.PriceStrategy {
	case PriceStrategyRandom, PriceStrategyMidpoint:
	case PriceStrategyScript:
		if c.Quality.PriceScript == "" {
			return fmt.Errorf("脚本价格策略必须配置 QUALITY_PRICE_SCRIPT")
		}
	default:
		return fmt.Errorf("不支持的价格策略: %s", c.Quality.PriceStrategy)
	}
	if c.RateLimit.Enabled {
		if !c.Redis.Enabled {
			return fmt.Errorf("接口限流依赖 Redis，必须同时开启 REDIS_ENABLED")
		}
		if c.RateLimit.WindowSeconds <= 0 {
			return fmt.Errorf("限流窗口无效: %d", c.RateLimit.WindowSeconds)
		}
	}
	switch c.Event.Type {
	case EventTypeNone:
	case EventTypeKafka:
		if len(c.Event.KafkaBrokers) == 0 {
			return fmt.Errorf("Kafka 事件发布必须配置 KAFKA_BROKERS")
		}
	case EventTypeMQTT:
		if c.Event.MQTTBroker == "" {
			return fmt.Errorf("MQTT 事件发布必须配置 MQTT_BROKER")
		}
	default:
		return fmt.Errorf("不支持的事件发布方式: %s", c.Event.Type)
	}
	if c.Schedule.RunRetentionDays <= 0 {
		return fmt.Errorf("运行记录保留天数必须大于0: %d", c.Schedule.RunRetentionDays)
	}
	if c.Schedule.LockTTL <= 0 {
		return fmt.Errorf("锁过期时间必须大于0")
	}
	return nil
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
