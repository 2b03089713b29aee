/*
 * @module service/init
 * @description 服务初始化模块，按配置建立数据库连接、迁移表结构并装配质量运行相关服务
 * @architecture 分层架构 - 服务层
 * @documentReference DESIGN.md
 * @stateFlow 配置 -> 数据库连接与迁移 -> 规则目录与引擎 -> 记录源/结果输出 -> 锁/事件/指标 -> 调度
 * @rules 所有依赖通过配置显式构造，不读取全局状态；可选组件初始化失败时降级并记录日志
 * @dependencies gorm.io/gorm, github.com/prometheus/client_golang
 * @refs main.go, api/routes.go
 */

package service

import (
	"fmt"
	"log/slog"

	"sales-quality-service/service/cleanup"
	"sales-quality-service/service/config"
	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/database"
	"sales-quality-service/service/datasource"
	"sales-quality-service/service/distributed_lock"
	"sales-quality-service/service/event"
	"sales-quality-service/service/monitoring"
	"sales-quality-service/service/rate_limiter"
	"sales-quality-service/service/scheduler"
	"sales-quality-service/service/sink"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Services 装配完成的服务集合
type Services struct {
	Config    *config.Config
	DB        *gorm.DB
	Quality   *QualityService
	Health    *monitoring.HealthChecker
	Scheduler *scheduler.SweepScheduler
	Cleanup   *cleanup.RunCleanupService
	// RateLimiter 未开启限流或 Redis 不可用时为空
	RateLimiter *rate_limiter.RedisRateLimiter

	redisLock *distributed_lock.RedisLock
}

// Init 按配置初始化全部服务，reg 为指标注册表
func Init(cfg *config.Config, reg prometheus.Registerer) (*Services, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(db, database.Tables{Source: cfg.Source.Table, Cleaned: cfg.Sink.CleanedTable}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	slog.Info("数据库表结构迁移完成")

	engine, err := NewEngine(cfg.Quality)
	if err != nil {
		return nil, err
	}

	source, err := datasource.NewRecordSource(cfg.Source, db)
	if err != nil {
		return nil, err
	}

	publisher, err := event.NewPublisher(cfg.Event)
	if err != nil {
		slog.Error("事件发布器初始化失败，运行事件将不会发布", "type", cfg.Event.Type, "error", err)
		publisher = event.NoopPublisher{}
	}

	s := &Services{Config: cfg, DB: db}

	var lock distributed_lock.DistributedLock = distributed_lock.NewLocalLock()
	if cfg.Redis.Enabled {
		redisLock, err := distributed_lock.NewRedisLock(cfg.Redis)
		if err != nil {
			slog.Error("Redis分布式锁初始化失败，使用进程内锁", "error", err)
		} else {
			s.redisLock = redisLock
			lock = redisLock
			if cfg.RateLimit.Enabled {
				s.RateLimiter = rate_limiter.NewRedisRateLimiter(redisLock.Client(), cfg.RateLimit)
			}
		}
	}
	if cfg.RateLimit.Enabled && s.RateLimiter == nil {
		slog.Warn("Redis不可用，接口限流未生效")
	}

	resultSink := sink.NewGormSink(db, cfg.Sink)
	s.Quality = NewQualityService(QualityServiceDeps{
		Engine:    engine,
		Source:    source,
		Sink:      resultSink,
		Lock:      lock,
		LockTTL:   cfg.Schedule.LockTTL,
		Publisher: publisher,
		Metrics:   monitoring.NewMetricsCollector(reg),
	})
	s.Health = monitoring.NewHealthChecker(db, source, resultSink)
	s.Scheduler = scheduler.NewSweepScheduler(s.Quality)
	s.Cleanup = cleanup.NewRunCleanupService(resultSink, cfg.Schedule.RunRetentionDays)

	slog.Info("服务初始化完成",
		"source", source.Describe(),
		"cleaned_table", cfg.Sink.CleanedTable,
		"price_strategy", cfg.Quality.PriceStrategy,
		"event", cfg.Event.Type,
		"redis_lock", s.redisLock != nil)
	return s, nil
}

// NewEngine 按配置加载规则目录并创建质量引擎
func NewEngine(cfg config.QualityConfig) (*data_quality.QualityEngine, error) {
	catalog := data_quality.DefaultRuleCatalog()
	if cfg.CatalogPath != "" {
		loaded, err := data_quality.LoadRuleCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
		slog.Info("已加载规则目录", "path", cfg.CatalogPath, "categories", catalog.Categories())
	}

	var strategy data_quality.PriceStrategy
	switch cfg.PriceStrategy {
	case config.PriceStrategyMidpoint:
		strategy = data_quality.MidpointPriceStrategy{}
	case config.PriceStrategyScript:
		script, err := data_quality.NewScriptPriceStrategy(cfg.PriceScript)
		if err != nil {
			return nil, err
		}
		strategy = script
	default:
		strategy = data_quality.NewRandomPriceStrategy(cfg.RandomSeed)
	}

	return data_quality.NewQualityEngine(data_quality.Options{Catalog: catalog, PriceStrategy: strategy}), nil
}

// StartSchedules 启动定时质量运行与运行记录清理
func (s *Services) StartSchedules() {
	if spec := s.Config.Schedule.SweepCron; spec != "" {
		if err := s.Scheduler.Start(spec); err != nil {
			slog.Error("启动质量运行调度器失败", "error", err)
		}
	}
	if spec := s.Config.Schedule.CleanupCron; spec != "" {
		if err := s.Cleanup.StartScheduledCleanup(spec); err != nil {
			slog.Error("启动运行记录清理失败", "error", err)
		}
	}
}

// Close 停止调度并释放连接
func (s *Services) Close() {
	s.Scheduler.Stop()
	s.Cleanup.StopScheduledCleanup()
	if err := s.Quality.Close(); err != nil {
		slog.Warn("关闭事件发布器失败", "error", err)
	}
	if s.redisLock != nil {
		s.redisLock.Close()
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
