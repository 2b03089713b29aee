/*
 * @module service/quality_service
 * @description 质量运行编排，读取记录源、执行质量引擎、保存结果并发布事件与指标
 * @architecture 分层架构 - 服务层
 * @documentReference DESIGN.md
 * @stateFlow 获取锁 -> 读取记录源 -> 引擎运行 -> 保存清洗结果与运行记录 -> 指标 -> 事件
 * @rules 原始记录源只读；失败的运行同样保存并发布；同一记录源同一时刻只有一个运行
 * @dependencies service/data_quality, service/datasource, service/sink, service/distributed_lock, service/event, service/monitoring
 * @refs api/controllers/quality_controller.go, service/scheduler
 */

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/datasource"
	"sales-quality-service/service/distributed_lock"
	"sales-quality-service/service/event"
	"sales-quality-service/service/models"
	"sales-quality-service/service/monitoring"
	"sales-quality-service/service/sink"

	"github.com/google/uuid"
)

const publishTimeout = 10 * time.Second

// QualityService 质量运行服务
type QualityService struct {
	engine    *data_quality.QualityEngine
	source    datasource.RecordSource
	sink      *sink.GormSink
	lock      *distributed_lock.LockExecutor
	lockTTL   time.Duration
	publisher event.Publisher
	metrics   *monitoring.MetricsCollector
}

// QualityServiceDeps 质量运行服务依赖
type QualityServiceDeps struct {
	Engine    *data_quality.QualityEngine
	Source    datasource.RecordSource
	Sink      *sink.GormSink
	Lock      distributed_lock.DistributedLock
	LockTTL   time.Duration
	Publisher event.Publisher
	Metrics   *monitoring.MetricsCollector
}

// NewQualityService 创建质量运行服务，未提供锁与发布器时使用进程内锁与空发布器
func NewQualityService(deps QualityServiceDeps) *QualityService {
	lock := deps.Lock
	if lock == nil {
		lock = distributed_lock.NewLocalLock()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &QualityService{
		engine:    deps.Engine,
		source:    deps.Source,
		sink:      deps.Sink,
		lock:      distributed_lock.NewLockExecutor(lock),
		lockTTL:   ttl,
		publisher: publisher,
		metrics:   deps.Metrics,
	}
}

// Catalog 当前生效的规则目录
func (s *QualityService) Catalog() data_quality.CatalogDefinition {
	return s.engine.Catalog().Definition()
}

// RunSweep 对配置的记录源执行一次完整质量运行，锁被占用时返回 distributed_lock.ErrLockHeld
func (s *QualityService) RunSweep(ctx context.Context, trigger string) (*models.QualityRun, error) {
	var run *models.QualityRun
	key := "sweep:" + s.source.Describe()
	err := s.lock.ExecuteWithLockAndRefresh(ctx, key, s.lockTTL, s.lockTTL/3, func() error {
		var err error
		run, err = s.runLocked(ctx, trigger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *QualityService) runLocked(ctx context.Context, trigger string) (*models.QualityRun, error) {
	startedAt := time.Now()
	slog.Info("开始质量运行", "source", s.source.Describe(), "trigger", trigger)

	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, s.recordFailure(ctx, trigger, startedAt, fmt.Errorf("读取记录源失败: %w", err))
	}

	result, err := s.engine.Run(ds)
	if err != nil {
		return nil, s.recordFailure(ctx, trigger, startedAt, err)
	}

	run, err := sink.NewQualityRun(result, s.source.Describe(), trigger)
	if err != nil {
		return nil, s.recordFailure(ctx, trigger, startedAt, err)
	}
	if err := s.sink.Save(ctx, run, result.Cleaned); err != nil {
		return nil, s.recordFailure(ctx, trigger, startedAt, err)
	}

	if s.metrics != nil {
		s.metrics.ObserveRun(result, trigger)
	}
	s.publish(ctx, run)
	return run, nil
}

func (s *QualityService) recordFailure(ctx context.Context, trigger string, startedAt time.Time, cause error) error {
	finishedAt := time.Now()
	run := &models.QualityRun{
		ID:           uuid.New().String(),
		Source:       s.source.Describe(),
		Trigger:      trigger,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		DurationMs:   finishedAt.Sub(startedAt).Milliseconds(),
		ErrorMessage: cause.Error(),
	}
	slog.Error("质量运行失败", "run_id", run.ID, "source", run.Source, "error", cause)

	if err := s.sink.SaveFailedRun(context.WithoutCancel(ctx), run); err != nil {
		slog.Error("保存失败运行记录失败", "run_id", run.ID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveFailure(trigger)
	}
	s.publish(ctx, run)
	return cause
}

func (s *QualityService) publish(ctx context.Context, run *models.QualityRun) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event.NewRunEvent(run)); err != nil {
		slog.Warn("发布运行事件失败", "run_id", run.ID, "error", err)
	}
}

// Evaluate 对提交的记录只做检测与评分，不清洗、不保存
func (s *QualityService) Evaluate(records []*models.SalesRecord, columns []string) (*data_quality.Evaluation, error) {
	return s.engine.Evaluate(data_quality.NewDataset(records, columns...))
}

// Remediate 对提交的记录执行完整质量运行并返回结果，不保存
func (s *QualityService) Remediate(records []*models.SalesRecord, columns []string) (*data_quality.RunResult, error) {
	return s.engine.Run(data_quality.NewDataset(records, columns...))
}

// GetRun 获取运行记录
func (s *QualityService) GetRun(ctx context.Context, id string) (*models.QualityRun, error) {
	return s.sink.GetRun(ctx, id)
}

// ListRuns 分页查询运行记录
func (s *QualityService) ListRuns(ctx context.Context, page, size int) ([]models.QualityRun, int64, error) {
	return s.sink.ListRuns(ctx, page, size)
}

// ExportRun 将运行的清洗结果导出为 Excel
func (s *QualityService) ExportRun(ctx context.Context, id string, w io.Writer) error {
	run, err := s.sink.GetRun(ctx, id)
	if err != nil {
		return err
	}
	records, err := s.sink.LoadCleaned(ctx, id)
	if err != nil {
		return err
	}
	return sink.ExportWorkbook(w, run, records)
}

// AnalyzeRun 对运行写入的清洗后记录做业务分析
func (s *QualityService) AnalyzeRun(ctx context.Context, id string) (*data_quality.BusinessAnalysis, error) {
	records, err := s.sink.LoadCleaned(ctx, id)
	if err != nil {
		return nil, err
	}
	analysis, err := data_quality.AnalyzeSales(data_quality.NewDataset(records))
	if err != nil {
		return nil, fmt.Errorf("业务分析失败: %w", err)
	}
	return analysis, nil
}

// Close 释放事件发布器
func (s *QualityService) Close() error {
	return s.publisher.Close()
}
