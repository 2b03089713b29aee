/*
 * @module service/scheduler/sweep_scheduler
 * @description 定时质量运行调度器，按 cron 表达式对配置的记录源执行批量质量运行
 * @architecture 分层架构 - 任务调度层
 * @documentReference DESIGN.md
 * @stateFlow cron 触发 -> 质量运行（分布式锁保护） -> 记录结果
 * @rules 同一实例内运行不重叠；其他实例持有锁时跳过本次触发
 * @dependencies github.com/robfig/cron/v3
 * @refs service/quality_service.go, service/distributed_lock
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"sales-quality-service/service/distributed_lock"
	"sales-quality-service/service/models"

	"github.com/robfig/cron/v3"
)

// SweepRunner 执行一次质量运行
type SweepRunner interface {
	RunSweep(ctx context.Context, trigger string) (*models.QualityRun, error)
}

// SweepScheduler 定时质量运行调度器
type SweepScheduler struct {
	runner  SweepRunner
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

// NewSweepScheduler 创建调度器实例
func NewSweepScheduler(runner SweepRunner) *SweepScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &SweepScheduler{
		runner: runner,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 按 cron 表达式（秒 分 时 日 月 周）启动定时运行
func (s *SweepScheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("质量运行调度器已经启动")
	}
	if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("质量运行调度器启动成功", "cron", spec)
	return nil
}

// Stop 停止调度并等待正在执行的运行结束
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false
	slog.Info("质量运行调度器已停止")
}

// NextRuns 已注册任务的下一次触发时间
func (s *SweepScheduler) NextRuns() []cron.Entry {
	return s.cron.Entries()
}

func (s *SweepScheduler) runScheduled() {
	run, err := s.runner.RunSweep(s.ctx, models.TriggerSchedule)
	switch {
	case errors.Is(err, distributed_lock.ErrLockHeld):
		slog.Info("其他实例正在执行质量运行，跳过本次调度")
	case err != nil:
		slog.Error("定时质量运行失败", "error", err)
	default:
		slog.Info("定时质量运行完成", "run_id", run.ID, "raw_score", run.RawScore, "cleaned_score", run.CleanedScore)
	}
}
