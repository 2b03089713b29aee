/*
 * @module service/cleanup/run_cleanup_service
 * @description 运行记录清理服务，定期删除超过保留期的质量运行记录与报告文件
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 定时触发 -> 计算截止时间 -> 执行清理 -> 记录结果
 * @rules 清理失败只记录日志，不影响质量运行；保留天数小于等于 0 时不清理
 * @dependencies github.com/robfig/cron/v3
 * @refs service/sink/gorm_sink.go, service/init.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RunStore 可按时间删除运行记录的存储
type RunStore interface {
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunCleanupService 运行记录清理服务
type RunCleanupService struct {
	store         RunStore
	retentionDays int
	cron          *cron.Cron
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
	now           func() time.Time
}

// NewRunCleanupService 创建运行记录清理服务实例
func NewRunCleanupService(store RunStore, retentionDays int) *RunCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	return &RunCleanupService{
		store:         store,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithSeconds()),
		ctx:           ctx,
		cancel:        cancel,
		now:           time.Now,
	}
}

// CleanupExpiredRuns 清理过期运行记录
func (s *RunCleanupService) CleanupExpiredRuns(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	startTime := s.now()
	cutoff := startTime.AddDate(0, 0, -s.retentionDays)
	slog.Debug("清理质量运行记录", "cutoff_date", cutoff.Format("2006-01-02 15:04:05"), "retention_days", s.retentionDays)

	deleted, err := s.store.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("清理运行记录失败: %w", err)
	}

	slog.Info("运行记录清理完成",
		"deleted_count", deleted,
		"retention_days", s.retentionDays,
		"duration_ms", time.Since(startTime).Milliseconds())
	return deleted, nil
}

// StartScheduledCleanup 按 cron 表达式（秒 分 时 日 月 周）启动定时清理
func (s *RunCleanupService) StartScheduledCleanup(spec string) error {
	if s.started {
		return fmt.Errorf("运行记录清理调度器已经启动")
	}

	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.CleanupExpiredRuns(s.ctx); err != nil {
			slog.Error("定时运行记录清理失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("运行记录清理调度器启动成功", "cron", spec, "retention_days", s.retentionDays)
	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *RunCleanupService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false

	slog.Info("运行记录清理调度器已停止")
}
