/*
 * @module service/monitoring/health_checker
 * @description 就绪检查，确认数据库可达、记录源可读并统计原始与清洗后记录数
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 数据库 Ping -> 记录源检查 -> 清洗结果统计 -> 汇总状态
 * @rules 任一组件不可用时整体为 critical；记录源为空时为 warning
 * @dependencies gorm.io/gorm
 * @refs api/controllers/health_controller.go
 */

package monitoring

import (
	"context"
	"time"

	"sales-quality-service/service/datasource"

	"gorm.io/gorm"
)

// 健康状态
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// CleanedCounter 清洗结果统计
type CleanedCounter interface {
	CountCleaned(ctx context.Context) (int64, error)
}

// HealthChecker 健康检查器
type HealthChecker struct {
	db      *gorm.DB
	source  datasource.RecordSource
	cleaned CleanedCounter
}

// HealthStatus 整体健康状态
type HealthStatus struct {
	Overall    string                      `json:"overall"` // healthy, warning, critical
	Timestamp  time.Time                   `json:"timestamp"`
	Components map[string]*ComponentHealth `json:"components"`
}

// ComponentHealth 组件健康状态
type ComponentHealth struct {
	Name         string        `json:"name"`
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	RecordCount  *int64        `json:"record_count,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// NewHealthChecker 创建健康检查器，db 为空时跳过数据库检查
func NewHealthChecker(db *gorm.DB, source datasource.RecordSource, cleaned CleanedCounter) *HealthChecker {
	return &HealthChecker{db: db, source: source, cleaned: cleaned}
}

// Check 执行一次就绪检查
func (h *HealthChecker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    StatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]*ComponentHealth),
	}

	if h.db != nil {
		status.add(h.checkDatabase(ctx))
	}
	if h.source != nil {
		status.add(h.checkSource(ctx))
	}
	if h.cleaned != nil {
		status.add(h.checkCleaned(ctx))
	}
	return status
}

func (s *HealthStatus) add(c *ComponentHealth) {
	s.Components[c.Name] = c
	switch {
	case c.Status == StatusCritical:
		s.Overall = StatusCritical
	case c.Status == StatusWarning && s.Overall == StatusHealthy:
		s.Overall = StatusWarning
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) *ComponentHealth {
	start := time.Now()
	c := &ComponentHealth{Name: "database", Status: StatusHealthy}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.Status = StatusCritical
		c.ErrorMessage = err.Error()
	}
	c.ResponseTime = time.Since(start)
	return c
}

func (h *HealthChecker) checkSource(ctx context.Context) *ComponentHealth {
	c := &ComponentHealth{Name: "source", Status: StatusHealthy}

	hs, err := h.source.HealthCheck(ctx)
	if err != nil {
		c.Status = StatusCritical
		c.ErrorMessage = err.Error()
		return c
	}
	c.ResponseTime = hs.ResponseTime
	c.RecordCount = &hs.RecordCount
	switch {
	case hs.Status != "online":
		c.Status = StatusCritical
		c.ErrorMessage = hs.Message
	case hs.RecordCount == 0:
		c.Status = StatusWarning
		c.ErrorMessage = "记录源为空"
	}
	return c
}

func (h *HealthChecker) checkCleaned(ctx context.Context) *ComponentHealth {
	start := time.Now()
	c := &ComponentHealth{Name: "cleaned", Status: StatusHealthy}

	n, err := h.cleaned.CountCleaned(ctx)
	if err != nil {
		c.Status = StatusCritical
		c.ErrorMessage = err.Error()
	} else {
		c.RecordCount = &n
	}
	c.ResponseTime = time.Since(start)
	return c
}
