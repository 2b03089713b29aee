/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供存活检查与就绪检查（数据库、记录源与清洗结果统计）
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow HTTP请求处理流程
 * @rules 存活检查不访问外部依赖；就绪检查任一组件 critical 时返回 503
 * @dependencies github.com/go-chi/render
 * @refs service/monitoring/health_checker.go
 */

package controllers

import (
	"net/http"
	"time"

	"sales-quality-service/service/monitoring"

	"github.com/go-chi/render"
)

const (
	serviceName    = "sales-quality-service"
	serviceVersion = "1.0.0"
)

// HealthController 健康检查控制器
type HealthController struct {
	checker *monitoring.HealthChecker
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController(checker *monitoring.HealthChecker) *HealthController {
	return &HealthController{checker: checker}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"sales-quality-service"`
}

// ReadyResponse 就绪检查响应结构
type ReadyResponse struct {
	HealthResponse
	Components map[string]*monitoring.ComponentHealth `json:"components,omitempty"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查数据库连接、记录源可读性，并返回原始与清洗后记录数
// @Tags 系统
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ReadyResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	response := ReadyResponse{
		HealthResponse: HealthResponse{
			Status:    "ready",
			Timestamp: time.Now(),
			Version:   serviceVersion,
			Service:   serviceName,
		},
	}

	if c.checker != nil {
		status := c.checker.Check(r.Context())
		response.Components = status.Components
		if status.Overall == monitoring.StatusCritical {
			response.Status = "unavailable"
			render.Status(r, http.StatusServiceUnavailable)
		}
	}

	render.JSON(w, r, response)
}
