/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference DESIGN.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers, api/middleware, service/init.go
 */

package api

import (
	"sales-quality-service/api/controllers"
	apimiddleware "sales-quality-service/api/middleware"
	"sales-quality-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r chi.Router, services *service.Services) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController(services.Health)
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	var limiter apimiddleware.Limiter
	if services.RateLimiter != nil {
		limiter = services.RateLimiter
	}
	rateLimit := apimiddleware.RateLimit(limiter)

	// 数据质量
	r.Route("/quality", func(r chi.Router) {
		qualityController := controllers.NewQualityController(services.Quality)

		r.Get("/catalog", qualityController.GetCatalog)
		r.With(rateLimit).Post("/evaluate", qualityController.Evaluate)
		r.With(rateLimit).Post("/remediate", qualityController.Remediate)

		r.Route("/runs", func(r chi.Router) {
			r.With(rateLimit).Post("/", qualityController.RunSweep)
			r.Get("/", qualityController.ListRuns)
			r.Get("/{id}", qualityController.GetRun)
			r.Get("/{id}/report", qualityController.GetReport)
			r.Get("/{id}/analysis", qualityController.GetAnalysis)
			r.Get("/{id}/export", qualityController.ExportRun)
		})
	})
}
