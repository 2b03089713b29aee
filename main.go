package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"sales-quality-service/api"
	_ "sales-quality-service/docs"
	"sales-quality-service/logger"
	"sales-quality-service/service"
	"sales-quality-service/service/config"
	"sales-quality-service/service/models"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title 销售数据质量服务 API
// @version 1.0
// @description 销售订单数据质量检测、评分、清洗与验证服务
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(cfg.Log.Level)

	services, err := service.Init(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("服务初始化失败: %v", err)
	}
	defer services.Close()

	if cfg.RunMode == config.RunModeOnce {
		runOnce(services)
		return
	}

	services.StartSchedules()

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if cfg.Server.BaseContext != "" {
		mux.Route(cfg.Server.BaseContext, func(r chi.Router) {
			api.InitRoute(r, services)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger/*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux, services)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger/*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(cfg.Server.Port), mux)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("收到退出信号，正在停止服务")
		if err := s.GracefulStop(); err != nil {
			slog.Error("停止服务失败", "error", err)
		}
	}()

	slog.Info("服务启动", "port", cfg.Server.Port, "base_context", cfg.Server.BaseContext)
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
}

// runOnce 执行一次质量运行后退出
func runOnce(services *service.Services) {
	run, err := services.Quality.RunSweep(context.Background(), models.TriggerOnce)
	if err != nil {
		slog.Error("质量运行失败", "error", err)
		services.Close()
		os.Exit(1)
	}
	slog.Info("质量运行完成",
		"run_id", run.ID,
		"raw_score", run.RawScore,
		"cleaned_score", run.CleanedScore,
		"cleaned_count", run.CleanedCount)
}
