/*
 * @module api/middleware/rate_limit
 * @description 接口限流中间件，按客户端地址调用限流器，超限时返回 429
 * @architecture 中间件模式 - HTTP请求拦截
 * @documentReference DESIGN.md
 * @stateFlow 提取客户端标识 -> 限流检查 -> 写入限流响应头 -> 下一个处理器
 * @rules 限流器出错时放行请求并记录日志，不因 Redis 故障拒绝服务
 * @dependencies github.com/go-chi/render
 * @refs service/rate_limiter/redis_rate_limiter.go, api/routes.go
 */

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"sales-quality-service/service/rate_limiter"

	"github.com/go-chi/render"
)

// Limiter 限流检查
type Limiter interface {
	Allow(ctx context.Context, clientID string) (*rate_limiter.RateLimitResult, error)
}

// RateLimit 创建限流中间件，limiter 为空时直接放行
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientIP(r)
			result, err := limiter.Allow(r.Context(), clientID)
			if err != nil {
				slog.Warn("限流检查失败，放行请求", "client", clientID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if result.Limit >= 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))
			}
			if !result.Allowed {
				slog.Info("请求被限流", "client", clientID, "type", result.RateLimitType, "path", r.URL.Path)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, map[string]interface{}{
					"status": http.StatusTooManyRequests,
					"msg":    result.Message,
					"data":   result,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP 客户端地址，RealIP 中间件已将代理头写入 RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
