/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 基于Redis的分布式限流服务，对在线评估、在线清洗与手动质量运行接口做全局与客户端两层限流
 * @architecture 工具层 - 提供分布式限流能力
 * @documentReference DESIGN.md
 * @stateFlow 检查限流规则 -> Redis计数 -> 判断是否超限
 * @rules 使用Redis INCR和EXPIRE实现固定窗口限流；先检查客户端层，再检查全局层
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/distributed_lock/redis_lock.go, api/middleware/rate_limit.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"time"

	"sales-quality-service/service/config"

	"github.com/go-redis/redis/v8"
)

// 限流层级
const (
	LimitTypeGlobal = "global"
	LimitTypeClient = "client"
)

const keyPrefix = "sales_quality:rate_limit"

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed       bool   `json:"allowed"`    // 是否允许请求
	Limit         int    `json:"limit"`      // 限制数量
	Remaining     int    `json:"remaining"`  // 剩余数量
	ResetAt       int64  `json:"reset_at"`   // 重置时间（Unix时间戳）
	RateLimitType string `json:"limit_type"` // 限流类型：global/client
	Message       string `json:"message"`
}

// RateLimitRule 限流规则
type RateLimitRule struct {
	Type        string // global/client
	TargetID    string // 客户端标识，全局时为空
	TimeWindow  int    // 时间窗口（秒）
	MaxRequests int    // 最大请求数
}

// RedisRateLimiter Redis限流器
type RedisRateLimiter struct {
	client *redis.Client
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewRedisRateLimiter 使用已有 Redis 客户端创建限流器
func NewRedisRateLimiter(client *redis.Client, cfg config.RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, cfg: cfg, now: time.Now}
}

// Rules 针对客户端的限流规则，客户端层在前；上限不大于 0 的层不限流
func (r *RedisRateLimiter) Rules(clientID string) []RateLimitRule {
	var rules []RateLimitRule
	if r.cfg.ClientMax > 0 {
		rules = append(rules, RateLimitRule{Type: LimitTypeClient, TargetID: clientID, TimeWindow: r.cfg.WindowSeconds, MaxRequests: r.cfg.ClientMax})
	}
	if r.cfg.GlobalMax > 0 {
		rules = append(rules, RateLimitRule{Type: LimitTypeGlobal, TimeWindow: r.cfg.WindowSeconds, MaxRequests: r.cfg.GlobalMax})
	}
	return rules
}

// Allow 按配置规则检查客户端请求
func (r *RedisRateLimiter) Allow(ctx context.Context, clientID string) (*RateLimitResult, error) {
	return r.CheckRateLimit(ctx, r.Rules(clientID))
}

// CheckRateLimit 依次检查每层规则，任何一层超限即拒绝
func (r *RedisRateLimiter) CheckRateLimit(ctx context.Context, rules []RateLimitRule) (*RateLimitResult, error) {
	if len(rules) == 0 {
		return &RateLimitResult{
			Allowed:       true,
			Limit:         -1,
			Remaining:     -1,
			RateLimitType: "none",
			Message:       "无限流规则",
		}, nil
	}

	var tightest *RateLimitResult
	for _, rule := range rules {
		result, err := r.checkSingleRule(ctx, rule)
		if err != nil {
			return nil, err
		}
		if !result.Allowed {
			return result, nil
		}
		if tightest == nil || result.Remaining < tightest.Remaining {
			tightest = result
		}
	}
	return tightest, nil
}

// 原子性计数：未超限时 INCR，首个请求设置窗口过期时间
var rateLimitScript = redis.NewScript(`
	local key = KEYS[1]
	local max_requests = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	if current >= max_requests then
		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			ttl = window
		end
		return {0, current, ttl}
	end

	local new_count = redis.call('INCR', key)
	if new_count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end
	return {1, new_count, ttl}
`)

// checkSingleRule 检查单个限流规则
func (r *RedisRateLimiter) checkSingleRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	key := r.buildRateLimitKey(rule)

	raw, err := rateLimitScript.Run(ctx, r.client, []string{key}, rule.MaxRequests, rule.TimeWindow).Slice()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}
	values := make([]int64, 0, len(raw))
	for _, v := range raw {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("限流检查返回值异常: %v", raw)
		}
		values = append(values, n)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("限流检查返回值异常: %v", raw)
	}

	allowed := values[0] == 1
	remaining := rule.MaxRequests - int(values[1])
	if remaining < 0 {
		remaining = 0
	}

	message := "允许请求"
	if !allowed {
		message = fmt.Sprintf("超过%s限流限制", limitTypeName(rule.Type))
	}

	return &RateLimitResult{
		Allowed:       allowed,
		Limit:         rule.MaxRequests,
		Remaining:     remaining,
		ResetAt:       r.now().Add(time.Duration(values[2]) * time.Second).Unix(),
		RateLimitType: rule.Type,
		Message:       message,
	}, nil
}

// buildRateLimitKey 构造限流Key，窗口序号随时间推进
func (r *RedisRateLimiter) buildRateLimitKey(rule RateLimitRule) string {
	window := r.now().Unix() / int64(rule.TimeWindow)
	if rule.Type == LimitTypeGlobal {
		return fmt.Sprintf("%s:%s:%d", keyPrefix, rule.Type, window)
	}
	return fmt.Sprintf("%s:%s:%s:%d", keyPrefix, rule.Type, rule.TargetID, window)
}

func limitTypeName(limitType string) string {
	switch limitType {
	case LimitTypeGlobal:
		return "全局"
	case LimitTypeClient:
		return "客户端"
	default:
		return "未知"
	}
}

// ResetRateLimit 重置限流计数
func (r *RedisRateLimiter) ResetRateLimit(ctx context.Context, rule RateLimitRule) error {
	return r.client.Del(ctx, r.buildRateLimitKey(rule)).Err()
}
