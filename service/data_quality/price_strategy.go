/*
 * @module service/data_quality/price_strategy
 * @description 价格替换策略：随机均匀取值与区间中点
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 价格异常记录 -> 策略取值 -> 四舍五入并限制在修正区间
 * @rules 策略只决定取值方式，取值范围始终是类别的修正区间
 * @dependencies math/rand
 * @refs cleanser.go, script_strategy.go
 */

package data_quality

import (
	"math/rand"
	"sync"
	"time"
)

// PriceStrategy 为价格异常记录挑选替换价格
//
// bound 为类别的收紧修正区间；返回值会被四舍五入到两位小数并限制在 bound 内。
type PriceStrategy interface {
	ReplacementPrice(category string, bound PriceBound) float64
}

// RandomPriceStrategy 在修正区间内均匀随机取值，模拟“合理替换值”而非还原真实值
type RandomPriceStrategy struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomPriceStrategy 创建随机价格策略，seed 为 0 时使用当前时间
func NewRandomPriceStrategy(seed int64) *RandomPriceStrategy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPriceStrategy{rnd: rand.New(rand.NewSource(seed))}
}

// ReplacementPrice 实现 PriceStrategy
func (s *RandomPriceStrategy) ReplacementPrice(_ string, bound PriceBound) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bound.Min + s.rnd.Float64()*(bound.Max-bound.Min)
}

// MidpointPriceStrategy 取修正区间中点，结果确定，适合测试与可复现的清洗
type MidpointPriceStrategy struct{}

// ReplacementPrice 实现 PriceStrategy
func (MidpointPriceStrategy) ReplacementPrice(_ string, bound PriceBound) float64 {
	return bound.Midpoint()
}

// PriceStrategyFunc 函数适配器
type PriceStrategyFunc func(category string, bound PriceBound) float64

// ReplacementPrice 实现 PriceStrategy
func (f PriceStrategyFunc) ReplacementPrice(category string, bound PriceBound) float64 {
	return f(category, bound)
}
