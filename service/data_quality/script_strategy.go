/*
 * @module service/data_quality/script_strategy
 * @description 基于 yaegi 的脚本价格策略，允许运维通过配置脚本定义替换价格的计算方式
 * @architecture 策略模式 - 价格替换策略的脚本实现
 * @documentReference DESIGN.md
 * @stateFlow 脚本包装 -> 编译 -> 取出 Pick 函数 -> 每条异常记录调用
 * @rules 脚本只能访问 math 与 strings；脚本出错或返回非法值时回退到区间中点
 * @dependencies github.com/traefik/yaegi
 * @refs price_strategy.go, cleanser.go
 */

package data_quality

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptPriceStrategy 脚本价格策略
type ScriptPriceStrategy struct {
	pick func(category string, min, max float64) float64
}

// NewScriptPriceStrategy 编译脚本，脚本内容为 Pick 函数体，可使用参数 category、min、max
//
// 例如: return min + (max-min)*0.25
func NewScriptPriceStrategy(body string) (*ScriptPriceStrategy, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	wrapped := fmt.Sprintf(`
package main

import (
	"math"
	"strings"
)

var _ = math.Abs
var _ = strings.TrimSpace

func Pick(category string, min, max float64) float64 {
%s
}
`, body)

	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}
	v, err := i.Eval("main.Pick")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Pick 函数: %w", err)
	}
	pick, ok := v.Interface().(func(string, float64, float64) float64)
	if !ok {
		return nil, fmt.Errorf("Pick 函数签名必须是 func(string, float64, float64) float64")
	}
	return &ScriptPriceStrategy{pick: pick}, nil
}

// ReplacementPrice 实现 PriceStrategy
func (s *ScriptPriceStrategy) ReplacementPrice(category string, bound PriceBound) (price float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("价格脚本执行异常，使用区间中点", "category", category, "panic", r)
			price = bound.Midpoint()
		}
	}()

	price = s.pick(category, bound.Min, bound.Max)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		slog.Warn("价格脚本返回非法值，使用区间中点", "category", category, "value", price)
		return bound.Midpoint()
	}
	return price
}
