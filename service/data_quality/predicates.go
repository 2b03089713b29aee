/*
 * @module service/data_quality/predicates
 * @description 检测、评分与核验共用的记录级判断
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 记录 + 规则目录 -> 是否合规 / 是否可评估
 * @rules 字段为空时判断结果标记为不可评估，不计入合规或违规
 * @dependencies service/models
 * @refs detector.go, scorer.go, verifier.go
 */

package data_quality

import (
	"math"

	"sales-quality-service/service/models"
)

// 检测、评分与验证共用的逐条规则判定，保证三者使用同一套口径。

// revenueConsistent 判断销售额与 单价×数量 是否一致；任一字段为空时 evaluable 为 false
func revenueConsistent(r *models.SalesRecord, tolerance float64) (ok, evaluable bool) {
	if r.UnitPrice == nil || r.Quantity == nil || r.Revenue == nil {
		return false, false
	}
	expected := *r.UnitPrice * float64(*r.Quantity)
	return math.Abs(*r.Revenue-expected) <= tolerance+1e-9, true
}

// categoryOf 返回记录类别，空类别返回空字符串（按未知类别处理）
func categoryOf(r *models.SalesRecord) string {
	if r.Category == nil {
		return ""
	}
	return *r.Category
}

// priceInRange 判断单价是否位于类别检测区间内；单价为空时 evaluable 为 false
func priceInRange(r *models.SalesRecord, catalog *RuleCatalog) (ok, evaluable bool) {
	if r.UnitPrice == nil {
		return false, false
	}
	return catalog.RuleFor(categoryOf(r)).Detection.Contains(*r.UnitPrice), true
}

// quantityInRange 判断数量是否位于 [Min, Max]；数量为空时 evaluable 为 false
func quantityInRange(r *models.SalesRecord, rule QuantityRule) (ok, evaluable bool) {
	if r.Quantity == nil {
		return false, false
	}
	q := *r.Quantity
	return q >= rule.Min && q <= rule.Max, true
}

// duplicateIndices 返回订单号重复的记录位置（首次出现不计，空订单号由缺失值规则处理）
func duplicateIndices(records []*models.SalesRecord) []int {
	seen := make(map[string]struct{}, len(records))
	var out []int
	for i, r := range records {
		if r.OrderID == nil {
			continue
		}
		if _, ok := seen[*r.OrderID]; ok {
			out = append(out, i)
			continue
		}
		seen[*r.OrderID] = struct{}{}
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
