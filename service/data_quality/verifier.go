/*
 * @module service/data_quality/verifier
 * @description 清洗效果验证，对原始与清洗后记录集重新执行价格、销售额、数量与订单号判定并对比
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 原始记录集 + 清洗后记录集 -> 逐条判定 -> 前后对比
 * @rules 只复用检测器的逐条判定，不重新执行完整检测流程
 * @dependencies service/models
 * @refs detector.go, cleanser.go
 */

package data_quality

import (
	"sales-quality-service/service/models"
)

// CountDelta 清洗前后的异常数
type CountDelta struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Improved 清洗后异常是否减少
func (d CountDelta) Improved() bool {
	return d.After < d.Before
}

// Verification 清洗效果验证结果
type Verification struct {
	RawCount       int     `json:"raw_count"`
	CleanedCount   int     `json:"cleaned_count"`
	RetentionRatio float64 `json:"retention_ratio"`

	PriceAnomalies     CountDelta            `json:"price_anomalies"`
	PriceByCategory    map[string]CountDelta `json:"price_by_category"`
	RevenueMismatches  CountDelta            `json:"revenue_mismatches"`
	QuantityOutOfRange CountDelta            `json:"quantity_out_of_range"`
	DuplicateOrderIDs  CountDelta            `json:"duplicate_order_ids"`
}

// Verifier 清洗效果验证器
type Verifier struct {
	catalog *RuleCatalog
}

// NewVerifier 创建验证器
func NewVerifier(catalog *RuleCatalog) *Verifier {
	return &Verifier{catalog: catalog}
}

// Verify 对比原始与清洗后记录集
func (v *Verifier) Verify(raw, cleaned *Dataset) (*Verification, error) {
	if raw.Len() == 0 {
		return nil, ErrEmptyInput
	}

	result := &Verification{
		RawCount:        raw.Len(),
		CleanedCount:    cleaned.Len(),
		RetentionRatio:  float64(cleaned.Len()) / float64(raw.Len()),
		PriceByCategory: make(map[string]CountDelta),
	}

	before := v.count(raw)
	after := v.count(cleaned)

	result.PriceAnomalies = CountDelta{Before: before.price, After: after.price}
	result.RevenueMismatches = CountDelta{Before: before.revenue, After: after.revenue}
	result.QuantityOutOfRange = CountDelta{Before: before.quantity, After: after.quantity}
	result.DuplicateOrderIDs = CountDelta{Before: before.duplicates, After: after.duplicates}

	for category, n := range before.byCategory {
		d := result.PriceByCategory[category]
		d.Before = n
		result.PriceByCategory[category] = d
	}
	for category, n := range after.byCategory {
		d := result.PriceByCategory[category]
		d.After = n
		result.PriceByCategory[category] = d
	}
	return result, nil
}

type verifyCounts struct {
	price      int
	byCategory map[string]int
	revenue    int
	quantity   int
	duplicates int
}

func (v *Verifier) count(ds *Dataset) verifyCounts {
	c := verifyCounts{byCategory: make(map[string]int)}
	checkPrice := ds.HasColumn(models.ColumnUnitPrice) && ds.HasColumn(models.ColumnCategory)
	checkRevenue := len(missingColumns(ds, ruleColumns[RuleRevenueMismatch]...)) == 0
	checkQuantity := ds.HasColumn(models.ColumnQuantity)

	for _, r := range ds.Records {
		if checkPrice {
			if ok, evaluable := priceInRange(r, v.catalog); evaluable && !ok {
				c.price++
				category := categoryOf(r)
				if _, inCatalog := v.catalog.Rule(category); !inCatalog {
					category = OtherCategories
				}
				c.byCategory[category]++
			}
		}
		if checkRevenue {
			if ok, evaluable := revenueConsistent(r, v.catalog.RevenueTolerance()); evaluable && !ok {
				c.revenue++
			}
		}
		if checkQuantity {
			if ok, evaluable := quantityInRange(r, v.catalog.Quantity()); evaluable && !ok {
				c.quantity++
			}
		}
	}
	if ds.HasColumn(models.ColumnOrderID) {
		c.duplicates = len(duplicateIndices(ds.Records))
	}
	return c
}
