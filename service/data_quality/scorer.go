/*
 * @module service/data_quality/scorer
 * @description 质量评分器，计算完整性、计算准确性、价格合理性、唯一性四个维度及加权综合分
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 记录集 + 异常集合 -> 维度评分 -> 权重归一 -> 综合评分与等级
 * @rules 评分结果为不可变快照；分母为零的维度标记为无法计算并从综合分中剔除
 * @dependencies service/models
 * @refs catalog.go, detector.go
 */

package data_quality

import (
	"fmt"
	"math"
	"time"
)

// Dimension 质量维度
type Dimension string

const (
	DimensionCompleteness Dimension = "completeness"
	DimensionAccuracy     Dimension = "accuracy"
	DimensionPlausibility Dimension = "plausibility"
	DimensionUniqueness   Dimension = "uniqueness"
)

// Dimensions 维度固定顺序
var Dimensions = []Dimension{DimensionCompleteness, DimensionAccuracy, DimensionPlausibility, DimensionUniqueness}

// Label 维度中文名
func (d Dimension) Label() string {
	switch d {
	case DimensionCompleteness:
		return "完整性"
	case DimensionAccuracy:
		return "计算准确性"
	case DimensionPlausibility:
		return "价格合理性"
	case DimensionUniqueness:
		return "唯一性"
	}
	return string(d)
}

// Grade 质量等级
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
)

// GradeFor 根据综合分确定等级
func GradeFor(composite float64) Grade {
	switch {
	case composite >= 90:
		return GradeExcellent
	case composite >= 80:
		return GradeGood
	case composite >= 70:
		return GradeFair
	default:
		return GradePoor
	}
}

// Label 等级中文名
func (g Grade) Label() string {
	switch g {
	case GradeExcellent:
		return "优秀"
	case GradeGood:
		return "良好"
	case GradeFair:
		return "一般"
	}
	return "需改进"
}

// Recommendation 等级对应的处理建议
func (g Grade) Recommendation() string {
	switch g {
	case GradeExcellent:
		return "数据质量很好，可直接用于业务分析和决策"
	case GradeGood:
		return "数据质量良好，建议简单清洗后使用"
	case GradeFair:
		return "数据质量一般，建议进行系统化数据清洗"
	}
	return "数据质量较差，需要全面数据清洗和验证"
}

// DimensionScore 单个维度评分
type DimensionScore struct {
	Dimension Dimension `json:"dimension"`
	Score     float64   `json:"score"`
	Defined   bool      `json:"defined"`
	// Weight 归一化后实际参与综合分的权重，未定义维度为 0
	Weight float64 `json:"weight"`
	Reason string  `json:"reason,omitempty"`
}

// QualityScore 针对某一记录集的评分快照
type QualityScore struct {
	Composite   float64          `json:"composite"`
	Grade       Grade            `json:"grade"`
	Dimensions  []DimensionScore `json:"dimensions"`
	RecordCount int              `json:"record_count"`
	ComputedAt  time.Time        `json:"computed_at"`
}

// Dimension 获取指定维度评分
func (q QualityScore) Dimension(d Dimension) (DimensionScore, bool) {
	for _, ds := range q.Dimensions {
		if ds.Dimension == d {
			return ds, true
		}
	}
	return DimensionScore{}, false
}

// Scorer 质量评分器
type Scorer struct {
	catalog *RuleCatalog
}

// NewScorer 创建质量评分器
func NewScorer(catalog *RuleCatalog) *Scorer {
	return &Scorer{catalog: catalog}
}

// Score 计算记录集的质量评分
func (s *Scorer) Score(ds *Dataset, anomalies *Anomalies) (QualityScore, error) {
	n := ds.Len()
	if n == 0 {
		return QualityScore{}, ErrEmptyInput
	}

	dims := []DimensionScore{
		s.completeness(ds, anomalies),
		s.accuracy(ds, anomalies),
		s.plausibility(ds, anomalies),
		s.uniqueness(ds, anomalies),
	}

	weights := s.catalog.Weights()
	totalWeight := 0.0
	for _, d := range dims {
		if d.Defined {
			totalWeight += weights.Of(d.Dimension)
		}
	}
	if totalWeight == 0 {
		return QualityScore{}, ErrScoreUndefined
	}

	composite := 0.0
	for i := range dims {
		if !dims[i].Defined {
			continue
		}
		dims[i].Weight = weights.Of(dims[i].Dimension) / totalWeight
		composite += dims[i].Score * dims[i].Weight
	}
	composite = roundTo(math.Min(100, math.Max(0, composite)), 1)

	return QualityScore{
		Composite:   composite,
		Grade:       GradeFor(composite),
		Dimensions:  dims,
		RecordCount: n,
		ComputedAt:  time.Now(),
	}, nil
}

// completeness 所有列 (1 - 空值率) × 100 的平均值
func (s *Scorer) completeness(ds *Dataset, anomalies *Anomalies) DimensionScore {
	score := DimensionScore{Dimension: DimensionCompleteness}
	if len(ds.Columns) == 0 {
		score.Reason = "记录集没有任何列"
		return score
	}
	n := float64(ds.Len())
	sum := 0.0
	for _, c := range ds.Columns {
		nulls := anomalies.MissingValues[c].Len()
		sum += (1 - float64(nulls)/n) * 100
	}
	score.Score = sum / float64(len(ds.Columns))
	score.Defined = true
	return score
}

// accuracy 销售额与 单价×数量 一致的记录占比，含空值的记录视为不准确
func (s *Scorer) accuracy(ds *Dataset, anomalies *Anomalies) DimensionScore {
	score := DimensionScore{Dimension: DimensionAccuracy}
	if err, skipped := anomalies.NotEvaluable[RuleRevenueMismatch]; skipped {
		score.Reason = err.Error()
		return score
	}
	accurate := 0
	for _, r := range ds.Records {
		if ok, _ := revenueConsistent(r, s.catalog.RevenueTolerance()); ok {
			accurate++
		}
	}
	score.Score = 100 * float64(accurate) / float64(ds.Len())
	score.Defined = true
	return score
}

// plausibility 单价落在类别检测区间内的记录占比，目录外类别使用默认区间
func (s *Scorer) plausibility(ds *Dataset, anomalies *Anomalies) DimensionScore {
	score := DimensionScore{Dimension: DimensionPlausibility}
	if err, skipped := anomalies.NotEvaluable[RulePriceOutOfRange]; skipped {
		score.Reason = err.Error()
		return score
	}
	plausible := 0
	for _, r := range ds.Records {
		if ok, _ := priceInRange(r, s.catalog); ok {
			plausible++
		}
	}
	score.Score = 100 * float64(plausible) / float64(ds.Len())
	score.Defined = true
	return score
}

// uniqueness 1 - 重复订单号占比
func (s *Scorer) uniqueness(ds *Dataset, anomalies *Anomalies) DimensionScore {
	score := DimensionScore{Dimension: DimensionUniqueness}
	if err, skipped := anomalies.NotEvaluable[RuleDuplicateOrderID]; skipped {
		score.Reason = err.Error()
		return score
	}
	dup := anomalies.DuplicateOrderID.Len()
	score.Score = 100 * (1 - float64(dup)/float64(ds.Len()))
	score.Defined = true
	return score
}

// String 评分摘要
func (q QualityScore) String() string {
	return fmt.Sprintf("%.1f (%s)", q.Composite, q.Grade.Label())
}
