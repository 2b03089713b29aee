/*
 * @module service/data_quality/catalog
 * @description 质量规则目录，统一定义类别价格区间（检测区间与修正区间）、数量范围、销售额容差与评分权重
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 配置加载 -> 校验 -> 只读共享给检测、评分、清洗与验证
 * @rules 目录构造后不可变；修正区间必须落在检测区间内；维度权重之和必须为 1
 * @dependencies gopkg.in/yaml.v3
 * @refs detector.go, scorer.go, cleanser.go, verifier.go
 */

package data_quality

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// 未知类别默认区间与数量规则
const (
	DefaultFallbackMin           = 100
	DefaultFallbackMax           = 100000
	DefaultFallbackCorrectionMax = 10000
	DefaultMinQuantity           = 1
	DefaultMaxQuantity           = 10
	DefaultSuspiciousQuantity    = 20
	DefaultRevenueTolerance      = 0.01
)

const weightEpsilon = 1e-9

// PriceBound 价格闭区间
type PriceBound struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains 判断价格是否落在区间内（含端点）
func (b PriceBound) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

// Clamp 将价格限制到区间内
func (b PriceBound) Clamp(price float64) float64 {
	return math.Min(b.Max, math.Max(b.Min, price))
}

// Midpoint 区间中点
func (b PriceBound) Midpoint() float64 {
	return (b.Min + b.Max) / 2
}

func (b PriceBound) within(outer PriceBound) bool {
	return b.Min >= outer.Min && b.Max <= outer.Max
}

// CategoryRule 单个类别的价格规则
type CategoryRule struct {
	// Detection 合理价格区间，超出即视为价格异常
	Detection PriceBound `json:"detection" yaml:"detection"`
	// Correction 收紧后的典型价格区间，用于生成替换价格
	Correction PriceBound `json:"correction" yaml:"correction"`
}

// QuantityRule 数量规则
type QuantityRule struct {
	Min             int64 `json:"min" yaml:"min"`
	Max             int64 `json:"max" yaml:"max"`
	SuspiciousAbove int64 `json:"suspicious_above" yaml:"suspicious_above"`
}

// Weights 四个质量维度的权重
type Weights struct {
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Accuracy     float64 `json:"accuracy" yaml:"accuracy"`
	Plausibility float64 `json:"plausibility" yaml:"plausibility"`
	Uniqueness   float64 `json:"uniqueness" yaml:"uniqueness"`
}

// Sum 权重之和
func (w Weights) Sum() float64 {
	return w.Completeness + w.Accuracy + w.Plausibility + w.Uniqueness
}

// Of 返回指定维度的权重
func (w Weights) Of(d Dimension) float64 {
	switch d {
	case DimensionCompleteness:
		return w.Completeness
	case DimensionAccuracy:
		return w.Accuracy
	case DimensionPlausibility:
		return w.Plausibility
	case DimensionUniqueness:
		return w.Uniqueness
	}
	return 0
}

// CatalogDefinition 规则目录的可序列化定义，对应 YAML 配置文件
type CatalogDefinition struct {
	Categories       map[string]CategoryRule `json:"categories" yaml:"categories"`
	Fallback         CategoryRule            `json:"fallback" yaml:"fallback"`
	Quantity         QuantityRule            `json:"quantity" yaml:"quantity"`
	RevenueTolerance float64                 `json:"revenue_tolerance" yaml:"revenue_tolerance"`
	Weights          Weights                 `json:"weights" yaml:"weights"`
}

// DefaultCatalogDefinition 默认业务规则
func DefaultCatalogDefinition() CatalogDefinition {
	return CatalogDefinition{
		Categories: map[string]CategoryRule{
			"智能手机":  {Detection: PriceBound{1000, 10000}, Correction: PriceBound{3000, 8000}},
			"笔记本电脑": {Detection: PriceBound{3000, 20000}, Correction: PriceBound{5000, 15000}},
			"平板电脑":  {Detection: PriceBound{1000, 8000}, Correction: PriceBound{2000, 5000}},
			"智能手表":  {Detection: PriceBound{500, 5000}, Correction: PriceBound{1000, 3000}},
			"耳机":    {Detection: PriceBound{50, 2000}, Correction: PriceBound{200, 1500}},
		},
		Fallback: CategoryRule{
			Detection:  PriceBound{DefaultFallbackMin, DefaultFallbackMax},
			Correction: PriceBound{DefaultFallbackMin, DefaultFallbackCorrectionMax},
		},
		Quantity: QuantityRule{
			Min:             DefaultMinQuantity,
			Max:             DefaultMaxQuantity,
			SuspiciousAbove: DefaultSuspiciousQuantity,
		},
		RevenueTolerance: DefaultRevenueTolerance,
		Weights: Weights{
			Completeness: 0.25,
			Accuracy:     0.35,
			Plausibility: 0.30,
			Uniqueness:   0.10,
		},
	}
}

// RuleCatalog 只读规则目录，可在并发运行之间安全共享
type RuleCatalog struct {
	categories map[string]CategoryRule
	names      []string
	fallback   CategoryRule
	quantity   QuantityRule
	tolerance  float64
	weights    Weights
}

// NewRuleCatalog 根据定义创建规则目录
func NewRuleCatalog(def CatalogDefinition) (*RuleCatalog, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	c := &RuleCatalog{
		categories: make(map[string]CategoryRule, len(def.Categories)),
		names:      make([]string, 0, len(def.Categories)),
		fallback:   def.Fallback,
		quantity:   def.Quantity,
		tolerance:  def.RevenueTolerance,
		weights:    def.Weights,
	}
	for name, rule := range def.Categories {
		c.categories[name] = rule
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// DefaultRuleCatalog 使用默认业务规则创建目录
func DefaultRuleCatalog() *RuleCatalog {
	c, err := NewRuleCatalog(DefaultCatalogDefinition())
	if err != nil {
		panic(fmt.Sprintf("默认规则目录无效: %v", err))
	}
	return c
}

// LoadRuleCatalog 从 YAML 文件加载规则目录，未配置的部分使用默认值
func LoadRuleCatalog(path string) (*RuleCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取规则目录文件失败: %w", err)
	}
	return ParseRuleCatalog(data)
}

// ParseRuleCatalog 解析 YAML 规则目录
func ParseRuleCatalog(data []byte) (*RuleCatalog, error) {
	var def CatalogDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("解析规则目录失败: %w", err)
	}
	return NewRuleCatalog(def.withDefaults())
}

func (def CatalogDefinition) withDefaults() CatalogDefinition {
	defaults := DefaultCatalogDefinition()
	if len(def.Categories) == 0 {
		def.Categories = defaults.Categories
	}
	if def.Fallback == (CategoryRule{}) {
		def.Fallback = defaults.Fallback
	}
	if def.Quantity == (QuantityRule{}) {
		def.Quantity = defaults.Quantity
	}
	if def.RevenueTolerance == 0 {
		def.RevenueTolerance = defaults.RevenueTolerance
	}
	if def.Weights == (Weights{}) {
		def.Weights = defaults.Weights
	}
	return def
}

// Validate 校验规则定义的一致性
func (def CatalogDefinition) Validate() error {
	w := def.Weights
	for _, v := range []float64{w.Completeness, w.Accuracy, w.Plausibility, w.Uniqueness} {
		if v < 0 {
			return fmt.Errorf("维度权重不能为负数: %v", v)
		}
	}
	if math.Abs(w.Sum()-1) > weightEpsilon {
		return fmt.Errorf("维度权重之和必须为1，当前为 %.4f", w.Sum())
	}

	if err := validateCategoryRule("默认区间", def.Fallback); err != nil {
		return err
	}
	for name, rule := range def.Categories {
		if name == "" {
			return fmt.Errorf("类别名称不能为空")
		}
		if err := validateCategoryRule(name, rule); err != nil {
			return err
		}
	}

	q := def.Quantity
	if q.Min < 0 || q.Min > q.Max {
		return fmt.Errorf("数量范围无效: [%d, %d]", q.Min, q.Max)
	}
	if q.SuspiciousAbove < q.Max {
		return fmt.Errorf("可疑数量阈值(%d)不能小于数量上限(%d)", q.SuspiciousAbove, q.Max)
	}
	if def.RevenueTolerance < 0 {
		return fmt.Errorf("销售额容差不能为负数: %v", def.RevenueTolerance)
	}
	return nil
}

func validateCategoryRule(name string, rule CategoryRule) error {
	for _, b := range []PriceBound{rule.Detection, rule.Correction} {
		if b.Min < 0 || b.Min > b.Max {
			return fmt.Errorf("类别 %s 的价格区间无效: [%v, %v]", name, b.Min, b.Max)
		}
	}
	if !rule.Correction.within(rule.Detection) {
		return fmt.Errorf("类别 %s 的修正区间 [%v, %v] 必须位于检测区间 [%v, %v] 内",
			name, rule.Correction.Min, rule.Correction.Max, rule.Detection.Min, rule.Detection.Max)
	}
	return nil
}

// Categories 目录中的类别（已排序）
func (c *RuleCatalog) Categories() []string {
	return append([]string(nil), c.names...)
}

// Rule 获取类别规则，第二个返回值表示类别是否在目录中
func (c *RuleCatalog) Rule(category string) (CategoryRule, bool) {
	rule, ok := c.categories[category]
	return rule, ok
}

// RuleFor 获取类别规则，未知类别回退到默认区间
func (c *RuleCatalog) RuleFor(category string) CategoryRule {
	if rule, ok := c.categories[category]; ok {
		return rule
	}
	return c.fallback
}

// Fallback 未知类别使用的默认规则
func (c *RuleCatalog) Fallback() CategoryRule {
	return c.fallback
}

// Quantity 数量规则
func (c *RuleCatalog) Quantity() QuantityRule {
	return c.quantity
}

// RevenueTolerance 销售额一致性容差
func (c *RuleCatalog) RevenueTolerance() float64 {
	return c.tolerance
}

// Weights 维度权重
func (c *RuleCatalog) Weights() Weights {
	return c.weights
}

// Definition 导出目录定义的副本
func (c *RuleCatalog) Definition() CatalogDefinition {
	def := CatalogDefinition{
		Categories:       make(map[string]CategoryRule, len(c.categories)),
		Fallback:         c.fallback,
		Quantity:         c.quantity,
		RevenueTolerance: c.tolerance,
		Weights:          c.weights,
	}
	for name, rule := range c.categories {
		def.Categories[name] = rule
	}
	return def
}
