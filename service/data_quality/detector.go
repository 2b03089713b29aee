/*
 * @module service/data_quality/detector
 * @description 异常检测器，按规则目录对记录集逐条判定，输出每条规则的异常集合
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 记录集 -> 字段检查 -> 各规则独立判定 -> 异常集合
 * @rules 检测只读，不修改输入；规则相互独立，一条记录可出现在多个异常集合；缺字段的规则跳过并标记为无法执行
 * @dependencies service/models
 * @refs catalog.go, scorer.go, cleanser.go
 */

package data_quality

import (
	"fmt"
	"log/slog"

	"sales-quality-service/service/models"
)

// 规则名称
const (
	RulePriceOutOfRange   = "price_out_of_range"
	RuleQuantityExcessive = "quantity_excessive"
	RuleRevenueMismatch   = "revenue_mismatch"
	RuleMissingValues     = "missing_values"
	RuleDuplicateOrderID  = "duplicate_order_id"
)

// OtherCategories 目录外类别的价格异常集合键
const OtherCategories = "__other__"

// ruleColumns 各规则依赖的字段
var ruleColumns = map[string][]string{
	RulePriceOutOfRange:   {models.ColumnCategory, models.ColumnUnitPrice},
	RuleQuantityExcessive: {models.ColumnQuantity},
	RuleRevenueMismatch:   {models.ColumnUnitPrice, models.ColumnQuantity, models.ColumnRevenue},
	RuleDuplicateOrderID:  {models.ColumnOrderID},
}

// AnomalySet 违反同一规则的记录集合
type AnomalySet struct {
	Rule    string `json:"rule"`
	Subject string `json:"subject,omitempty"` // 价格规则为类别，缺失值规则为列名
	// Indices 记录在记录集中的位置
	Indices  []int    `json:"-"`
	OrderIDs []string `json:"order_ids,omitempty"`
	// Suspicious 超过可疑阈值的记录数（仅数量规则）
	Suspicious int `json:"suspicious,omitempty"`
}

// Name 集合名称，形如 price_out_of_range[耳机]
func (s *AnomalySet) Name() string {
	if s.Subject == "" {
		return s.Rule
	}
	return fmt.Sprintf("%s[%s]", s.Rule, s.Subject)
}

// Len 集合中的记录数
func (s *AnomalySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Indices)
}

func (s *AnomalySet) add(idx int, r *models.SalesRecord) {
	s.Indices = append(s.Indices, idx)
	if r.OrderID != nil {
		s.OrderIDs = append(s.OrderIDs, *r.OrderID)
	}
}

// Anomalies 一次检测的全部异常集合
type Anomalies struct {
	// PriceOutOfRange 按类别划分，目录外类别归入 OtherCategories
	PriceOutOfRange   map[string]*AnomalySet `json:"price_out_of_range"`
	QuantityExcessive *AnomalySet            `json:"quantity_excessive,omitempty"`
	RevenueMismatch   *AnomalySet            `json:"revenue_mismatch,omitempty"`
	DuplicateOrderID  *AnomalySet            `json:"duplicate_order_id,omitempty"`
	// MissingValues 按列划分，仅包含存在空值的列
	MissingValues map[string]*AnomalySet `json:"missing_values"`
	// NotEvaluable 因缺少字段而跳过的规则
	NotEvaluable map[string]*SchemaError `json:"-"`

	categories []string
	columns    []string
}

// Evaluable 判断规则是否已执行
func (a *Anomalies) Evaluable(rule string) bool {
	_, skipped := a.NotEvaluable[rule]
	return !skipped
}

// SkippedRules 无法执行的规则名称
func (a *Anomalies) SkippedRules() []string {
	var out []string
	for _, rule := range []string{RulePriceOutOfRange, RuleQuantityExcessive, RuleRevenueMismatch, RuleDuplicateOrderID, RuleMissingValues} {
		if !a.Evaluable(rule) {
			out = append(out, rule)
		}
	}
	return out
}

// PriceAnomalyCount 各类别价格异常总数
func (a *Anomalies) PriceAnomalyCount() int {
	n := 0
	for _, s := range a.PriceOutOfRange {
		n += s.Len()
	}
	return n
}

// MissingColumns 含空值的列（按记录集列顺序）
func (a *Anomalies) MissingColumns() []string {
	var out []string
	for _, c := range a.columns {
		if a.MissingValues[c].Len() > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Sets 按固定顺序返回所有非空异常集合
func (a *Anomalies) Sets() []*AnomalySet {
	var out []*AnomalySet
	for _, c := range a.categories {
		if s := a.PriceOutOfRange[c]; s.Len() > 0 {
			out = append(out, s)
		}
	}
	if s := a.PriceOutOfRange[OtherCategories]; s.Len() > 0 {
		out = append(out, s)
	}
	for _, s := range []*AnomalySet{a.QuantityExcessive, a.RevenueMismatch, a.DuplicateOrderID} {
		if s.Len() > 0 {
			out = append(out, s)
		}
	}
	for _, c := range a.MissingColumns() {
		out = append(out, a.MissingValues[c])
	}
	return out
}

// Total 异常记录总数（同一记录在多个集合中重复计数）
func (a *Anomalies) Total() int {
	n := 0
	for _, s := range a.Sets() {
		n += s.Len()
	}
	return n
}

// Counts 规则名到异常数的映射，用于报告与指标
func (a *Anomalies) Counts() map[string]int {
	out := make(map[string]int)
	for _, s := range a.Sets() {
		out[s.Name()] = s.Len()
	}
	return out
}

// Detector 异常检测器
type Detector struct {
	catalog *RuleCatalog
}

// NewDetector 创建异常检测器
func NewDetector(catalog *RuleCatalog) *Detector {
	return &Detector{catalog: catalog}
}

// Detect 对记录集执行全部检测规则
func (d *Detector) Detect(ds *Dataset) (*Anomalies, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyInput
	}

	a := &Anomalies{
		PriceOutOfRange: make(map[string]*AnomalySet),
		MissingValues:   make(map[string]*AnomalySet),
		NotEvaluable:    make(map[string]*SchemaError),
		categories:      d.catalog.Categories(),
		columns:         append([]string(nil), ds.Columns...),
	}

	for _, rule := range []string{RulePriceOutOfRange, RuleQuantityExcessive, RuleRevenueMismatch, RuleDuplicateOrderID} {
		if missing := missingColumns(ds, ruleColumns[rule]...); len(missing) > 0 {
			a.NotEvaluable[rule] = &SchemaError{Rule: rule, Missing: missing}
			slog.Warn("检测规则无法执行", "rule", rule, "missing", missing)
		}
	}
	if len(ds.Columns) == 0 {
		a.NotEvaluable[RuleMissingValues] = &SchemaError{Rule: RuleMissingValues, Missing: models.SalesColumns}
	}
	if len(a.NotEvaluable) == len(ruleColumns)+1 {
		return nil, ErrNoEvaluableRule
	}

	if a.Evaluable(RulePriceOutOfRange) {
		d.detectPrice(ds, a)
	}
	if a.Evaluable(RuleQuantityExcessive) {
		a.QuantityExcessive = d.detectQuantity(ds)
	}
	if a.Evaluable(RuleRevenueMismatch) {
		a.RevenueMismatch = d.detectRevenue(ds)
	}
	if a.Evaluable(RuleDuplicateOrderID) {
		a.DuplicateOrderID = d.detectDuplicates(ds)
	}
	if a.Evaluable(RuleMissingValues) {
		d.detectMissing(ds, a)
	}

	slog.Debug("异常检测完成", "records", ds.Len(), "anomalies", a.Total(), "skipped", a.SkippedRules())
	return a, nil
}

// detectPrice 遍历目录中的类别，零记录的类别得到空集合
func (d *Detector) detectPrice(ds *Dataset, a *Anomalies) {
	for _, c := range a.categories {
		a.PriceOutOfRange[c] = &AnomalySet{Rule: RulePriceOutOfRange, Subject: c}
	}
	other := &AnomalySet{Rule: RulePriceOutOfRange, Subject: OtherCategories}
	a.PriceOutOfRange[OtherCategories] = other

	for i, r := range ds.Records {
		ok, evaluable := priceInRange(r, d.catalog)
		if !evaluable || ok {
			continue
		}
		category := categoryOf(r)
		if _, inCatalog := d.catalog.Rule(category); inCatalog {
			a.PriceOutOfRange[category].add(i, r)
		} else {
			other.add(i, r)
		}
	}
}

func (d *Detector) detectQuantity(ds *Dataset) *AnomalySet {
	rule := d.catalog.Quantity()
	set := &AnomalySet{Rule: RuleQuantityExcessive}
	for i, r := range ds.Records {
		ok, evaluable := quantityInRange(r, rule)
		if !evaluable || ok {
			continue
		}
		set.add(i, r)
		if *r.Quantity > rule.SuspiciousAbove {
			set.Suspicious++
		}
	}
	return set
}

func (d *Detector) detectRevenue(ds *Dataset) *AnomalySet {
	set := &AnomalySet{Rule: RuleRevenueMismatch}
	for i, r := range ds.Records {
		if ok, evaluable := revenueConsistent(r, d.catalog.RevenueTolerance()); evaluable && !ok {
			set.add(i, r)
		}
	}
	return set
}

func (d *Detector) detectDuplicates(ds *Dataset) *AnomalySet {
	set := &AnomalySet{Rule: RuleDuplicateOrderID}
	for _, i := range duplicateIndices(ds.Records) {
		set.add(i, ds.Records[i])
	}
	return set
}

func (d *Detector) detectMissing(ds *Dataset, a *Anomalies) {
	for _, c := range ds.Columns {
		var set *AnomalySet
		for i, r := range ds.Records {
			if !r.IsNull(c) {
				continue
			}
			if set == nil {
				set = &AnomalySet{Rule: RuleMissingValues, Subject: c}
			}
			set.add(i, r)
		}
		if set != nil {
			a.MissingValues[c] = set
		}
	}
}
