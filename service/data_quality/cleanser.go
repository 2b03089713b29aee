/*
 * @module service/data_quality/cleanser
 * @description 数据清洗器，根据检测出的异常集合按固定顺序修正记录并生成清洗日志
 * @architecture 分层架构 - 数据清洗层
 * @documentReference DESIGN.md
 * @stateFlow 复制原始记录 -> 重算销售额 -> 修正价格 -> 修正数量 -> 填充缺失值 -> 修正重复订单号
 * @rules 原始记录集不被修改；每一步只处理首次检测得到的本规则异常集合，过程中不重新检测；不删除任何记录
 * @dependencies service/models
 * @refs detector.go, catalog.go, price_strategy.go
 */

package data_quality

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"sales-quality-service/service/models"
)

// 缺失值填充哨兵值
const (
	RegionSentinel = "未知区域"
	ModeSentinel   = "未知"
)

// RemediationAction 一条清洗动作
type RemediationAction struct {
	Step     int      `json:"step"`
	Rule     string   `json:"rule"`
	Affected int      `json:"affected"`
	Columns  []string `json:"columns,omitempty"`
	Message  string   `json:"message"`
}

// String 可读的日志行
func (a RemediationAction) String() string {
	return a.Message
}

// RemediationLog 一次清洗运行的日志，只追加
type RemediationLog struct {
	actions []RemediationAction
}

func (l *RemediationLog) append(a RemediationAction) {
	a.Step = len(l.actions) + 1
	l.actions = append(l.actions, a)
}

// Actions 日志动作的副本
func (l *RemediationLog) Actions() []RemediationAction {
	return append([]RemediationAction(nil), l.actions...)
}

// Len 日志条数
func (l *RemediationLog) Len() int {
	return len(l.actions)
}

// Lines 日志文本行
func (l *RemediationLog) Lines() []string {
	lines := make([]string, len(l.actions))
	for i, a := range l.actions {
		lines[i] = a.String()
	}
	return lines
}

// Cleanser 数据清洗器
type Cleanser struct {
	catalog  *RuleCatalog
	strategy PriceStrategy
}

// NewCleanser 创建数据清洗器，strategy 为空时使用随机价格策略
func NewCleanser(catalog *RuleCatalog, strategy PriceStrategy) *Cleanser {
	if strategy == nil {
		strategy = NewRandomPriceStrategy(0)
	}
	return &Cleanser{
		catalog:  catalog,
		strategy: strategy,
	}
}

// Remediate 修正记录集，返回新的记录集与清洗日志
func (c *Cleanser) Remediate(ds *Dataset, anomalies *Anomalies) (*Dataset, *RemediationLog, error) {
	if ds.Len() == 0 {
		return nil, nil, ErrEmptyInput
	}

	cleaned := ds.Clone()
	log := &RemediationLog{}
	ids := newOrderIDAllocator(cleaned)

	// 1. 修复计算错误（优先处理，后续步骤都基于一致的销售额）
	if n := c.recomputeRevenue(cleaned, anomalies.RevenueMismatch); n > 0 {
		log.append(RemediationAction{Rule: RuleRevenueMismatch, Affected: n, Message: fmt.Sprintf("修复计算错误: %d 条记录", n)})
	}

	// 2. 修正价格异常
	if n := c.correctPrices(cleaned, anomalies); n > 0 {
		log.append(RemediationAction{Rule: RulePriceOutOfRange, Affected: n, Message: fmt.Sprintf("修正价格异常: %d 条记录", n)})
	}

	// 3. 修正数量异常
	if n := c.correctQuantities(cleaned, anomalies.QuantityExcessive); n > 0 {
		log.append(RemediationAction{Rule: RuleQuantityExcessive, Affected: n, Message: fmt.Sprintf("修正数量异常: %d 条记录", n)})
	}

	// 4. 填充缺失值
	if n, columns := c.fillMissing(cleaned, anomalies, ids); n > 0 {
		log.append(RemediationAction{
			Rule:     RuleMissingValues,
			Affected: n,
			Columns:  columns,
			Message:  fmt.Sprintf("填充缺失值: %d 条记录 (%d 个字段: %s)", n, len(columns), strings.Join(columns, ", ")),
		})
	}

	// 5. 修正重复订单号
	if n := c.disambiguateOrderIDs(cleaned, anomalies.DuplicateOrderID, ids); n > 0 {
		log.append(RemediationAction{Rule: RuleDuplicateOrderID, Affected: n, Message: fmt.Sprintf("修正重复订单号: %d 条记录", n)})
	}

	slog.Info("数据清洗完成", "records", cleaned.Len(), "actions", log.Len())
	return cleaned, log, nil
}

func (c *Cleanser) recomputeRevenue(ds *Dataset, set *AnomalySet) int {
	n := 0
	for _, i := range indicesOf(set) {
		if recomputeRevenue(ds.Records[i]) {
			n++
		}
	}
	return n
}

func (c *Cleanser) correctPrices(ds *Dataset, anomalies *Anomalies) int {
	n := 0
	for _, s := range anomalies.Sets() {
		if s.Rule != RulePriceOutOfRange {
			continue
		}
		for _, i := range s.Indices {
			r := ds.Records[i]
			category := categoryOf(r)
			bound := c.catalog.RuleFor(category).Correction
			price := bound.Clamp(roundTo(c.strategy.ReplacementPrice(category, bound), 2))
			r.UnitPrice = &price
			recomputeRevenue(r)
			n++
		}
	}
	return n
}

func (c *Cleanser) correctQuantities(ds *Dataset, set *AnomalySet) int {
	rule := c.catalog.Quantity()
	n := 0
	for _, i := range indicesOf(set) {
		r := ds.Records[i]
		if r.Quantity == nil {
			continue
		}
		q := *r.Quantity
		if q < rule.Min {
			q = rule.Min
		}
		if q > rule.Max {
			q = rule.Max
		}
		r.Quantity = &q
		recomputeRevenue(r)
		n++
	}
	return n
}

// fillMissing 按列类型填充空值，返回填充的记录数与涉及的列
func (c *Cleanser) fillMissing(ds *Dataset, anomalies *Anomalies, ids *orderIDAllocator) (int, []string) {
	columns := anomalies.MissingColumns()
	if len(columns) == 0 {
		return 0, nil
	}

	// 类别先于单价填充，单价依赖填充后的类别；销售额依赖单价与数量，放到最后
	sort.SliceStable(columns, func(i, j int) bool {
		return fillRank(columns[i]) < fillRank(columns[j])
	})

	stats := newFillStats(ds, columns)
	touched := make(map[int]struct{})
	for _, column := range columns {
		for _, i := range anomalies.MissingValues[column].Indices {
			r := ds.Records[i]
			if !r.IsNull(column) {
				continue
			}
			if c.fillValue(stats, ids, r, column) {
				touched[i] = struct{}{}
			}
		}
	}

	// 单价或数量被填充后，保持销售额一致
	for i := range touched {
		recomputeRevenue(ds.Records[i])
	}
	return len(touched), columns
}

func fillRank(column string) int {
	switch column {
	case models.ColumnCategory:
		return 0
	case models.ColumnRevenue:
		return 2
	default:
		return 1
	}
}

func (c *Cleanser) fillValue(stats *fillStats, ids *orderIDAllocator, r *models.SalesRecord, column string) bool {
	switch column {
	case models.ColumnRegion:
		r.Region = models.Ptr(RegionSentinel)
	case models.ColumnOrderID:
		r.OrderID = models.Ptr(ids.allocate("MISSING"))
	case models.ColumnUnitPrice:
		price, ok := stats.categoryPrices[categoryOf(r)]
		if !ok {
			price, ok = stats.medians[models.ColumnUnitPrice]
		}
		rule := c.catalog.RuleFor(categoryOf(r))
		if !ok || !rule.Detection.Contains(price) {
			price = rule.Correction.Midpoint()
		}
		price = roundTo(price, 2)
		r.UnitPrice = &price
	case models.ColumnQuantity:
		rule := c.catalog.Quantity()
		q := rule.Min
		if m, ok := stats.medians[models.ColumnQuantity]; ok {
			q = int64(math.Round(m))
		}
		if q < rule.Min {
			q = rule.Min
		}
		if q > rule.Max {
			q = rule.Max
		}
		r.Quantity = &q
	case models.ColumnRevenue:
		if r.UnitPrice != nil && r.Quantity != nil {
			recomputeRevenue(r)
			return true
		}
		m, ok := stats.medians[models.ColumnRevenue]
		if !ok {
			return false
		}
		r.Revenue = models.Ptr(roundTo(m, 2))
	case models.ColumnSalespersonID:
		m, ok := stats.medians[models.ColumnSalespersonID]
		if !ok {
			return false
		}
		r.SalespersonID = models.Ptr(int64(math.Round(m)))
	case models.ColumnSalespersonName:
		r.SalespersonName = models.Ptr(stats.modes[models.ColumnSalespersonName])
	case models.ColumnCategory:
		r.Category = models.Ptr(stats.modes[models.ColumnCategory])
		c.realignPrice(r)
	case models.ColumnCustomerType:
		r.CustomerType = models.Ptr(stats.modes[models.ColumnCustomerType])
	case models.ColumnOrderDate:
		if !stats.hasOrderDate {
			slog.Warn("订单日期全部为空，无法填充")
			return false
		}
		r.OrderDate = models.Ptr(stats.orderDate)
	default:
		return false
	}
	return true
}

// realignPrice 类别被填充后，按新类别的检测区间复核单价，越界时从修正区间重新取值
func (c *Cleanser) realignPrice(r *models.SalesRecord) {
	if r.UnitPrice == nil {
		return
	}
	category := categoryOf(r)
	rule := c.catalog.RuleFor(category)
	if rule.Detection.Contains(*r.UnitPrice) {
		return
	}
	price := rule.Correction.Clamp(roundTo(c.strategy.ReplacementPrice(category, rule.Correction), 2))
	r.UnitPrice = &price
	recomputeRevenue(r)
}

// fillStats 填充前在记录集快照上一次性计算的各列统计量
type fillStats struct {
	medians        map[string]float64
	modes          map[string]string
	categoryPrices map[string]float64
	orderDate      time.Time
	hasOrderDate   bool
}

func newFillStats(ds *Dataset, columns []string) *fillStats {
	s := &fillStats{
		medians:        make(map[string]float64),
		modes:          make(map[string]string),
		categoryPrices: make(map[string]float64),
	}
	setMedian := func(column string, get func(*models.SalesRecord) *float64) {
		if m, ok := medianOf(floatValues(ds, get)); ok {
			s.medians[column] = m
		}
	}

	for _, column := range columns {
		switch column {
		case models.ColumnUnitPrice:
			setMedian(column, func(r *models.SalesRecord) *float64 { return r.UnitPrice })
			byCategory := make(map[string][]float64)
			for _, r := range ds.Records {
				if r.UnitPrice != nil && r.Category != nil {
					byCategory[*r.Category] = append(byCategory[*r.Category], *r.UnitPrice)
				}
			}
			for category, prices := range byCategory {
				s.categoryPrices[category], _ = medianOf(prices)
			}
		case models.ColumnQuantity:
			setMedian(column, func(r *models.SalesRecord) *float64 { return intAsFloat(r.Quantity) })
		case models.ColumnRevenue:
			setMedian(column, func(r *models.SalesRecord) *float64 { return r.Revenue })
		case models.ColumnSalespersonID:
			setMedian(column, func(r *models.SalesRecord) *float64 { return intAsFloat(r.SalespersonID) })
		case models.ColumnSalespersonName:
			s.modes[column] = modeOf(ds, func(r *models.SalesRecord) *string { return r.SalespersonName })
		case models.ColumnCategory:
			s.modes[column] = modeOf(ds, func(r *models.SalesRecord) *string { return r.Category })
		case models.ColumnCustomerType:
			s.modes[column] = modeOf(ds, func(r *models.SalesRecord) *string { return r.CustomerType })
		case models.ColumnOrderDate:
			s.orderDate, s.hasOrderDate = dateModeOf(ds)
		}
	}
	return s
}

// disambiguateOrderIDs 为重复订单号追加序号后缀，保证订单号唯一且不丢弃记录
func (c *Cleanser) disambiguateOrderIDs(ds *Dataset, set *AnomalySet, ids *orderIDAllocator) int {
	n := 0
	for _, i := range indicesOf(set) {
		r := ds.Records[i]
		if r.OrderID == nil {
			continue
		}
		r.OrderID = models.Ptr(ids.allocate(*r.OrderID + "-DUP"))
		n++
	}
	return n
}

// recomputeRevenue 按 单价×数量 重算销售额，字段不全时不处理
func recomputeRevenue(r *models.SalesRecord) bool {
	if r.UnitPrice == nil || r.Quantity == nil {
		return false
	}
	revenue := roundTo(*r.UnitPrice*float64(*r.Quantity), 2)
	r.Revenue = &revenue
	return true
}

func indicesOf(set *AnomalySet) []int {
	if set == nil {
		return nil
	}
	return set.Indices
}

// orderIDAllocator 生成记录集内未被占用的订单号，每个前缀记住下一个候选序号
type orderIDAllocator struct {
	taken map[string]struct{}
	next  map[string]int
}

func newOrderIDAllocator(ds *Dataset) *orderIDAllocator {
	a := &orderIDAllocator{
		taken: make(map[string]struct{}, ds.Len()),
		next:  make(map[string]int),
	}
	for _, r := range ds.Records {
		if r.OrderID != nil {
			a.taken[*r.OrderID] = struct{}{}
		}
	}
	return a
}

func (a *orderIDAllocator) allocate(prefix string) string {
	seq := a.next[prefix]
	if seq == 0 {
		seq = 1
	}
	for ; ; seq++ {
		id := fmt.Sprintf("%s%d", prefix, seq)
		if _, taken := a.taken[id]; !taken {
			a.taken[id] = struct{}{}
			a.next[prefix] = seq + 1
			return id
		}
	}
}

func intAsFloat(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func floatValues(ds *Dataset, get func(*models.SalesRecord) *float64) []float64 {
	var out []float64
	for _, r := range ds.Records {
		if v := get(r); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// medianOf 中位数，偶数个时取中间两数平均值
func medianOf(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// modeOf 众数，出现次数相同时取字典序最小者；全部为空时返回哨兵值
func modeOf(ds *Dataset, get func(*models.SalesRecord) *string) string {
	counts := make(map[string]int)
	for _, r := range ds.Records {
		if v := get(r); v != nil {
			counts[*v]++
		}
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	if bestCount == 0 {
		return ModeSentinel
	}
	return best
}

func dateModeOf(ds *Dataset) (time.Time, bool) {
	counts := make(map[time.Time]int)
	for _, r := range ds.Records {
		if r.OrderDate != nil {
			counts[r.OrderDate.UTC()]++
		}
	}
	var best time.Time
	bestCount := 0
	for d, n := range counts {
		if n > bestCount || (n == bestCount && d.Before(best)) {
			best, bestCount = d, n
		}
	}
	return best, bestCount > 0
}
