/*
 * @module service/data_quality/analysis
 * @description 清洗后记录集的业务分析：核心指标、销售员/类别/区域业绩与贡献度、月度趋势与增长率
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 清洗后记录集 -> 分组汇总 -> 排名与占比 -> 月度趋势 -> 业务建议
 * @rules 分组键为空的记录不进入该分组；排名按销售额降序，相同时按名称升序；首月销售额为 0 时不计算增长率
 * @dependencies golang.org/x/text/message, golang.org/x/text/language
 * @refs report.go, profile.go
 */

package data_quality

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sales-quality-service/service/models"
)

const monthLayout = "2006-01"

// GroupPerformance 某一分组的业绩汇总
type GroupPerformance struct {
	Name          string  `json:"name"`
	Revenue       float64 `json:"revenue"`
	Orders        int     `json:"orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	AvgUnitPrice  float64 `json:"avg_unit_price"`
	AvgQuantity   float64 `json:"avg_quantity"`
	RevenueShare  float64 `json:"revenue_share"`
	OrderShare    float64 `json:"order_share"`
}

// MonthlyTrend 单月销售汇总
type MonthlyTrend struct {
	Month        string  `json:"month"`
	Revenue      float64 `json:"revenue"`
	Orders       int     `json:"orders"`
	AvgUnitPrice float64 `json:"avg_unit_price"`
}

// BusinessAnalysis 业务分析结果
type BusinessAnalysis struct {
	TotalRevenue           float64            `json:"total_revenue"`
	Orders                 int                `json:"orders"`
	AvgOrderValue          float64            `json:"avg_order_value"`
	RevenuePerCustomerType float64            `json:"revenue_per_customer_type"`
	DateFrom               *time.Time         `json:"date_from,omitempty"`
	DateTo                 *time.Time         `json:"date_to,omitempty"`
	Salespeople            []GroupPerformance `json:"salespeople"`
	Categories             []GroupPerformance `json:"categories"`
	Regions                []GroupPerformance `json:"regions"`
	Monthly                []MonthlyTrend     `json:"monthly"`
	GrowthRate             *float64           `json:"growth_rate,omitempty"`
	Recommendations        []string           `json:"recommendations"`
}

type groupAccumulator struct {
	revenue, priceSum, quantitySum      float64
	orders, revenueN, priceN, quantityN int
}

func (g *groupAccumulator) add(r *models.SalesRecord) {
	g.orders++
	if r.Revenue != nil {
		g.revenue += *r.Revenue
		g.revenueN++
	}
	if r.UnitPrice != nil {
		g.priceSum += *r.UnitPrice
		g.priceN++
	}
	if r.Quantity != nil {
		g.quantitySum += float64(*r.Quantity)
		g.quantityN++
	}
}

func meanOf(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return roundTo(sum/float64(n), 2)
}

// AnalyzeSales 汇总记录集的业务指标
func AnalyzeSales(ds *Dataset) (*BusinessAnalysis, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, ErrEmptyInput
	}

	a := &BusinessAnalysis{Orders: ds.Len()}
	total := &groupAccumulator{}
	customerTypes := make(map[string]struct{})
	months := make(map[string]*groupAccumulator)
	for _, r := range ds.Records {
		total.add(r)
		if r.CustomerType != nil {
			customerTypes[*r.CustomerType] = struct{}{}
		}
		if r.OrderDate != nil {
			if a.DateFrom == nil || r.OrderDate.Before(*a.DateFrom) {
				a.DateFrom = models.Ptr(*r.OrderDate)
			}
			if a.DateTo == nil || r.OrderDate.After(*a.DateTo) {
				a.DateTo = models.Ptr(*r.OrderDate)
			}
			key := r.OrderDate.Format(monthLayout)
			if months[key] == nil {
				months[key] = &groupAccumulator{}
			}
			months[key].add(r)
		}
	}

	a.TotalRevenue = roundTo(total.revenue, 2)
	a.AvgOrderValue = meanOf(total.revenue, total.revenueN)
	if len(customerTypes) > 0 {
		a.RevenuePerCustomerType = roundTo(total.revenue/float64(len(customerTypes)), 2)
	} else {
		a.RevenuePerCustomerType = roundTo(total.revenue/float64(a.Orders), 2)
	}

	a.Salespeople = groupPerformance(ds, total, func(r *models.SalesRecord) *string { return r.SalespersonName })
	a.Categories = groupPerformance(ds, total, func(r *models.SalesRecord) *string { return r.Category })
	a.Regions = groupPerformance(ds, total, func(r *models.SalesRecord) *string { return r.Region })

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m := months[k]
		a.Monthly = append(a.Monthly, MonthlyTrend{
			Month:        k,
			Revenue:      roundTo(m.revenue, 2),
			Orders:       m.orders,
			AvgUnitPrice: meanOf(m.priceSum, m.priceN),
		})
	}
	if n := len(a.Monthly); n > 1 && a.Monthly[0].Revenue != 0 {
		first, last := a.Monthly[0].Revenue, a.Monthly[n-1].Revenue
		a.GrowthRate = models.Ptr(roundTo((last-first)/first*100, 2))
	}

	a.Recommendations = recommendations(a)
	return a, nil
}

func groupPerformance(ds *Dataset, total *groupAccumulator, key func(*models.SalesRecord) *string) []GroupPerformance {
	groups := make(map[string]*groupAccumulator)
	for _, r := range ds.Records {
		k := key(r)
		if k == nil {
			continue
		}
		if groups[*k] == nil {
			groups[*k] = &groupAccumulator{}
		}
		groups[*k].add(r)
	}

	out := make([]GroupPerformance, 0, len(groups))
	for name, g := range groups {
		gp := GroupPerformance{
			Name:          name,
			Revenue:       roundTo(g.revenue, 2),
			Orders:        g.orders,
			AvgOrderValue: meanOf(g.revenue, g.revenueN),
			AvgUnitPrice:  meanOf(g.priceSum, g.priceN),
			AvgQuantity:   meanOf(g.quantitySum, g.quantityN),
			OrderShare:    roundTo(ratioPercent(g.orders, total.orders), 2),
		}
		if total.revenue != 0 {
			gp.RevenueShare = roundTo(g.revenue/total.revenue*100, 2)
		}
		out = append(out, gp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func recommendations(a *BusinessAnalysis) []string {
	var out []string
	p := message.NewPrinter(language.SimplifiedChinese)
	if len(a.Salespeople) > 0 {
		out = append(out, p.Sprintf("重点扶持: %s (贡献度 %.2f%%)，可分享其成功经验", a.Salespeople[0].Name, a.Salespeople[0].RevenueShare))
	}
	if len(a.Categories) > 0 {
		out = append(out, p.Sprintf("产品策略: 聚焦 %s (销售额占比 %.2f%%)，考虑扩大库存", a.Categories[0].Name, a.Categories[0].RevenueShare))
	}
	if len(a.Regions) > 0 {
		out = append(out, p.Sprintf("区域拓展: 巩固 %s 市场优势 (市场份额 %.2f%%)", a.Regions[0].Name, a.Regions[0].RevenueShare))
		out = append(out, "资源分配: 根据各区域市场份额分配营销预算")
	}
	return out
}

// RenderAnalysis 业务分析文本
func RenderAnalysis(a *BusinessAnalysis) string {
	p := message.NewPrinter(language.SimplifiedChinese)
	var b strings.Builder
	b.WriteString("销售业务分析报告\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	writeAnalysis(&b, p, a, "")
	return b.String()
}

// writeAnalysis 输出各分析小节，prefix 为小节标题前缀
func writeAnalysis(b *strings.Builder, p *message.Printer, a *BusinessAnalysis, prefix string) {
	p.Fprintf(b, "%s核心指标\n", prefix)
	if a.DateFrom != nil && a.DateTo != nil {
		p.Fprintf(b, "  分析周期: %s 至 %s\n", a.DateFrom.Format(time.DateOnly), a.DateTo.Format(time.DateOnly))
	}
	p.Fprintf(b, "  总销售额: ¥%.2f\n", a.TotalRevenue)
	p.Fprintf(b, "  总订单数: %d\n", a.Orders)
	p.Fprintf(b, "  平均订单金额: ¥%.2f\n", a.AvgOrderValue)
	p.Fprintf(b, "  客单价: ¥%.2f\n\n", a.RevenuePerCustomerType)

	p.Fprintf(b, "%s销售团队表现\n", prefix)
	for _, g := range a.Salespeople {
		p.Fprintf(b, "  %s: 贡献度 %.2f%% (¥%.0f, %d 单, 平均订单额 ¥%.2f)\n", g.Name, g.RevenueShare, g.Revenue, g.Orders, g.AvgOrderValue)
	}
	p.Fprintf(b, "\n%s产品类别表现\n", prefix)
	for _, g := range a.Categories {
		p.Fprintf(b, "  %s: %.2f%% 销售额, %.2f%% 订单量 (平均单价 ¥%.2f)\n", g.Name, g.RevenueShare, g.OrderShare, g.AvgUnitPrice)
	}
	p.Fprintf(b, "\n%s区域市场分布\n", prefix)
	for _, g := range a.Regions {
		p.Fprintf(b, "  %s: %.2f%% 市场份额 (¥%.0f)\n", g.Name, g.RevenueShare, g.Revenue)
	}

	p.Fprintf(b, "\n%s月度趋势\n", prefix)
	for _, m := range a.Monthly {
		p.Fprintf(b, "  %s: ¥%.2f, %d 单, 平均单价 ¥%.2f\n", m.Month, m.Revenue, m.Orders, m.AvgUnitPrice)
	}
	if a.GrowthRate != nil {
		p.Fprintf(b, "  增长率 (末月对首月): %.2f%%\n", *a.GrowthRate)
	}

	if len(a.Recommendations) > 0 {
		p.Fprintf(b, "\n%s业务建议\n", prefix)
		for i, rec := range a.Recommendations {
			p.Fprintf(b, "  %d. %s\n", i+1, rec)
		}
	}
}
