/*
 * @module service/data_quality/report
 * @description 质量报告生成，将一次运行的概况、评分、异常统计、清洗日志与建议汇总为文本报告
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 运行结果 -> 各章节渲染 -> 清洗后业务分析 -> 报告文本
 * @rules 报告只读取运行结果，不触发任何重新计算
 * @dependencies golang.org/x/text/message, golang.org/x/text/language
 * @refs quality_engine.go, analysis.go
 */

package data_quality

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const reportTimeLayout = "2006-01-02 15:04:05"

// RenderReport 生成运行报告文本
func RenderReport(result *RunResult) string {
	p := message.NewPrinter(language.SimplifiedChinese)
	var b strings.Builder

	b.WriteString("销售数据质量报告\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	p.Fprintf(&b, "生成时间: %s\n", result.FinishedAt.Format(reportTimeLayout))
	p.Fprintf(&b, "运行编号: %s\n\n", result.RunID)

	writeOverview(&b, p, result)
	writeScores(&b, p, result)
	writeAnomalyTable(&b, p, result)
	writeRemediationLog(&b, p, result)
	writeConclusion(&b, p, result)
	writeBusinessSection(&b, p, result)
	return b.String()
}

func writeOverview(b *strings.Builder, p *message.Printer, result *RunResult) {
	b.WriteString("一、数据概况\n")
	p.Fprintf(b, "  原始记录数: %d\n", result.Profile.RecordCount)
	if v := result.Verification; v != nil {
		p.Fprintf(b, "  清洗后记录数: %d (保留率 %.1f%%)\n", v.CleanedCount, v.RetentionRatio*100)
	}
	if result.Profile.DateFrom != nil && result.Profile.DateTo != nil {
		p.Fprintf(b, "  时间范围: %s 至 %s\n",
			result.Profile.DateFrom.Format(time.DateOnly), result.Profile.DateTo.Format(time.DateOnly))
	}
	p.Fprintf(b, "  销售人员: %d, 产品类别: %d, 销售区域: %d\n",
		result.Profile.Salespeople, result.Profile.Categories, result.Profile.Regions)
	if result.Cleaned != nil {
		if total, ok := totalRevenue(result.Cleaned); ok {
			p.Fprintf(b, "  清洗后销售总额: ¥%.2f\n", total)
		}
	}
	b.WriteString("\n")
}

func writeScores(b *strings.Builder, p *message.Printer, result *RunResult) {
	b.WriteString("二、质量评分\n")
	for _, d := range Dimensions {
		raw, _ := result.RawScore.Dimension(d)
		cleaned, _ := result.CleanedScore.Dimension(d)
		if !raw.Defined {
			p.Fprintf(b, "  %s: 无法评估 (%s)\n", d.Label(), raw.Reason)
			continue
		}
		p.Fprintf(b, "  %s: %.1f -> %.1f (权重 %.2f)\n", d.Label(), raw.Score, cleaned.Score, raw.Weight)
	}
	p.Fprintf(b, "  综合评分: %s -> %s\n\n", result.RawScore.String(), result.CleanedScore.String())
}

func writeAnomalyTable(b *strings.Builder, p *message.Printer, result *RunResult) {
	b.WriteString("三、异常统计 (清洗前 -> 清洗后)\n")
	before := result.Anomalies.Counts()
	after := map[string]int{}
	if result.CleanedAnomalies != nil {
		after = result.CleanedAnomalies.Counts()
	}

	var names []string
	for _, s := range result.Anomalies.Sets() {
		names = append(names, s.Name())
	}
	var extra []string
	for name := range after {
		if _, seen := before[name]; !seen {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	if len(names) == 0 {
		b.WriteString("  未发现异常\n")
	}
	for _, name := range names {
		p.Fprintf(b, "  %s: %d -> %d\n", name, before[name], after[name])
	}
	if s := result.Anomalies.QuantityExcessive; s.Len() > 0 && s.Suspicious > 0 {
		p.Fprintf(b, "  其中超过可疑阈值的数量异常: %d\n", s.Suspicious)
	}
	total := result.Anomalies.Total()
	p.Fprintf(b, "  异常总数: %d (占记录 %.1f%%)\n", total, ratioPercent(total, result.Profile.RecordCount))
	if skipped := result.Anomalies.SkippedRules(); len(skipped) > 0 {
		p.Fprintf(b, "  未执行的规则: %s\n", strings.Join(skipped, ", "))
	}
	b.WriteString("\n")
}

func writeRemediationLog(b *strings.Builder, p *message.Printer, result *RunResult) {
	b.WriteString("四、清洗日志\n")
	if result.Log == nil || result.Log.Len() == 0 {
		b.WriteString("  无需清洗\n\n")
		return
	}
	for _, a := range result.Log.Actions() {
		p.Fprintf(b, "  %d. %s\n", a.Step, a.Message)
	}
	b.WriteString("\n")
}

func writeConclusion(b *strings.Builder, p *message.Printer, result *RunResult) {
	b.WriteString("五、质量等级与建议\n")
	p.Fprintf(b, "  清洗前等级: %s\n", result.RawScore.Grade.Label())
	p.Fprintf(b, "  清洗后等级: %s\n", result.CleanedScore.Grade.Label())
	p.Fprintf(b, "  建议: %s\n", result.RawScore.Grade.Recommendation())
}

func writeBusinessSection(b *strings.Builder, p *message.Printer, result *RunResult) {
	if result.Cleaned == nil {
		return
	}
	analysis, err := AnalyzeSales(result.Cleaned)
	if err != nil {
		return
	}
	b.WriteString("\n六、业务分析 (清洗后数据)\n")
	writeAnalysis(b, p, analysis, "  ")
}

func totalRevenue(ds *Dataset) (float64, bool) {
	total := 0.0
	found := false
	for _, r := range ds.Records {
		if r.Revenue != nil {
			total += *r.Revenue
			found = true
		}
	}
	return total, found
}

func ratioPercent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
