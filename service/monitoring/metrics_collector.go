/*
 * @module service/monitoring/metrics_collector
 * @description 质量运行指标收集，记录运行次数、耗时、评分、各规则异常数与清洗动作，通过 /metrics 暴露
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 运行结束 -> 记录指标 -> Prometheus 抓取
 * @rules 指标注册到构造时传入的 Registerer，测试使用独立注册表
 * @dependencies github.com/prometheus/client_golang
 * @refs service/quality_service.go, main.go
 */

package monitoring

import (
	"sales-quality-service/service/data_quality"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sales_quality"

// MetricsCollector 质量运行指标收集器
type MetricsCollector struct {
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	score              *prometheus.GaugeVec
	anomalies          *prometheus.GaugeVec
	remediationActions *prometheus.CounterVec
	recordsProcessed   prometheus.Counter
}

// NewMetricsCollector 创建并注册指标
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	m := &MetricsCollector{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "质量运行次数",
		}, []string{"status", "trigger"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "质量运行耗时",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "最近一次运行的质量评分",
		}, []string{"stage", "dimension"}),
		anomalies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomalies",
			Help:      "最近一次运行各规则的异常记录数",
		}, []string{"rule", "subject"}),
		remediationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remediation_actions_total",
			Help:      "清洗步骤累计修正的记录数",
		}, []string{"rule"}),
		recordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "累计处理的记录数",
		}),
	}

	reg.MustRegister(m.runsTotal, m.runDuration, m.score, m.anomalies, m.remediationActions, m.recordsProcessed)
	return m
}

// ObserveRun 记录一次成功运行
func (m *MetricsCollector) ObserveRun(result *data_quality.RunResult, trigger string) {
	m.runsTotal.WithLabelValues("completed", trigger).Inc()
	m.runDuration.Observe(result.Duration().Seconds())
	m.recordsProcessed.Add(float64(result.Raw.Len()))

	m.observeScore("raw", result.RawScore)
	m.observeScore("cleaned", result.CleanedScore)

	// 上一次运行的集合可能本次为空
	m.anomalies.Reset()
	for _, set := range result.Anomalies.Sets() {
		m.anomalies.WithLabelValues(set.Rule, set.Subject).Set(float64(set.Len()))
	}

	for _, action := range result.Log.Actions() {
		m.remediationActions.WithLabelValues(action.Rule).Add(float64(action.Affected))
	}
}

// ObserveFailure 记录一次失败运行
func (m *MetricsCollector) ObserveFailure(trigger string) {
	m.runsTotal.WithLabelValues("failed", trigger).Inc()
}

func (m *MetricsCollector) observeScore(stage string, s data_quality.QualityScore) {
	m.score.WithLabelValues(stage, "composite").Set(s.Composite)
	for _, d := range s.Dimensions {
		if d.Defined {
			m.score.WithLabelValues(stage, string(d.Dimension)).Set(d.Score)
		}
	}
}
