package monitoring

import (
	"strings"
	"testing"

	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/models"
	"sales-quality-service/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithAnomalies(t *testing.T) *data_quality.RunResult {
	records := []*models.SalesRecord{
		testutil.NewSalesRecord(testutil.WithOrderID("ORD00001")),
		testutil.NewSalesRecord(testutil.WithOrderID("ORD00002"), testutil.WithPrice(50000)),
		testutil.NewSalesRecord(testutil.WithOrderID("ORD00003")),
	}
	records[2].Quantity = models.Ptr(int64(50))
	records[2].Revenue = models.Ptr(4999.0 * 50)

	engine := data_quality.NewQualityEngine(data_quality.Options{PriceStrategy: data_quality.MidpointPriceStrategy{}})
	result, err := engine.Run(data_quality.NewDataset(records))
	require.NoError(t, err)
	return result
}

func TestMetricsCollector_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsCollector(reg)
	result := runWithAnomalies(t)

	m.ObserveRun(result, models.TriggerManual)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.runsTotal.WithLabelValues("completed", models.TriggerManual)))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.recordsProcessed))
	assert.Equal(t, result.RawScore.Composite, promtest.ToFloat64(m.score.WithLabelValues("raw", "composite")))
	assert.Equal(t, result.CleanedScore.Composite, promtest.ToFloat64(m.score.WithLabelValues("cleaned", "composite")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.anomalies.WithLabelValues(data_quality.RulePriceOutOfRange, "智能手机")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.anomalies.WithLabelValues(data_quality.RuleQuantityExcessive, "")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.remediationActions.WithLabelValues(data_quality.RulePriceOutOfRange)))

	expected := `
# HELP sales_quality_runs_total 质量运行次数
# TYPE sales_quality_runs_total counter
sales_quality_runs_total{status="completed",trigger="manual"} 1
`
	assert.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected), "sales_quality_runs_total"))
}

func TestMetricsCollector_AnomalyGaugeReset(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())
	m.ObserveRun(runWithAnomalies(t), models.TriggerSchedule)
	assert.Equal(t, 2, promtest.CollectAndCount(m.anomalies))

	clean := data_quality.NewDataset([]*models.SalesRecord{testutil.NewSalesRecord()})
	result, err := data_quality.NewQualityEngine(data_quality.Options{}).Run(clean)
	require.NoError(t, err)
	m.ObserveRun(result, models.TriggerSchedule)
	assert.Equal(t, 0, promtest.CollectAndCount(m.anomalies))
}

func TestMetricsCollector_ObserveFailure(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())
	m.ObserveFailure(models.TriggerSchedule)
	m.ObserveFailure(models.TriggerSchedule)
	assert.Equal(t, 2.0, promtest.ToFloat64(m.runsTotal.WithLabelValues("failed", models.TriggerSchedule)))
}

func TestMetricsCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetricsCollector(reg)
	assert.Panics(t, func() { NewMetricsCollector(reg) })
}
