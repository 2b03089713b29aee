package data_quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-quality-service/service/models"
)

func analysisDataset() *Dataset {
	records := []*models.SalesRecord{
		newRecord("A1", "智能手机", 5000, 2),
		newRecord("A2", "耳机", 500, 2),
		newRecord("A3", "智能手机", 6000, 1),
		newRecord("A4", "笔记本电脑", 9000, 1),
	}
	records[1].SalespersonName = models.Ptr("李娜")
	records[1].CustomerType = models.Ptr("个人客户")
	records[3].SalespersonName = models.Ptr("李娜")
	records[3].Region = models.Ptr("华北")
	records[2].OrderDate = models.Ptr(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	records[3].OrderDate = models.Ptr(time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC))
	return NewDataset(records)
}

func TestAnalyzeSalesKPIs(t *testing.T) {
	a, err := AnalyzeSales(analysisDataset())
	require.NoError(t, err)

	assert.Equal(t, 26000.0, a.TotalRevenue)
	assert.Equal(t, 4, a.Orders)
	assert.Equal(t, 6500.0, a.AvgOrderValue)
	// 两种客户类型
	assert.Equal(t, 13000.0, a.RevenuePerCustomerType)
	assert.Equal(t, testOrderDate, *a.DateFrom)
	assert.Equal(t, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), *a.DateTo)
}

func TestAnalyzeSalesGroups(t *testing.T) {
	a, err := AnalyzeSales(analysisDataset())
	require.NoError(t, err)

	require.Len(t, a.Salespeople, 2)
	assert.Equal(t, "张伟", a.Salespeople[0].Name)
	assert.Equal(t, 16000.0, a.Salespeople[0].Revenue)
	assert.Equal(t, 2, a.Salespeople[0].Orders)
	assert.Equal(t, 61.54, a.Salespeople[0].RevenueShare)
	assert.Equal(t, "李娜", a.Salespeople[1].Name)
	assert.Equal(t, 38.46, a.Salespeople[1].RevenueShare)

	require.Len(t, a.Categories, 3)
	assert.Equal(t, "智能手机", a.Categories[0].Name)
	assert.Equal(t, 5500.0, a.Categories[0].AvgUnitPrice)
	assert.Equal(t, 1.5, a.Categories[0].AvgQuantity)
	assert.Equal(t, 50.0, a.Categories[0].OrderShare)
	assert.Equal(t, "耳机", a.Categories[2].Name)

	require.Len(t, a.Regions, 2)
	assert.Equal(t, "华东", a.Regions[0].Name)
	assert.Equal(t, 65.38, a.Regions[0].RevenueShare)
}

func TestAnalyzeSalesMonthlyTrend(t *testing.T) {
	a, err := AnalyzeSales(analysisDataset())
	require.NoError(t, err)

	require.Len(t, a.Monthly, 2)
	assert.Equal(t, MonthlyTrend{Month: "2024-03", Revenue: 11000, Orders: 2, AvgUnitPrice: 2750}, a.Monthly[0])
	assert.Equal(t, MonthlyTrend{Month: "2024-04", Revenue: 15000, Orders: 2, AvgUnitPrice: 7500}, a.Monthly[1])
	require.NotNil(t, a.GrowthRate)
	assert.Equal(t, 36.36, *a.GrowthRate)
}

func TestAnalyzeSalesSingleMonthHasNoGrowth(t *testing.T) {
	a, err := AnalyzeSales(NewDataset(cleanRecords(10)))
	require.NoError(t, err)

	assert.Len(t, a.Monthly, 1)
	assert.Nil(t, a.GrowthRate)
}

func TestAnalyzeSalesSkipsNullGroupKeys(t *testing.T) {
	records := cleanRecords(4)
	records[0].Region = nil

	a, err := AnalyzeSales(NewDataset(records))
	require.NoError(t, err)

	require.Len(t, a.Regions, 1)
	assert.Equal(t, 3, a.Regions[0].Orders)
	assert.Equal(t, 75.0, a.Regions[0].OrderShare)
}

func TestAnalyzeSalesEmptyInput(t *testing.T) {
	_, err := AnalyzeSales(NewDataset(nil))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRenderAnalysis(t *testing.T) {
	a, err := AnalyzeSales(analysisDataset())
	require.NoError(t, err)

	text := RenderAnalysis(a)

	for _, section := range []string{"核心指标", "销售团队表现", "产品类别表现", "区域市场分布", "月度趋势", "业务建议"} {
		assert.Contains(t, text, section)
	}
	assert.Contains(t, text, "总销售额: ¥26,000.00")
	assert.Contains(t, text, "张伟: 贡献度 61.54%")
	assert.Contains(t, text, "增长率 (末月对首月): 36.36%")
	assert.Contains(t, text, "重点扶持: 张伟")
}

func TestRenderReportIncludesBusinessSection(t *testing.T) {
	result, err := NewQualityEngine(Options{}).Run(NewDataset(cleanRecords(5)))
	require.NoError(t, err)

	report := RenderReport(result)

	assert.Contains(t, report, "六、业务分析 (清洗后数据)")
	assert.Contains(t, report, "销售团队表现")
}
