package data_quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-quality-service/service/models"
)

// anomalousDataset 每条记录触发一种异常
func anomalousDataset() *Dataset {
	records := []*models.SalesRecord{
		newRecord("ORD1", "智能手机", 50000, 1),
		newRecord("ORD2", "耳机", 299, 15),
		newRecord("ORD3", "耳机", 299, 25),
		newRecord("ORD4", "智能手表", 1999, 2),
		newRecord("ORD4", "平板电脑", 3299, 1),
		newRecord("ORD6", "游戏机", 50, 1),
		newRecord("ORD7", "笔记本电脑", 8999, 1),
	}
	records[3].Revenue = models.Ptr(1.0)
	records[6].Region = nil
	return NewDataset(records)
}

func TestDetectorDetect(t *testing.T) {
	detector := NewDetector(DefaultRuleCatalog())

	a, err := detector.Detect(anomalousDataset())
	require.NoError(t, err)

	assert.Equal(t, []int{0}, a.PriceOutOfRange["智能手机"].Indices)
	assert.Equal(t, []string{"ORD1"}, a.PriceOutOfRange["智能手机"].OrderIDs)
	assert.Equal(t, []int{5}, a.PriceOutOfRange[OtherCategories].Indices)
	assert.Equal(t, 0, a.PriceOutOfRange["耳机"].Len())

	assert.Equal(t, []int{1, 2}, a.QuantityExcessive.Indices)
	assert.Equal(t, 1, a.QuantityExcessive.Suspicious)
	assert.Equal(t, []int{3}, a.RevenueMismatch.Indices)
	assert.Equal(t, []int{4}, a.DuplicateOrderID.Indices)

	require.Contains(t, a.MissingValues, models.ColumnRegion)
	assert.Equal(t, []int{6}, a.MissingValues[models.ColumnRegion].Indices)
	assert.NotContains(t, a.MissingValues, models.ColumnCategory)
	assert.Equal(t, []string{models.ColumnRegion}, a.MissingColumns())

	assert.Equal(t, 7, a.Total())
	assert.Equal(t, 3, a.PriceAnomalyCount()+a.RevenueMismatch.Len())
	assert.Empty(t, a.SkippedRules())

	counts := a.Counts()
	assert.Equal(t, 1, counts["price_out_of_range[智能手机]"])
	assert.Equal(t, 1, counts["price_out_of_range[__other__]"])
	assert.Equal(t, 2, counts["quantity_excessive"])
	assert.Equal(t, 1, counts["missing_values[region]"])
}

func TestDetectorCleanDataset(t *testing.T) {
	detector := NewDetector(DefaultRuleCatalog())

	a, err := detector.Detect(NewDataset(cleanRecords(20)))
	require.NoError(t, err)

	assert.Equal(t, 0, a.Total())
	assert.Empty(t, a.Sets())
	assert.Empty(t, a.MissingValues)
	for _, c := range DefaultRuleCatalog().Categories() {
		require.Contains(t, a.PriceOutOfRange, c)
		assert.Equal(t, 0, a.PriceOutOfRange[c].Len())
	}
}

func TestDetectorBoundaries(t *testing.T) {
	detector := NewDetector(DefaultRuleCatalog())

	records := []*models.SalesRecord{
		newRecord("B1", "智能手机", 1000, 1),
		newRecord("B2", "智能手机", 10000, 10),
		newRecord("B3", "耳机", 50, 1),
		newRecord("B4", "游戏机", 100000, 1),
		newRecord("B5", "耳机", 299, 3),
	}
	// 差额在容差范围内
	records[4].Revenue = models.Ptr(897.005)

	a, err := detector.Detect(NewDataset(records))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Total())

	setQuantity(records[0], 0)
	records[4].Revenue = models.Ptr(897.02)
	a, err = detector.Detect(NewDataset(records))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, a.QuantityExcessive.Indices)
	assert.Equal(t, 0, a.QuantityExcessive.Suspicious)
	assert.Equal(t, []int{4}, a.RevenueMismatch.Indices)
}

func TestDetectorNullsDoNotTriggerValueRules(t *testing.T) {
	detector := NewDetector(DefaultRuleCatalog())

	records := cleanRecords(3)
	records[0].UnitPrice = nil
	records[1].Quantity = nil
	records[2].OrderID = nil

	a, err := detector.Detect(NewDataset(records))
	require.NoError(t, err)

	assert.Equal(t, 0, a.PriceAnomalyCount())
	assert.Equal(t, 0, a.QuantityExcessive.Len())
	assert.Equal(t, 0, a.RevenueMismatch.Len())
	assert.Equal(t, 0, a.DuplicateOrderID.Len())
	assert.ElementsMatch(t,
		[]string{models.ColumnOrderID, models.ColumnUnitPrice, models.ColumnQuantity},
		a.MissingColumns())
}

func TestDetectorSchemaSkip(t *testing.T) {
	detector := NewDetector(DefaultRuleCatalog())

	records := cleanRecords(5)
	setPrice(records[0], 1)
	ds := NewDataset(records, models.ColumnOrderID, models.ColumnCategory, models.ColumnUnitPrice)

	a, err := detector.Detect(ds)
	require.NoError(t, err)

	assert.Equal(t, []string{RuleQuantityExcessive, RuleRevenueMismatch}, a.SkippedRules())
	assert.False(t, a.Evaluable(RuleRevenueMismatch))
	assert.Equal(t, []string{models.ColumnQuantity, models.ColumnRevenue}, a.NotEvaluable[RuleRevenueMismatch].Missing)
	assert.Nil(t, a.QuantityExcessive)
	assert.Nil(t, a.RevenueMismatch)
	assert.Equal(t, 1, a.PriceAnomalyCount())
}

func TestDetectorErrors(t *testing.T) {
	detector := NewDetector(DefaultRuleCatalog())

	_, err := detector.Detect(NewDataset(nil))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = detector.Detect(&Dataset{Records: cleanRecords(2)})
	assert.ErrorIs(t, err, ErrNoEvaluableRule)
}

func TestDetectorDoesNotMutateInput(t *testing.T) {
	ds := anomalousDataset()
	before := snapshot(ds)

	_, err := NewDetector(DefaultRuleCatalog()).Detect(ds)
	require.NoError(t, err)

	for i := range before {
		assert.True(t, before[i].Equal(ds.Records[i]), "record %d changed", i)
	}
}
