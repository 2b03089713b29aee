package data_quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-quality-service/service/models"
)

func scoreDataset(t *testing.T, ds *Dataset) QualityScore {
	t.Helper()
	catalog := DefaultRuleCatalog()
	a, err := NewDetector(catalog).Detect(ds)
	require.NoError(t, err)
	score, err := NewScorer(catalog).Score(ds, a)
	require.NoError(t, err)
	return score
}

func TestScorerCleanDataset(t *testing.T) {
	score := scoreDataset(t, NewDataset(cleanRecords(50)))

	assert.Equal(t, 100.0, score.Composite)
	assert.Equal(t, GradeExcellent, score.Grade)
	assert.Equal(t, 50, score.RecordCount)
	require.Len(t, score.Dimensions, 4)

	total := 0.0
	for _, d := range score.Dimensions {
		assert.True(t, d.Defined)
		assert.InDelta(t, 100.0, d.Score, 1e-9)
		total += d.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	accuracy, ok := score.Dimension(DimensionAccuracy)
	require.True(t, ok)
	assert.InDelta(t, 0.35, accuracy.Weight, 1e-9)
}

func TestScorerDimensions(t *testing.T) {
	records := cleanRecords(10)
	records[0].Revenue = models.Ptr(1.0)
	setPrice(records[1], 50000)
	setPrice(records[2], 10)
	records[3].OrderID = models.Ptr("ORD00001")
	records[4].Region = nil

	score := scoreDataset(t, NewDataset(records))

	expected := map[Dimension]float64{
		DimensionCompleteness: 99.0,
		DimensionAccuracy:     90.0,
		DimensionPlausibility: 80.0,
		DimensionUniqueness:   90.0,
	}
	for d, want := range expected {
		got, ok := score.Dimension(d)
		require.True(t, ok)
		assert.InDelta(t, want, got.Score, 1e-9, d.Label())
	}
	// 99*0.25 + 90*0.35 + 80*0.30 + 90*0.10 = 89.25
	assert.InDelta(t, 89.25, score.Composite, 0.051)
	assert.Equal(t, GradeGood, score.Grade)
}

func TestScorerRecordsWithNullsCountAsFailing(t *testing.T) {
	records := cleanRecords(4)
	records[0].Revenue = nil
	records[1].UnitPrice = nil

	score := scoreDataset(t, NewDataset(records))

	accuracy, _ := score.Dimension(DimensionAccuracy)
	plausibility, _ := score.Dimension(DimensionPlausibility)
	assert.InDelta(t, 50.0, accuracy.Score, 1e-9)
	assert.InDelta(t, 75.0, plausibility.Score, 1e-9)
}

func TestScorerRenormalizesUndefinedDimensions(t *testing.T) {
	ds := NewDataset(cleanRecords(10),
		models.ColumnOrderID, models.ColumnCategory, models.ColumnUnitPrice, models.ColumnQuantity)

	score := scoreDataset(t, ds)

	accuracy, _ := score.Dimension(DimensionAccuracy)
	assert.False(t, accuracy.Defined)
	assert.Zero(t, accuracy.Weight)
	assert.NotEmpty(t, accuracy.Reason)

	completeness, _ := score.Dimension(DimensionCompleteness)
	assert.InDelta(t, 0.25/0.65, completeness.Weight, 1e-9)
	assert.Equal(t, 100.0, score.Composite)
}

func TestScorerErrors(t *testing.T) {
	scorer := NewScorer(DefaultRuleCatalog())

	_, err := scorer.Score(NewDataset(nil), &Anomalies{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	ds := &Dataset{Records: cleanRecords(3)}
	a := &Anomalies{NotEvaluable: map[string]*SchemaError{
		RulePriceOutOfRange:  {Rule: RulePriceOutOfRange},
		RuleRevenueMismatch:  {Rule: RuleRevenueMismatch},
		RuleDuplicateOrderID: {Rule: RuleDuplicateOrderID},
	}}
	_, err = scorer.Score(ds, a)
	assert.ErrorIs(t, err, ErrScoreUndefined)
}

func TestGradeFor(t *testing.T) {
	testCases := []struct {
		composite float64
		grade     Grade
		label     string
	}{
		{100, GradeExcellent, "优秀"},
		{90, GradeExcellent, "优秀"},
		{89.9, GradeGood, "良好"},
		{80, GradeGood, "良好"},
		{79.9, GradeFair, "一般"},
		{70, GradeFair, "一般"},
		{69.9, GradePoor, "需改进"},
		{0, GradePoor, "需改进"},
	}

	for _, tc := range testCases {
		g := GradeFor(tc.composite)
		assert.Equal(t, tc.grade, g, "composite %v", tc.composite)
		assert.Equal(t, tc.label, g.Label())
		assert.NotEmpty(t, g.Recommendation())
	}
}
