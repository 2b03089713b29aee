package data_quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierVerify(t *testing.T) {
	raw := anomalousDataset()
	cleaned, _ := remediate(t, raw, MidpointPriceStrategy{})

	v, err := NewVerifier(DefaultRuleCatalog()).Verify(raw, cleaned)
	require.NoError(t, err)

	assert.Equal(t, 7, v.RawCount)
	assert.Equal(t, 7, v.CleanedCount)
	assert.Equal(t, 1.0, v.RetentionRatio)

	assert.Equal(t, CountDelta{Before: 2, After: 0}, v.PriceAnomalies)
	assert.Equal(t, CountDelta{Before: 1, After: 0}, v.PriceByCategory["智能手机"])
	assert.Equal(t, CountDelta{Before: 1, After: 0}, v.PriceByCategory[OtherCategories])
	assert.Equal(t, CountDelta{Before: 1, After: 0}, v.RevenueMismatches)
	assert.Equal(t, CountDelta{Before: 2, After: 0}, v.QuantityOutOfRange)
	assert.Equal(t, CountDelta{Before: 1, After: 0}, v.DuplicateOrderIDs)
	assert.True(t, v.PriceAnomalies.Improved())
}

func TestVerifierCleanDataset(t *testing.T) {
	raw := NewDataset(cleanRecords(10))

	v, err := NewVerifier(DefaultRuleCatalog()).Verify(raw, raw.Clone())
	require.NoError(t, err)

	assert.Equal(t, 1.0, v.RetentionRatio)
	assert.Equal(t, CountDelta{}, v.PriceAnomalies)
	assert.Empty(t, v.PriceByCategory)
	assert.False(t, v.PriceAnomalies.Improved())
}

func TestVerifierEmptyInput(t *testing.T) {
	_, err := NewVerifier(DefaultRuleCatalog()).Verify(NewDataset(nil), NewDataset(nil))
	assert.ErrorIs(t, err, ErrEmptyInput)
}
