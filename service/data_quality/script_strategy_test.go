package data_quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptPriceStrategy(t *testing.T) {
	bound := PriceBound{Min: 1000, Max: 3000}

	t.Run("按区间比例取值", func(t *testing.T) {
		s, err := NewScriptPriceStrategy("return min + (max-min)*0.25")
		require.NoError(t, err)
		assert.Equal(t, 1500.0, s.ReplacementPrice("智能手表", bound))
	})

	t.Run("按类别分支", func(t *testing.T) {
		s, err := NewScriptPriceStrategy(`
if strings.HasPrefix(category, "智能") {
	return max
}
return min`)
		require.NoError(t, err)
		assert.Equal(t, 3000.0, s.ReplacementPrice("智能手表", bound))
		assert.Equal(t, 1000.0, s.ReplacementPrice("耳机", bound))
	})

	t.Run("非法返回值回退到中点", func(t *testing.T) {
		s, err := NewScriptPriceStrategy("return math.NaN()")
		require.NoError(t, err)
		assert.Equal(t, 2000.0, s.ReplacementPrice("耳机", bound))
	})

	t.Run("编译失败", func(t *testing.T) {
		_, err := NewScriptPriceStrategy("return min +")
		assert.Error(t, err)
	})
}

func TestScriptStrategyInCleanser(t *testing.T) {
	s, err := NewScriptPriceStrategy("return max")
	require.NoError(t, err)

	records := cleanRecords(5)
	setPrice(records[4], 5)
	cleaned, _ := remediate(t, NewDataset(records), s)

	// 耳机修正区间上限
	assert.Equal(t, 1500.0, *cleaned.Records[4].UnitPrice)
}
