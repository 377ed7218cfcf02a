package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

func TestCacheKey_AllergyOrderInsensitive(t *testing.T) {
	a := CacheKey("p1", types.LanguageEN, []string{"Peanuts", "Milk"})
	b := CacheKey("p1", types.LanguageEN, []string{"milk", "peanuts"})

	assert.Equal(t, a, b)
}

func TestCacheKey_DiscriminatesComponents(t *testing.T) {
	base := CacheKey("p1", types.LanguageEN, []string{"Milk"})

	assert.NotEqual(t, base, CacheKey("p2", types.LanguageEN, []string{"Milk"}))
	assert.NotEqual(t, base, CacheKey("p1", types.LanguageES, []string{"Milk"}))
	assert.NotEqual(t, base, CacheKey("p1", types.LanguageEN, []string{"Soy"}))
	assert.NotEqual(t, base, CacheKey("p1", types.LanguageEN, nil))
}

func TestCache_PutGet(t *testing.T) {
	c, err := NewCache(10)
	require.NoError(t, err)

	result := types.AnalysisResult{Status: types.StatusSuitable, NutritionScore: 80}
	c.Put("k1", result)

	got, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, result, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	c.Put("a", types.AnalysisResult{NutritionScore: 1})
	c.Put("b", types.AnalysisResult{NutritionScore: 2})

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", types.AnalysisResult{NutritionScore: 3})

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_BoundedGrowth(t *testing.T) {
	c, err := NewCache(50)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		c.Put(fmt.Sprintf("key-%d", i), types.AnalysisResult{NutritionScore: i % 100})
	}

	assert.Equal(t, 50, c.Len())
}

func TestNewCache_DefaultSize(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	assert.NotNil(t, c)
}
