package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

func proteinBar() *types.Product {
	return &types.Product{
		ID:          "9876543210987",
		Barcode:     "9876543210987",
		Name:        "Protein Energy Bar",
		Brand:       "FitLife",
		Ingredients: []string{"Peanuts", "Whey Protein", "Sugar", "Palm Oil"},
		Allergens:   []string{"Peanuts", "Milk"},
		Nutrition: types.Nutrition{
			Calories: 210,
			Protein:  20,
			Sugar:    15,
			Sodium:   180,
			Fiber:    3,
		},
	}
}

func TestFallback_AllergenOverlapShortCircuits(t *testing.T) {
	profile := &types.UserProfile{Allergies: []string{"Peanuts"}}

	result := Fallback(proteinBar(), profile, types.LanguageEN)

	assert.Equal(t, types.StatusNotRecommended, result.Status)
	assert.Equal(t, 10, result.NutritionScore)
	assert.Empty(t, result.Benefits)

	require.Len(t, result.Issues, 2)
	assert.Contains(t, result.Issues[0], "Peanuts")
	assert.Contains(t, result.Issues[0], "Milk")
	assert.Contains(t, result.AIDescription, "not safe")
}

func TestFallback_WorkedExampleScores95(t *testing.T) {
	product := &types.Product{
		ID:   "x",
		Name: "Test Product",
		Nutrition: types.Nutrition{
			Sugar:   2,
			Sodium:  100,
			Protein: 15,
			Fiber:   6,
		},
	}
	profile := &types.UserProfile{}

	result := Fallback(product, profile, types.LanguageEN)

	// 50 +10 (low sugar) +10 (low sodium) +15 (protein) +10 (fiber) = 95
	assert.Equal(t, 95, result.NutritionScore)
	assert.Equal(t, types.StatusSuitable, result.Status)
	assert.Len(t, result.Benefits, 4)
	assert.Equal(t, []string{"Consume in moderation"}, result.Issues)
}

func TestFallback_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		nutrition types.Nutrition
		expected  types.SuitabilityStatus
		score     int
	}{
		{
			name:      "suitable at 70",
			nutrition: types.Nutrition{Sugar: 2, Sodium: 100},
			expected:  types.StatusSuitable,
			score:     70,
		},
		{
			name:      "questionable in the middle",
			nutrition: types.Nutrition{Sugar: 10, Sodium: 300},
			expected:  types.StatusQuestionable,
			score:     50,
		},
		{
			name:      "not recommended when everything is bad",
			nutrition: types.Nutrition{Sugar: 20, Sodium: 900},
			expected:  types.StatusNotRecommended,
			score:     15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Fallback(&types.Product{Nutrition: tt.nutrition}, &types.UserProfile{}, types.LanguageEN)
			assert.Equal(t, tt.score, result.NutritionScore)
			assert.Equal(t, tt.expected, result.Status)
		})
	}
}

func TestFallback_Deterministic(t *testing.T) {
	product := proteinBar()
	profile := &types.UserProfile{Allergies: []string{"Shellfish"}}

	first := Fallback(product, profile, types.LanguageEN)
	second := Fallback(product, profile, types.LanguageEN)

	assert.Equal(t, first, second)
}

func TestFallback_ScoreAlwaysInRange(t *testing.T) {
	extremes := []types.Nutrition{
		{},
		{Sugar: 100, Sodium: 5000},
		{Sugar: 0, Sodium: 0, Protein: 50, Fiber: 50},
	}

	for _, n := range extremes {
		result := Fallback(&types.Product{Nutrition: n}, &types.UserProfile{}, types.LanguageEN)
		assert.GreaterOrEqual(t, result.NutritionScore, 0)
		assert.LessOrEqual(t, result.NutritionScore, 100)
	}
}

func TestFallback_MissingNutritionDefaultsToZero(t *testing.T) {
	result := Fallback(&types.Product{}, &types.UserProfile{}, types.LanguageEN)

	// Zero sugar and sodium both count as "low": 50 +10 +10 = 70.
	assert.Equal(t, 70, result.NutritionScore)
	assert.Equal(t, types.StatusSuitable, result.Status)
}

func TestFallback_SpanishTranslation(t *testing.T) {
	product := &types.Product{
		Ingredients: []string{"Water", "Organic Almonds", "Mystery Extract"},
		Allergens:   []string{"Tree Nuts"},
		Nutrition:   types.Nutrition{Sugar: 2},
	}

	result := Fallback(product, &types.UserProfile{}, types.LanguageES)

	assert.Equal(t, []string{"Agua", "Almendras orgánicas", "Mystery Extract"}, result.Ingredients)
	assert.Equal(t, []string{"Frutos de cáscara"}, result.Allergens)
	assert.Contains(t, result.AIDescription, "puntuación nutricional")
}

func TestAllergenOverlap(t *testing.T) {
	tests := []struct {
		name      string
		allergens []string
		allergies []string
		expected  []string
	}{
		{
			name:      "exact match",
			allergens: []string{"Peanuts", "Milk"},
			allergies: []string{"Peanuts"},
			expected:  []string{"Peanuts"},
		},
		{
			name:      "case insensitive",
			allergens: []string{"peanuts"},
			allergies: []string{"PEANUTS"},
			expected:  []string{"peanuts"},
		},
		{
			name:      "substring in either direction",
			allergens: []string{"Tree Nuts"},
			allergies: []string{"Nut"},
			expected:  []string{"Tree Nuts"},
		},
		{
			name:      "no overlap",
			allergens: []string{"Milk"},
			allergies: []string{"Shellfish"},
			expected:  nil,
		},
		{
			name:      "empty allergies",
			allergens: []string{"Milk"},
			allergies: nil,
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AllergenOverlap(tt.allergens, tt.allergies))
		})
	}
}
