package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuitabilityStatus_Valid(t *testing.T) {
	assert.True(t, StatusSuitable.Valid())
	assert.True(t, StatusQuestionable.Valid())
	assert.True(t, StatusNotRecommended.Valid())
	assert.False(t, SuitabilityStatus("").Valid())
	assert.False(t, SuitabilityStatus("excellent").Valid())
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected Language
	}{
		{"ES", LanguageES},
		{"es", LanguageES},
		{"Español", LanguageES},
		{"Spanish", LanguageES},
		{"EN", LanguageEN},
		{"English", LanguageEN},
		{"", LanguageEN},
		{"fr", LanguageEN},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLanguage(tt.input), "input %q", tt.input)
	}
}

func TestProduct_ApplyAnalysis(t *testing.T) {
	p := Product{
		ID:          "1",
		Barcode:     "1234567890123",
		Name:        "Organic Almond Milk",
		Ingredients: []string{"Water", "Organic Almonds"},
		Allergens:   []string{"Tree Nuts"},
	}

	assert.False(t, p.Analyzed())

	p.ApplyAnalysis(AnalysisResult{
		Status:         StatusSuitable,
		NutritionScore: 85,
		Benefits:       []string{"Low in sugar"},
		Issues:         []string{"Consume in moderation"},
		AIDescription:  "A good fit for your profile.",
		Ingredients:    []string{"Agua", "Almendras orgánicas"},
		Allergens:      []string{"Frutos de cáscara"},
	})

	assert.True(t, p.Analyzed())
	assert.Equal(t, StatusSuitable, p.Status)
	assert.Equal(t, 85, p.NutritionScore)
	assert.Equal(t, []string{"Agua", "Almendras orgánicas"}, p.Ingredients)
	assert.Equal(t, []string{"Frutos de cáscara"}, p.Allergens)
}

func TestProduct_ApplyAnalysis_KeepsOriginalListsWithoutTranslations(t *testing.T) {
	p := Product{
		ID:          "2",
		Ingredients: []string{"Milk", "Live Active Cultures"},
		Allergens:   []string{"Milk"},
	}

	p.ApplyAnalysis(AnalysisResult{
		Status:         StatusQuestionable,
		NutritionScore: 55,
	})

	assert.Equal(t, []string{"Milk", "Live Active Cultures"}, p.Ingredients)
	assert.Equal(t, []string{"Milk"}, p.Allergens)
}

func TestProduct_JSONRoundTrip(t *testing.T) {
	p := Product{
		ID:       "1234567890123",
		Barcode:  "1234567890123",
		Name:     "Greek Yogurt",
		Brand:    "Dairy Fresh",
		Category: "Dairy",
		Nutrition: Nutrition{
			ServingSize: "150g",
			Calories:    90,
			Protein:     15,
			Sugar:       4,
		},
	}

	data, err := json.Marshal(p)
	assert.NoError(t, err)

	var decoded Product
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p.Barcode, decoded.Barcode)
	assert.Equal(t, p.Nutrition.Protein, decoded.Nutrition.Protein)

	// Overlay fields are omitted for a bare catalog product.
	assert.NotContains(t, string(data), "nutrition_score")
	assert.NotContains(t, string(data), "ai_description")
}
