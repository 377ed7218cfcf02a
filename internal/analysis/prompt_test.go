package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

func TestBuildPrompt_EmbedsProductAndProfile(t *testing.T) {
	product := proteinBar()
	profile := &types.UserProfile{
		Allergies: []string{"Peanuts", "Shellfish"},
		Goals:     []string{"Gain muscle"},
	}

	prompt := BuildPrompt(product, profile, types.LanguageEN)

	assert.Contains(t, prompt, "Protein Energy Bar (FitLife)")
	assert.Contains(t, prompt, "Peanuts,Shellfish (Allergies)")
	assert.Contains(t, prompt, "Gain muscle (Goals)")
	assert.Contains(t, prompt, "Sug:15g")
	assert.Contains(t, prompt, "Sod:180mg")
	assert.Contains(t, prompt, `status="not-recommended", score=10. NO EXCEPTIONS.`)
	assert.Contains(t, prompt, "Translate ingredients to English.")
	assert.Contains(t, prompt, `"nutritionScore": 0-100`)
}

func TestBuildPrompt_EmptyListsUseNoneToken(t *testing.T) {
	prompt := BuildPrompt(&types.Product{Name: "Item"}, &types.UserProfile{}, types.LanguageEN)

	assert.Contains(t, prompt, "None (Allergies)")
	assert.Contains(t, prompt, "None (Goals)")
}

func TestBuildPrompt_SpanishTemplate(t *testing.T) {
	prompt := BuildPrompt(&types.Product{Name: "Item"}, &types.UserProfile{}, types.LanguageES)

	assert.Contains(t, prompt, "Analiza este producto")
	assert.Contains(t, prompt, "SIN EXCEPCIONES")
	assert.Contains(t, prompt, "Translate ingredients to Spanish.")
}

func TestBuildPrompt_NeverTruncatesIngredients(t *testing.T) {
	ingredients := make([]string, 200)
	for i := range ingredients {
		ingredients[i] = fmt.Sprintf("Ingredient%d", i)
	}
	product := &types.Product{Name: "Long Label", Ingredients: ingredients}

	prompt := BuildPrompt(product, &types.UserProfile{}, types.LanguageEN)

	for _, ing := range ingredients {
		assert.True(t, strings.Contains(prompt, ing), "missing %s", ing)
	}
}

func TestBuildPrompt_Pure(t *testing.T) {
	product := proteinBar()
	profile := &types.UserProfile{Allergies: []string{"Milk"}}

	first := BuildPrompt(product, profile, types.LanguageEN)
	second := BuildPrompt(product, profile, types.LanguageEN)

	assert.Equal(t, first, second)
}
