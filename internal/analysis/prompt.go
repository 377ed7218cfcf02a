package analysis

import (
	"fmt"
	"strings"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// promptTemplate holds the language-specific instruction fragments for the
// remote model. The prompt is kept compact to save tokens and latency.
type promptTemplate struct {
	analyze             string
	criticalInstruction string
	concise             string
	targetLanguage      string
}

var promptTemplates = map[types.Language]promptTemplate{
	types.LanguageEN: {
		analyze:             "Analyze this product for:",
		criticalInstruction: `IF contains user allergens: status="not-recommended", score=10. NO EXCEPTIONS.`,
		concise:             "Be VERY CONCISE. Short, direct sentences. No filler.",
		targetLanguage:      "English",
	},
	types.LanguageES: {
		analyze:             "Analiza este producto para:",
		criticalInstruction: `SI contiene alérgenos del usuario: status="not-recommended", score=10. SIN EXCEPCIONES.`,
		concise:             "Sé MUY CONCISO. Frases cortas y directas. Sin relleno.",
		targetLanguage:      "Spanish",
	},
}

const noneToken = "None"

// BuildPrompt formats the product and user profile into the instruction
// string sent to the remote model. Pure string construction, no side
// effects. The full ingredient list is always embedded; truncation for
// model token limits is the caller's concern.
func BuildPrompt(product *types.Product, profile *types.UserProfile, language types.Language) string {
	tmpl, ok := promptTemplates[language]
	if !ok {
		tmpl = promptTemplates[types.LanguageEN]
	}

	allergies := strings.Join(profile.Allergies, ",")
	if allergies == "" {
		allergies = noneToken
	}
	goals := strings.Join(profile.Goals, ",")
	if goals == "" {
		goals = noneToken
	}

	n := product.Nutrition

	return fmt.Sprintf(`Role: Strict Nutritionist.
Task: %s
User: %s (Allergies), %s (Goals).

Product: %s (%s)
Ing: %s
Nutri: %gkcal, Sug:%gg, Sod:%gmg, Prot:%gg, Fib:%gg.

RULES:
1. %s
2. %s
3. Translate ingredients to %s.
4. NO Markdown in JSON values.

Response JSON format:
{
  "status": "suitable"|"questionable"|"not-recommended",
  "nutritionScore": 0-100,
  "benefits": ["short benefit 1", "short benefit 2"],
  "issues": ["short issue 1", "short issue 2"],
  "aiDescription": "Very short personalized summary (max 2 sentences).",
  "ingredients": ["translated 1", "translated 2"],
  "allergens": ["translated 1"]
}`,
		tmpl.analyze,
		allergies,
		goals,
		product.Name,
		product.Brand,
		strings.Join(product.Ingredients, ","),
		n.Calories,
		n.Sugar,
		n.Sodium,
		n.Protein,
		n.Fiber,
		tmpl.criticalInstruction,
		tmpl.concise,
		tmpl.targetLanguage,
	)
}
