package analysis

import "github.com/healthscan-app/healthscan-server/internal/types"

// ingredientTranslations maps known English ingredient and allergen names to
// Spanish for the fallback path. The remote model handles translation itself.
var ingredientTranslations = map[string]string{
	"Water":                "Agua",
	"Milk":                 "Leche",
	"Sugar":                "Azúcar",
	"Salt":                 "Sal",
	"Peanuts":              "Cacahuetes",
	"Wheat":                "Trigo",
	"Soy":                  "Soja",
	"Eggs":                 "Huevos",
	"Tree Nuts":            "Frutos de cáscara",
	"Almonds":              "Almendras",
	"Organic Almonds":      "Almendras orgánicas",
	"Sea Salt":             "Sal marina",
	"Sunflower Lecithin":   "Lecitina de girasol",
	"Whey Protein":         "Proteína de suero",
	"Palm Oil":             "Aceite de palma",
	"Soy Lecithin":         "Lecitina de soja",
	"Wheat Flour":          "Harina de trigo",
	"MSG":                  "Glutamato monosódico",
	"Artificial Flavors":   "Sabores artificiales",
	"Live Active Cultures": "Cultivos activos vivos",
	"Potatoes":             "Patatas",
	"Vegetable Oil":        "Aceite vegetal",
	"Artificial Colors":    "Colorantes artificiales",
	"Quinoa":               "Quinua",
	"Black Beans":          "Frijoles negros",
	"Corn":                 "Maíz",
	"Peppers":              "Pimientos",
	"Olive Oil":            "Aceite de oliva",
	"Spices":               "Especias",
	"Gluten":               "Gluten",
}

// Translate returns the Spanish display name for a known ingredient or
// allergen term. Unknown terms pass through unchanged.
func Translate(term string) string {
	if translated, ok := ingredientTranslations[term]; ok {
		return translated
	}
	return term
}

// translateAll maps a term list into the target language. For English the
// input is returned as-is.
func translateAll(terms []string, language types.Language) []string {
	if language != types.LanguageES || len(terms) == 0 {
		return terms
	}

	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = Translate(term)
	}
	return out
}
