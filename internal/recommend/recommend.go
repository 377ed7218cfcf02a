// Package recommend ranks catalog products for a user profile using
// rule-based heuristics. No model calls are involved.
package recommend

import (
	"sort"
	"strings"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// topN bounds the recommendation list.
const topN = 5

// allergenCanonical maps display-language allergen names (English and
// Spanish) to canonical tokens so that a profile saved in one language
// filters products labelled in the other.
var allergenCanonical = map[string]string{
	"Milk":          "milk",
	"Leche":         "milk",
	"Peanuts":       "peanuts",
	"Maní":          "peanuts",
	"Cacahuates":    "peanuts",
	"Gluten":        "gluten",
	"Soy":           "soy",
	"Soja":          "soy",
	"Tree Nuts":     "tree_nuts",
	"Frutos secos":  "tree_nuts",
	"Wheat":         "wheat",
	"Trigo":         "wheat",
	"Eggs":          "eggs",
	"Huevos":        "eggs",
	"Fish":          "fish",
	"Pescado":       "fish",
	"Shellfish":     "shellfish",
	"Mariscos":      "shellfish",
}

func canonicalAllergen(name string) string {
	if token, ok := allergenCanonical[name]; ok {
		return token
	}
	return strings.ToLower(name)
}

// hasAllergenConflict reports whether any of the product's allergens matches
// any of the user's allergies after canonicalization. Matching is
// case-insensitive and substring-symmetric, same as the fallback scorer.
func hasAllergenConflict(productAllergens, userAllergies []string) bool {
	for _, allergy := range userAllergies {
		userToken := canonicalAllergen(allergy)
		for _, allergen := range productAllergens {
			productToken := canonicalAllergen(allergen)
			if strings.Contains(productToken, userToken) || strings.Contains(userToken, productToken) {
				return true
			}
		}
	}
	return false
}

func hasGoal(goals []string, names ...string) bool {
	for _, goal := range goals {
		for _, name := range names {
			if goal == name {
				return true
			}
		}
	}
	return false
}

// goalScore applies the additive goal heuristics. Goal names are accepted in
// English and Spanish.
func goalScore(product *types.Product, profile *types.UserProfile) int {
	score := 0

	if hasGoal(profile.Goals, "Gain muscle", "Ganar masa muscular") {
		if product.Nutrition.Protein > 10 {
			score += 2
		}
		if product.Nutrition.Protein > 20 {
			score += 3
		}
	}

	if hasGoal(profile.Goals, "Lose weight", "Perder peso") {
		if product.Nutrition.Calories < 200 {
			score += 2
		}
		if product.Nutrition.Sugar < 5 {
			score += 2
		}
	}

	if hasGoal(profile.Goals, "Eat healthy", "Comer saludable") {
		if product.Nutrition.Fiber > 3 {
			score += 1
		}
		if product.Nutrition.Sodium < 140 {
			score += 1
		}
		if len(product.Ingredients) < 5 {
			score += 2
		}
	}

	return score
}

// Recommend ranks candidates for the profile and returns the top entries.
// Catalog-only candidates with an allergen conflict are dropped; candidates
// the user already scanned are kept regardless, since the user has seen them.
// The sort is stable: ties keep their original relative order.
func Recommend(profile *types.UserProfile, candidates []types.Product, history []types.ScanHistoryItem) []types.Product {
	scanned := make(map[string]bool, len(history))
	for _, item := range history {
		scanned[item.Product.ID] = true
	}

	type scored struct {
		product types.Product
		score   int
	}

	survivors := make([]scored, 0, len(candidates))
	for _, product := range candidates {
		if !scanned[product.ID] && hasAllergenConflict(product.Allergens, profile.Allergies) {
			continue
		}
		survivors = append(survivors, scored{product: product, score: goalScore(&product, profile)})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].score > survivors[j].score
	})

	n := len(survivors)
	if n > topN {
		n = topN
	}
	out := make([]types.Product, 0, n)
	for _, item := range survivors[:n] {
		out = append(out, item.product)
	}
	return out
}

// MergeWithHistory produces the display product list: catalog products are
// replaced by their most recent analyzed scan, and analyzed scans of products
// not in the catalog are prepended. History is expected newest-first, so the
// first occurrence of a product ID is its most recent scan.
func MergeWithHistory(catalogProducts []types.Product, history []types.ScanHistoryItem) []types.Product {
	latest := make(map[string]types.Product, len(history))
	order := make([]string, 0, len(history))
	for _, item := range history {
		if _, seen := latest[item.Product.ID]; seen {
			continue
		}
		latest[item.Product.ID] = item.Product
		order = append(order, item.Product.ID)
	}

	inCatalog := make(map[string]bool, len(catalogProducts))
	merged := make([]types.Product, 0, len(catalogProducts))
	for _, product := range catalogProducts {
		inCatalog[product.ID] = true
		if scan, ok := latest[product.ID]; ok && scan.Analyzed() {
			merged = append(merged, scan)
			continue
		}
		merged = append(merged, product)
	}

	fresh := make([]types.Product, 0)
	for _, id := range order {
		scan := latest[id]
		if !inCatalog[id] && scan.Analyzed() {
			fresh = append(fresh, scan)
		}
	}

	return append(fresh, merged...)
}
