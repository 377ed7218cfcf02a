package analysis

import (
	"fmt"
	"strings"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// Scoring constants. These thresholds and deltas define the fallback
// scorer's behavior and are not tunables.
const (
	allergenScore = 10
	baseScore     = 50

	highSugarThreshold = 15 // grams
	lowSugarThreshold  = 5
	highSugarPenalty   = 20
	lowSugarBonus      = 10

	highSodiumThreshold = 500 // milligrams
	lowSodiumThreshold  = 200
	highSodiumPenalty   = 15
	lowSodiumBonus      = 10

	proteinThreshold = 10 // grams
	proteinBonus     = 15

	fiberThreshold = 5 // grams
	fiberBonus     = 10

	suitableThreshold     = 70
	questionableThreshold = 40
)

// AllergenOverlap returns the product allergens that match any of the user's
// allergies. Matching is case-insensitive substring containment in both
// directions, preserving the app's established behavior: a user allergy of
// "Nut" matches a product allergen of "Nutmeg". See DESIGN.md for why this
// granularity is kept.
func AllergenOverlap(productAllergens, userAllergies []string) []string {
	var matched []string
	for _, allergen := range productAllergens {
		a := strings.ToLower(allergen)
		for _, userAllergen := range userAllergies {
			u := strings.ToLower(userAllergen)
			if strings.Contains(a, u) || strings.Contains(u, a) {
				matched = append(matched, allergen)
				break
			}
		}
	}
	return matched
}

// Fallback produces a deterministic, network-free suitability analysis.
// It is total over its input domain: missing nutrition fields score as zero
// and no input can make it fail.
func Fallback(product *types.Product, profile *types.UserProfile, language types.Language) types.AnalysisResult {
	msg := messagesFor(language)
	nutrition := product.Nutrition

	translatedIngredients := translateAll(product.Ingredients, language)
	translatedAllergens := translateAll(product.Allergens, language)

	// Allergen safety always wins; no amount of good nutrition can offset it.
	if overlap := AllergenOverlap(product.Allergens, profile.Allergies); len(overlap) > 0 {
		joined := strings.Join(translateAll(product.Allergens, language), ", ")
		return types.AnalysisResult{
			Status:         types.StatusNotRecommended,
			NutritionScore: allergenScore,
			Benefits:       []string{},
			Issues: []string{
				fmt.Sprintf("%s: %s", msg.containsAllergens, joined),
				msg.notRecommendedAllergies,
			},
			AIDescription: msg.allergenWarning(joined),
			Ingredients:   translatedIngredients,
			Allergens:     translatedAllergens,
		}
	}

	score := baseScore
	var issues, benefits []string

	if nutrition.Sugar > highSugarThreshold {
		score -= highSugarPenalty
		issues = append(issues, msg.highSugar(nutrition.Sugar))
	} else if nutrition.Sugar < lowSugarThreshold {
		score += lowSugarBonus
		benefits = append(benefits, msg.lowSugar)
	}

	if nutrition.Sodium > highSodiumThreshold {
		score -= highSodiumPenalty
		issues = append(issues, msg.highSodium(nutrition.Sodium))
	} else if nutrition.Sodium < lowSodiumThreshold {
		score += lowSodiumBonus
		benefits = append(benefits, msg.lowSodium)
	}

	if nutrition.Protein > proteinThreshold {
		score += proteinBonus
		benefits = append(benefits, msg.goodProtein(nutrition.Protein))
	}

	if nutrition.Fiber > fiberThreshold {
		score += fiberBonus
		benefits = append(benefits, msg.highFiber(nutrition.Fiber))
	}

	clamped := score
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}

	var status types.SuitabilityStatus
	switch {
	case clamped >= suitableThreshold:
		status = types.StatusSuitable
	case clamped >= questionableThreshold:
		status = types.StatusQuestionable
	default:
		status = types.StatusNotRecommended
	}

	var description string
	if len(issues) > 0 {
		description = fmt.Sprintf(msg.scoreDescriptionIssueFmt, clamped, strings.ToLower(issues[0]))
	} else {
		description = fmt.Sprintf(msg.scoreDescriptionOKFmt, clamped)
	}

	if len(benefits) == 0 {
		benefits = []string{msg.standardProduct}
	}
	if len(issues) == 0 {
		issues = []string{msg.moderateConsumption}
	}

	return types.AnalysisResult{
		Status:         status,
		NutritionScore: clamped,
		Benefits:       benefits,
		Issues:         issues,
		AIDescription:  description,
		Ingredients:    translatedIngredients,
		Allergens:      translatedAllergens,
	}
}
