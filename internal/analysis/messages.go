package analysis

import (
	"fmt"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// messageCatalog holds the templated strings the fallback scorer uses to
// compose benefit, issue and description texts.
type messageCatalog struct {
	containsAllergens        string
	notRecommendedAllergies  string
	lowSugar                 string
	lowSodium                string
	standardProduct          string
	moderateConsumption      string
	allergenWarningFmt       string
	highSugarFmt             string
	highSodiumFmt            string
	goodProteinFmt           string
	highFiberFmt             string
	scoreDescriptionIssueFmt string
	scoreDescriptionOKFmt    string
}

var fallbackMessages = map[types.Language]messageCatalog{
	types.LanguageEN: {
		containsAllergens:        "Contains allergens",
		notRecommendedAllergies:  "Not recommended due to your allergies",
		lowSugar:                 "Low in sugar",
		lowSodium:                "Low in sodium",
		standardProduct:          "Standard processed product",
		moderateConsumption:      "Consume in moderation",
		allergenWarningFmt:       "This product contains %s, which is on your allergy list. It is not safe for you to consume.",
		highSugarFmt:             "High sugar content (%gg)",
		highSodiumFmt:            "High sodium content (%gmg)",
		goodProteinFmt:           "Good source of protein (%gg)",
		highFiberFmt:             "High in fiber (%gg)",
		scoreDescriptionIssueFmt: "This product has a nutrition score of %d/100. Consider %s.",
		scoreDescriptionOKFmt:    "This product has a nutrition score of %d/100. It is an acceptable option.",
	},
	types.LanguageES: {
		containsAllergens:        "Contiene alérgenos",
		notRecommendedAllergies:  "No recomendado debido a tus alergias",
		lowSugar:                 "Bajo en azúcar",
		lowSodium:                "Bajo en sodio",
		standardProduct:          "Producto procesado estándar",
		moderateConsumption:      "Consumir con moderación",
		allergenWarningFmt:       "Este producto contiene %s, que está en tu lista de alergias. No es seguro para ti consumirlo.",
		highSugarFmt:             "Alto contenido de azúcar (%gg)",
		highSodiumFmt:            "Alto contenido de sodio (%gmg)",
		goodProteinFmt:           "Buena fuente de proteína (%gg)",
		highFiberFmt:             "Alto en fibra (%gg)",
		scoreDescriptionIssueFmt: "Este producto tiene una puntuación nutricional de %d/100. Considera %s.",
		scoreDescriptionOKFmt:    "Este producto tiene una puntuación nutricional de %d/100. Es una opción aceptable.",
	},
}

// messagesFor returns the catalog for the language, defaulting to English
func messagesFor(language types.Language) messageCatalog {
	if m, ok := fallbackMessages[language]; ok {
		return m
	}
	return fallbackMessages[types.LanguageEN]
}

func (m messageCatalog) allergenWarning(allergens string) string {
	return fmt.Sprintf(m.allergenWarningFmt, allergens)
}

func (m messageCatalog) highSugar(amount float64) string {
	return fmt.Sprintf(m.highSugarFmt, amount)
}

func (m messageCatalog) highSodium(amount float64) string {
	return fmt.Sprintf(m.highSodiumFmt, amount)
}

func (m messageCatalog) goodProtein(amount float64) string {
	return fmt.Sprintf(m.goodProteinFmt, amount)
}

func (m messageCatalog) highFiber(amount float64) string {
	return fmt.Sprintf(m.highFiberFmt, amount)
}
