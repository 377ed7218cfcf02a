package types

import "time"

// SuitabilityStatus is the primary verdict shown to the user for a product.
type SuitabilityStatus string

const (
	StatusSuitable       SuitabilityStatus = "suitable"
	StatusQuestionable   SuitabilityStatus = "questionable"
	StatusNotRecommended SuitabilityStatus = "not-recommended"
)

// Valid reports whether s is one of the known suitability statuses.
func (s SuitabilityStatus) Valid() bool {
	switch s {
	case StatusSuitable, StatusQuestionable, StatusNotRecommended:
		return true
	}
	return false
}

// Language selects the display language for analysis output.
type Language string

const (
	LanguageEN Language = "EN"
	LanguageES Language = "ES"
)

// ParseLanguage maps a language identifier to a supported Language,
// defaulting to English for anything unknown.
func ParseLanguage(s string) Language {
	switch s {
	case "ES", "es", "Español", "Spanish":
		return LanguageES
	default:
		return LanguageEN
	}
}

// Nutrition holds per-serving nutrition facts. Missing values are zero.
type Nutrition struct {
	ServingSize string  `json:"serving_size"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Sugar       float64 `json:"sugar"`
	Fat         float64 `json:"fat"`
	Sodium      float64 `json:"sodium"`
	Fiber       float64 `json:"fiber"`
}

// Product is the canonical product record used throughout the application.
// The analysis overlay fields (Status, NutritionScore, Benefits, Issues,
// AIDescription) are only meaningful after an analysis has been applied;
// a bare catalog product carries the zero values.
type Product struct {
	ID          string    `json:"id"`
	Barcode     string    `json:"barcode"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Image       string    `json:"image,omitempty"`
	Ingredients []string  `json:"ingredients"`
	Allergens   []string  `json:"allergens"`
	Nutrition   Nutrition `json:"nutrition"`

	// Analysis overlay, attached per query.
	Status         SuitabilityStatus `json:"status,omitempty"`
	NutritionScore int               `json:"nutrition_score,omitempty"`
	Benefits       []string          `json:"benefits,omitempty"`
	Issues         []string          `json:"issues,omitempty"`
	AIDescription  string            `json:"ai_description,omitempty"`
}

// Analyzed reports whether an analysis overlay has been applied to the
// product. Callers must not treat the default status of a bare catalog
// record as a real verdict.
func (p *Product) Analyzed() bool {
	return p.Status != "" && p.NutritionScore > 0
}

// ApplyAnalysis attaches an analysis result to the product. Translated
// ingredient and allergen lists replace the originals when present.
func (p *Product) ApplyAnalysis(r AnalysisResult) {
	p.Status = r.Status
	p.NutritionScore = r.NutritionScore
	p.Benefits = r.Benefits
	p.Issues = r.Issues
	p.AIDescription = r.AIDescription
	if len(r.Ingredients) > 0 {
		p.Ingredients = r.Ingredients
	}
	if len(r.Allergens) > 0 {
		p.Allergens = r.Allergens
	}
}

// AnalysisResult is the outcome of a suitability analysis, produced either
// by the remote model or by the deterministic fallback scorer.
type AnalysisResult struct {
	Status         SuitabilityStatus `json:"status"`
	NutritionScore int               `json:"nutritionScore"`
	Benefits       []string          `json:"benefits"`
	Issues         []string          `json:"issues"`
	AIDescription  string            `json:"aiDescription"`
	Ingredients    []string          `json:"ingredients,omitempty"`
	Allergens      []string          `json:"allergens,omitempty"`
}

// UserProfile is the per-device dietary profile. One profile per deployment;
// there is no multi-user concept.
type UserProfile struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Avatar      string   `json:"avatar,omitempty"`
	Country     string   `json:"country"`
	Language    string   `json:"language"`
	Allergies   []string `json:"allergies"`
	Preferences []string `json:"preferences"`
	Goals       []string `json:"goals"`
}

// ScanHistoryItem wraps a product snapshot taken at scan time. Re-scans of
// the same product produce new entries, not updates.
type ScanHistoryItem struct {
	ID          string    `json:"id"`
	Product     Product   `json:"product"`
	ScannedAt   time.Time `json:"scanned_at"`
	IsFavorite  bool      `json:"is_favorite"`
	IsPurchased bool      `json:"is_purchased"`
}

// ProductComparison is a named, timestamped grouping of two or more products.
type ProductComparison struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Products  []Product `json:"products"`
	CreatedAt time.Time `json:"created_at"`
}
