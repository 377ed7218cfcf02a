package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/healthscan-app/healthscan-server/internal/config"
	"github.com/healthscan-app/healthscan-server/internal/types"
)

const (
	maxResponseTokens = 500
	temperature       = 0.1
)

// Analyzer produces suitability analyses. It is a thin decorator around the
// fallback scorer: the remote model only ever upgrades the result, and every
// failure in the remote path (missing credential, transport, timeout,
// malformed or incomplete JSON) falls through to the fallback. Analyze never
// returns an error.
type Analyzer struct {
	apiKey   string
	model    string
	endpoint string
	timeout  time.Duration
	client   *http.Client
	cache    *Cache
	log      *slog.Logger
}

// NewAnalyzer creates an analyzer from configuration. When no API key is
// configured the analyzer runs entirely on the fallback scorer.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) (*Analyzer, error) {
	cache, err := NewCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 1
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	return &Analyzer{
		apiKey:   cfg.MistralAPIKey,
		model:    cfg.MistralModel,
		endpoint: cfg.MistralEndpoint,
		timeout:  cfg.AITimeout(),
		client:   retryClient.StandardClient(),
		cache:    cache,
		log:      logger,
	}, nil
}

// chatRequest is the chat-completion request body
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Analyze returns a suitability analysis for the product against the
// profile. The result always comes back: a cache hit, a validated remote
// analysis, or the deterministic fallback.
func (a *Analyzer) Analyze(ctx context.Context, product *types.Product, profile *types.UserProfile, language types.Language) types.AnalysisResult {
	start := time.Now()
	key := CacheKey(product.ID, language, profile.Allergies)

	if cached, ok := a.cache.Get(key); ok {
		a.log.Debug("Returning cached analysis", "product", product.Name, "key", key)
		return cached
	}

	// Fallback mode when no credential is configured. This is a supported
	// mode, not a degraded error path.
	if a.apiKey == "" {
		a.log.Debug("No API key configured, using fallback analysis", "product", product.Name)
		return Fallback(product, profile, language)
	}

	result, err := a.analyzeRemote(ctx, product, profile, language)
	if err != nil {
		a.log.Warn("Remote analysis failed, using fallback", "product", product.Name, "error", err, "duration", time.Since(start))
		return Fallback(product, profile, language)
	}

	a.cache.Put(key, *result)
	a.log.Info("Remote analysis completed", "product", product.Name, "status", result.Status, "score", result.NutritionScore, "duration", time.Since(start))
	return *result
}

// analyzeRemote performs the chat-completion call and parses the reply
func (a *Analyzer) analyzeRemote(ctx context.Context, product *types.Product, profile *types.UserProfile, language types.Language) (*types.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := BuildPrompt(product, profile, language)

	body, err := json.Marshal(chatRequest{
		Model:       a.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxResponseTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(respBody, "error.message").String(); msg != "" {
			return nil, fmt.Errorf("analysis API error: %s", msg)
		}
		return nil, fmt.Errorf("analysis API returned HTTP %d", resp.StatusCode)
	}

	content := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty response from analysis API")
	}

	return parseAnalysisContent(content)
}

// parseAnalysisContent extracts and validates the analysis JSON from the
// model's free-form reply. The model may wrap the object in prose or code
// fences, so the first balanced top-level object is bracket-matched out.
func parseAnalysisContent(content string) (*types.AnalysisResult, error) {
	cleaned := stripControlCharacters(content)

	jsonText, ok := extractJSONObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw struct {
		Status         string   `json:"status"`
		NutritionScore *int     `json:"nutritionScore"`
		Benefits       []string `json:"benefits"`
		Issues         []string `json:"issues"`
		AIDescription  string   `json:"aiDescription"`
		Ingredients    []string `json:"ingredients"`
		Allergens      []string `json:"allergens"`
	}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}

	status := types.SuitabilityStatus(raw.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("missing or invalid status %q", raw.Status)
	}
	if raw.NutritionScore == nil {
		return nil, fmt.Errorf("missing nutritionScore")
	}
	if *raw.NutritionScore < 0 || *raw.NutritionScore > 100 {
		return nil, fmt.Errorf("nutritionScore %d out of range", *raw.NutritionScore)
	}

	result := &types.AnalysisResult{
		Status:         status,
		NutritionScore: *raw.NutritionScore,
		Benefits:       raw.Benefits,
		Issues:         raw.Issues,
		AIDescription:  raw.AIDescription,
		Ingredients:    raw.Ingredients,
		Allergens:      raw.Allergens,
	}
	if result.Benefits == nil {
		result.Benefits = []string{}
	}
	if result.Issues == nil {
		result.Issues = []string{}
	}

	return result, nil
}

// stripControlCharacters removes C0 and C1 control characters that some
// models emit and that break the JSON decoder
func stripControlCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
}

// extractJSONObject returns the first balanced top-level {...} in s,
// skipping braces inside string literals
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
