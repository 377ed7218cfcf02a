package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "super-secret-token", cfg.AuthToken)
				assert.Equal(t, "", cfg.MistralAPIKey)
				assert.Equal(t, "mistral-large-latest", cfg.MistralModel)
				assert.Equal(t, "https://api.mistral.ai/v1/chat/completions", cfg.MistralEndpoint)
				assert.Equal(t, 10, cfg.AITimeoutSeconds)
				assert.Equal(t, 200, cfg.CacheSize)
				assert.Equal(t, "EN", cfg.DefaultLanguage)
				assert.Equal(t, "./data", cfg.DataDir)
				assert.Equal(t, "data/products.json", cfg.CatalogPath)
				assert.Equal(t, "data/healthscan.db", cfg.DBPath)
				assert.Equal(t, "8080", cfg.Port)
				assert.Equal(t, "production", cfg.Environment)
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"AUTH_TOKEN":          "custom-token",
				"MISTRAL_API_KEY":     "key-123",
				"MISTRAL_MODEL":       "mistral-small-latest",
				"AI_TIMEOUT_SECONDS":  "30",
				"ANALYSIS_CACHE_SIZE": "50",
				"DATA_DIR":            "/custom/data",
				"PORT":                "3000",
				"ENVIRONMENT":         "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "custom-token", cfg.AuthToken)
				assert.Equal(t, "key-123", cfg.MistralAPIKey)
				assert.Equal(t, "mistral-small-latest", cfg.MistralModel)
				assert.Equal(t, 30, cfg.AITimeoutSeconds)
				assert.Equal(t, 50, cfg.CacheSize)
				assert.Equal(t, "/custom/data", cfg.DataDir)
				assert.Equal(t, "/custom/data/products.json", cfg.CatalogPath)
				assert.Equal(t, "/custom/data/healthscan.db", cfg.DBPath)
				assert.Equal(t, "3000", cfg.Port)
				assert.True(t, cfg.IsDevelopment())
			},
		},
		{
			name: "invalid numeric values fall back to defaults",
			envVars: map[string]string{
				"AI_TIMEOUT_SECONDS":  "not-a-number",
				"ANALYSIS_CACHE_SIZE": "-5",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10, cfg.AITimeoutSeconds)
				assert.Equal(t, 200, cfg.CacheSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := Load()
			tt.check(t, cfg)
		})
	}
}

func TestConfig_AITimeout(t *testing.T) {
	cfg := &Config{AITimeoutSeconds: 10}
	assert.Equal(t, 10*time.Second, cfg.AITimeout())
}

func TestConfig_AIConfigured(t *testing.T) {
	assert.False(t, (&Config{}).AIConfigured())
	assert.True(t, (&Config{MistralAPIKey: "key"}).AIConfigured())
}
