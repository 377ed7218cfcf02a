package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the HealthScan server
type Config struct {
	// Auth
	AuthToken string

	// AI analysis
	MistralAPIKey    string
	MistralModel     string
	MistralEndpoint  string
	AITimeoutSeconds int
	CacheSize        int
	DefaultLanguage  string

	// Catalog
	CatalogPath        string
	CatalogURL         string
	CatalogParquetPath string
	DataDir            string
	MetadataPath       string

	// Storage
	DBPath string

	// Server
	Port        string
	Environment string
}

// Load reads configuration from environment variables
func Load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")

	timeoutSeconds := 10
	if s := os.Getenv("AI_TIMEOUT_SECONDS"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			timeoutSeconds = parsed
		}
	}

	cacheSize := 200
	if s := os.Getenv("ANALYSIS_CACHE_SIZE"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			cacheSize = parsed
		}
	}

	return &Config{
		AuthToken:          getEnv("AUTH_TOKEN", "super-secret-token"),
		MistralAPIKey:      os.Getenv("MISTRAL_API_KEY"),
		MistralModel:       getEnv("MISTRAL_MODEL", "mistral-large-latest"),
		MistralEndpoint:    getEnv("MISTRAL_ENDPOINT", "https://api.mistral.ai/v1/chat/completions"),
		AITimeoutSeconds:   timeoutSeconds,
		CacheSize:          cacheSize,
		DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "EN"),
		CatalogPath:        getEnv("CATALOG_PATH", filepath.Join(dataDir, "products.json")),
		CatalogURL:         os.Getenv("CATALOG_URL"),
		CatalogParquetPath: os.Getenv("CATALOG_PARQUET_PATH"),
		DataDir:            dataDir,
		MetadataPath:       getEnv("METADATA_PATH", filepath.Join(dataDir, "catalog-metadata.json")),
		DBPath:             getEnv("DB_PATH", filepath.Join(dataDir, "healthscan.db")),
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "production"),
	}
}

// AITimeout returns the remote analysis call timeout as a duration
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// AIConfigured reports whether a remote analysis credential is present.
// When false the server runs entirely on the fallback scorer, which is a
// supported mode rather than an error.
func (c *Config) AIConfigured() bool {
	return c.MistralAPIKey != ""
}

// CatalogFile returns the local path the catalog is served from: the
// parquet file when one is configured, otherwise the JSON catalog.
func (c *Config) CatalogFile() string {
	if c.CatalogParquetPath != "" {
		return c.CatalogParquetPath
	}
	return c.CatalogPath
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
