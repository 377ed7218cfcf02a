package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/healthscan-app/healthscan-server/internal/analysis"
	"github.com/healthscan-app/healthscan-server/internal/catalog"
	"github.com/healthscan-app/healthscan-server/internal/config"
	"github.com/healthscan-app/healthscan-server/internal/store"
)

// Initializer handles common startup logic shared by the HTTP API and MCP
// modes: refreshing the catalog file, opening the catalog, the analyzer, and
// the store.
type Initializer struct {
	config *config.Config
	log    *slog.Logger
}

// NewInitializer creates a new initializer.
func NewInitializer(cfg *config.Config, logger *slog.Logger) *Initializer {
	return &Initializer{config: cfg, log: logger}
}

// Initialize performs the startup steps and returns the wired components.
func (in *Initializer) Initialize(ctx context.Context) (catalog.Catalog, *analysis.Analyzer, *store.Store, error) {
	start := time.Now()
	in.log.Info("Initializing server...")

	// Log development mode warning
	if in.config.IsDevelopment() {
		in.log.Warn("🚧 DEVELOPMENT MODE ENABLED 🚧",
			"environment", in.config.Environment,
			"note", "Detailed error messages will be returned to clients")
	}

	// Refresh the catalog file if a remote source is configured
	if in.config.CatalogURL != "" {
		fetcher := catalog.NewFetcher(
			in.config.CatalogURL,
			in.config.CatalogFile(),
			in.config.MetadataPath,
			in.log,
		)
		if err := fetcher.EnsureCatalog(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to ensure catalog: %w", err)
		}
	}

	cat, err := catalog.New(in.config, in.log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := cat.HealthCheck(ctx); err != nil {
		cat.Close()
		return nil, nil, nil, fmt.Errorf("catalog health check failed: %w", err)
	}

	analyzer, err := analysis.NewAnalyzer(in.config, in.log)
	if err != nil {
		cat.Close()
		return nil, nil, nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	st, err := store.Open(in.config.DBPath, in.log)
	if err != nil {
		cat.Close()
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	in.log.Info("Server initialized successfully", "duration", time.Since(start))
	return cat, analyzer, st, nil
}
