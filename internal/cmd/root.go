package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/healthscan-app/healthscan-server/internal/auth"
	"github.com/healthscan-app/healthscan-server/internal/catalog"
	"github.com/healthscan-app/healthscan-server/internal/config"
	"github.com/healthscan-app/healthscan-server/internal/mcpgo"
	"github.com/healthscan-app/healthscan-server/internal/server"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "healthscan-server",
	Short: "HealthScan food suitability server",
	Long: `HealthScan analyzes food products for a user's dietary profile: scan a
barcode, look the product up in the catalog, and get a personalized
suitability verdict from a remote model or the built-in rule-based scorer.

The server operates in four modes:

1. HTTP Mode (default): The REST API for the HealthScan app
   - Barcode scans, analysis, recommendations, history, favorites,
     comparisons, profile, and stats endpoints under /v1
   - Requires Bearer token authentication (except /health)

2. STDIO Mode (--stdio): MCP server for local Claude Desktop integration
   - Uses stdio pipes for communication
   - No authentication required

3. MCP HTTP Mode (--mcp): Remote MCP server over HTTP
   - Exposes the MCP tools at /mcp with Bearer token authentication

4. Fetch Catalog Mode (--fetch-catalog): Download the catalog and exit
   - Downloads/updates the product catalog from CATALOG_URL
   - Exits after download completion (does not start a server)

Available MCP Tools:
- lookup_by_barcode: Find a product by barcode (UPC/EAN)
- search_products: Search the catalog by name and/or brand
- analyze_product: Suitability analysis for the stored profile
- recommend_products: Goal-ranked, allergen-safe recommendations

Authentication (HTTP modes only):
Bearer token authentication is required for everything except /health.
Use the AUTH_TOKEN environment variable to set the token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fetchCatalog, _ := cmd.Flags().GetBool("fetch-catalog")
		if fetchCatalog {
			return runFetchCatalogMode(cmd, args)
		}

		stdio, _ := cmd.Flags().GetBool("stdio")
		if stdio {
			return runStdioMode(cmd, args)
		}

		mcpHTTP, _ := cmd.Flags().GetBool("mcp")
		if mcpHTTP {
			return runMCPHTTPMode(cmd, args)
		}

		return runHTTPMode(cmd, args)
	},
}

func init() {
	rootCmd.Flags().Bool("stdio", false, "Run the MCP server in stdio mode for local Claude Desktop integration")
	rootCmd.Flags().Bool("mcp", false, "Run the MCP server over HTTP instead of the REST API")
	rootCmd.Flags().Bool("fetch-catalog", false, "Fetch the product catalog and exit (useful for pre-populating the data directory)")
}

// runFetchCatalogMode fetches the catalog and exits
func runFetchCatalogMode(cmd *cobra.Command, args []string) error {
	logger := config.NewTextLogger(os.Stdout)
	cfg := config.Load()

	if cfg.CatalogURL == "" {
		logger.Error("CATALOG_URL is not set, nothing to fetch")
		return os.ErrInvalid
	}

	logger.Info("🗄️  Starting catalog fetch",
		"mode", "fetch-catalog",
		"target_dir", filepath.Dir(cfg.CatalogFile()))

	fetcher := catalog.NewFetcher(cfg.CatalogURL, cfg.CatalogFile(), cfg.MetadataPath, logger)

	ctx := context.Background()
	if err := fetcher.EnsureCatalog(ctx); err != nil {
		logger.Error("Failed to fetch catalog", "error", err)
		return err
	}

	logger.Info("✅ Catalog fetch completed successfully",
		"catalog_path", cfg.CatalogFile(),
		"metadata_path", cfg.MetadataPath)

	return nil
}

// runStdioMode runs the MCP server in stdio mode for Claude Desktop
func runStdioMode(cmd *cobra.Command, args []string) error {
	// Use a logger that writes to stderr to avoid interfering with stdio MCP communication
	logger := config.NewLogger(true) // true for stdio mode
	cfg := config.Load()

	logger.Info("🔌 Starting HealthScan MCP Server in STDIO mode",
		"mode", "stdio",
		"auth", "not required for stdio mode",
		"transport", "stdio pipes")

	ctx := context.Background()
	cat, analyzer, st, err := server.NewInitializer(cfg, logger).Initialize(ctx)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		return err
	}
	defer cat.Close()
	defer st.Close()

	authenticator := auth.NewBearerTokenAuth(cfg.AuthToken)
	mcpSrv := mcpgo.NewServer(cat, analyzer, st, authenticator, logger)

	return mcpSrv.ServeStdio()
}

// runMCPHTTPMode runs the MCP server in HTTP mode for remote deployment
func runMCPHTTPMode(cmd *cobra.Command, args []string) error {
	logger := config.NewLogger(false)
	cfg := config.Load()

	logger.Info("🌐 Starting HealthScan MCP Server in HTTP mode",
		"mode", "mcp-http",
		"auth", "Bearer token required (except /health endpoint)",
		"port", cfg.Port)

	ctx := context.Background()
	cat, analyzer, st, err := server.NewInitializer(cfg, logger).Initialize(ctx)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		return err
	}
	defer cat.Close()
	defer st.Close()

	authenticator := auth.NewBearerTokenAuth(cfg.AuthToken)
	mcpSrv := mcpgo.NewServer(cat, analyzer, st, authenticator, logger)

	return mcpSrv.ServeHTTP(":" + cfg.Port)
}

// runHTTPMode runs the REST API server
func runHTTPMode(cmd *cobra.Command, args []string) error {
	logger := config.NewLogger(false)
	cfg := config.Load()

	logger.Info("🌐 Starting HealthScan API server",
		"mode", "http",
		"auth", "Bearer token required (except /health endpoint)",
		"ai_configured", cfg.AIConfigured(),
		"port", cfg.Port)

	ctx := context.Background()
	cat, analyzer, st, err := server.NewInitializer(cfg, logger).Initialize(ctx)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		return err
	}

	srv := server.New(cfg, cat, analyzer, st, logger)
	return srv.Start(ctx)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// Run is the main entry point for the CLI application
func Run() error {
	return Execute()
}
