// Package mcpgo exposes the HealthScan tools over the Model Context
// Protocol using the mark3labs SDK, on stdio or authenticated HTTP.
package mcpgo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/healthscan-app/healthscan-server/internal/analysis"
	"github.com/healthscan-app/healthscan-server/internal/auth"
	"github.com/healthscan-app/healthscan-server/internal/catalog"
	"github.com/healthscan-app/healthscan-server/internal/recommend"
	"github.com/healthscan-app/healthscan-server/internal/store"
	"github.com/healthscan-app/healthscan-server/internal/types"
)

// responseRecorder wraps http.ResponseWriter to capture response details
type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.headerWritten {
		return // Prevent duplicate WriteHeader calls
	}
	r.statusCode = code
	r.headerWritten = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.headerWritten {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytesWritten += n
	return n, err
}

// Server wraps the mark3labs MCP server with authentication
type Server struct {
	mcpServer *server.MCPServer
	catalog   catalog.Catalog
	analyzer  *analysis.Analyzer
	store     *store.Store
	auth      *auth.BearerTokenAuth
	log       *slog.Logger

	// Health check caching to prevent DOS attacks
	healthMu        sync.RWMutex
	lastHealthCheck time.Time
	lastHealthError error
}

// LookupBarcodeResponse represents the response from lookup_by_barcode
type LookupBarcodeResponse struct {
	Found   bool           `json:"found"`
	Product *types.Product `json:"product,omitempty"`
}

// SearchProductsResponse represents the response from search_products
type SearchProductsResponse struct {
	Found    bool            `json:"found"`
	Count    int             `json:"count"`
	Products []types.Product `json:"products"`
}

// AnalyzeProductResponse represents the response from analyze_product
type AnalyzeProductResponse struct {
	Product  *types.Product       `json:"product"`
	Analysis types.AnalysisResult `json:"analysis"`
}

// RecommendProductsResponse represents the response from recommend_products
type RecommendProductsResponse struct {
	Count    int             `json:"count"`
	Products []types.Product `json:"products"`
}

// NewServer creates a new MCP server with the mark3labs SDK
func NewServer(cat catalog.Catalog, analyzer *analysis.Analyzer, st *store.Store, authenticator *auth.BearerTokenAuth, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		"HealthScan Server",
		"1.0.0",
		server.WithToolCapabilities(false), // Tools don't change dynamically
		server.WithRecovery(),              // Recover from panics
		server.WithLogging(),               // Enable logging
	)

	s := &Server{
		mcpServer: mcpServer,
		catalog:   cat,
		analyzer:  analyzer,
		store:     st,
		auth:      authenticator,
		log:       logger,
	}

	s.addTools()

	return s
}

// checkHealthWithCache checks health with 10-second caching to prevent DOS attacks
func (s *Server) checkHealthWithCache(ctx context.Context) error {
	const cacheDuration = 10 * time.Second

	s.healthMu.RLock()
	if time.Since(s.lastHealthCheck) < cacheDuration {
		err := s.lastHealthError
		s.healthMu.RUnlock()
		s.log.Debug("Health check: using cached result",
			"cached_error", err != nil,
			"cache_age", time.Since(s.lastHealthCheck))
		return err
	}
	s.healthMu.RUnlock()

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	// Double-check in case another goroutine updated while waiting for write lock
	if time.Since(s.lastHealthCheck) < cacheDuration {
		return s.lastHealthError
	}

	s.log.Debug("Health check: checking catalog")
	err := s.catalog.HealthCheck(ctx)
	s.lastHealthCheck = time.Now()
	s.lastHealthError = err

	return err
}

func (s *Server) addTools() {
	lookupTool := mcp.NewTool("lookup_by_barcode",
		mcp.WithDescription("Look up a food product by its barcode (UPC/EAN)"),
		mcp.WithString("barcode",
			mcp.Required(),
			mcp.Description("The barcode (UPC/EAN) to look up"),
		),
		mcp.WithOutputSchema[LookupBarcodeResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(lookupTool, s.handleLookupByBarcode)

	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search the product catalog by name and/or brand. At least one of the two must be provided and non-empty."),
		mcp.WithString("name",
			mcp.Description("Product name to search for"),
		),
		mcp.WithString("brand",
			mcp.Description("Brand name to search for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10, max: 100)"),
			mcp.DefaultNumber(10),
			mcp.Min(1),
			mcp.Max(100),
		),
		mcp.WithOutputSchema[SearchProductsResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchProducts)

	analyzeTool := mcp.NewTool("analyze_product",
		mcp.WithDescription("Analyze the suitability of a product for the stored user profile. Allergies, goals, and language can be overridden per call."),
		mcp.WithString("barcode",
			mcp.Required(),
			mcp.Description("The barcode of the product to analyze"),
		),
		mcp.WithString("language",
			mcp.Description("Display language for the analysis: EN or ES (default: profile language)"),
		),
		mcp.WithArray("allergies",
			mcp.Description("Override the stored profile's allergy list"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("goals",
			mcp.Description("Override the stored profile's goal list"),
			mcp.WithStringItems(),
		),
		mcp.WithOutputSchema[AnalyzeProductResponse](),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyzeProduct)

	recommendTool := mcp.NewTool("recommend_products",
		mcp.WithDescription("Recommend products for the stored user profile, excluding allergen conflicts and ranking by health goals"),
		mcp.WithOutputSchema[RecommendProductsResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(recommendTool, s.handleRecommendProducts)
}

func (s *Server) handleLookupByBarcode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	barcode, err := request.RequireString("barcode")
	if err != nil {
		s.log.Warn("handleLookupByBarcode: Missing 'barcode' parameter", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'barcode': %v", err)), nil
	}

	s.log.Debug("MCP LookupByBarcode called", "barcode", barcode)

	product, err := s.catalog.FindByBarcode(ctx, barcode)
	if err != nil {
		s.log.Error("Barcode lookup failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Barcode lookup failed: %v", err)), nil
	}

	response := LookupBarcodeResponse{
		Found:   product != nil,
		Product: product,
	}
	return s.structuredResult(response)
}

func (s *Server) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	brand := request.GetString("brand", "")
	if name == "" && brand == "" {
		s.log.Warn("handleSearchProducts: No search terms provided")
		return mcp.NewToolResultError("At least one of 'name' or 'brand' must be provided"), nil
	}

	limit := int(request.GetFloat("limit", 10.0))
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	s.log.Debug("MCP SearchProducts called", "name", name, "brand", brand, "limit", limit)

	products, err := s.catalog.Search(ctx, name, brand, limit)
	if err != nil {
		s.log.Error("Product search failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	response := SearchProductsResponse{
		Found:    len(products) > 0,
		Count:    len(products),
		Products: products,
	}
	return s.structuredResult(response)
}

func (s *Server) handleAnalyzeProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	barcode, err := request.RequireString("barcode")
	if err != nil {
		s.log.Warn("handleAnalyzeProduct: Missing 'barcode' parameter", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'barcode': %v", err)), nil
	}

	product, err := s.catalog.FindByBarcode(ctx, barcode)
	if err != nil {
		s.log.Error("Barcode lookup failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Barcode lookup failed: %v", err)), nil
	}
	if product == nil {
		return mcp.NewToolResultError(fmt.Sprintf("No product found for barcode %q", barcode)), nil
	}

	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		s.log.Error("Failed to read profile", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read profile: %v", err)), nil
	}
	if profile == nil {
		profile = &types.UserProfile{}
	}

	// Per-call overrides
	if allergies := request.GetStringSlice("allergies", nil); allergies != nil {
		profile.Allergies = allergies
	}
	if goals := request.GetStringSlice("goals", nil); goals != nil {
		profile.Goals = goals
	}
	raw := request.GetString("language", "")
	if raw == "" {
		raw = profile.Language
	}
	language := types.ParseLanguage(raw)

	s.log.Debug("MCP AnalyzeProduct called", "barcode", barcode, "language", language)

	result := s.analyzer.Analyze(ctx, product, profile, language)
	product.ApplyAnalysis(result)

	response := AnalyzeProductResponse{
		Product:  product,
		Analysis: result,
	}
	return s.structuredResult(response)
}

func (s *Server) handleRecommendProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		s.log.Error("Failed to read profile", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read profile: %v", err)), nil
	}
	if profile == nil {
		profile = &types.UserProfile{}
	}

	history, err := s.store.ScanHistory(ctx)
	if err != nil {
		s.log.Error("Failed to read scan history", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read scan history: %v", err)), nil
	}

	all, err := s.catalog.All(ctx)
	if err != nil {
		s.log.Error("Failed to read catalog", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read catalog: %v", err)), nil
	}

	candidates := recommend.MergeWithHistory(all, history)
	recommended := recommend.Recommend(profile, candidates, history)

	response := RecommendProductsResponse{
		Count:    len(recommended),
		Products: recommended,
	}
	return s.structuredResult(response)
}

// structuredResult returns both structured content and a JSON text fallback
// for maximum client compatibility.
func (s *Server) structuredResult(response any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		s.log.Error("Failed to marshal response", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultStructured(response, string(responseJSON)), nil
}

// ServeHTTP serves the MCP server over HTTP with authentication
func (s *Server) ServeHTTP(addr string) error {
	mux := http.NewServeMux()

	// Health endpoint (no auth required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Use cached health check to prevent DOS attacks
		ctx := r.Context()
		if err := s.checkHealthWithCache(ctx); err != nil {
			s.log.Error("Health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
		})
	})

	// Create the streamable HTTP server
	streamableServer := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true), // Stateless for better OpenAI compatibility
	)

	// MCP endpoint with authentication and enhanced error logging
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovery := recover(); recovery != nil {
				s.log.Error("MCP endpoint panic recovered",
					"panic", recovery,
					"method", r.Method,
					"url", r.URL.String(),
					"remote_addr", r.RemoteAddr)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			}
		}()

		s.log.Debug("MCP request received",
			"method", r.Method,
			"url", r.URL.String(),
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"remote_addr", r.RemoteAddr)

		if !s.auth.IsAuthorized(r) {
			s.auth.SetUnauthorizedHeaders(w)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			s.log.Warn("Unauthorized MCP request", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())
			return
		}

		recorder := &responseRecorder{ResponseWriter: w}

		streamableServer.ServeHTTP(recorder, r)

		s.log.Debug("MCP response sent",
			"status_code", recorder.statusCode,
			"response_size", recorder.bytesWritten,
			"content_type", recorder.Header().Get("Content-Type"))
	})

	s.log.Info("Starting MCP server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

// ServeStdio serves the MCP server over stdio (no auth required for local use)
func (s *Server) ServeStdio() error {
	s.log.Info("Starting MCP server in stdio mode")
	return server.ServeStdio(s.mcpServer)
}
