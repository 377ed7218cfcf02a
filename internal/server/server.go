// Package server exposes the HealthScan HTTP API: barcode scans, product
// analysis, recommendations, and the persisted user state (profile, history,
// favorites, comparisons).
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/healthscan-app/healthscan-server/internal/analysis"
	"github.com/healthscan-app/healthscan-server/internal/auth"
	"github.com/healthscan-app/healthscan-server/internal/catalog"
	"github.com/healthscan-app/healthscan-server/internal/config"
	"github.com/healthscan-app/healthscan-server/internal/recommend"
	"github.com/healthscan-app/healthscan-server/internal/store"
	"github.com/healthscan-app/healthscan-server/internal/types"
)

// ScanRequest is the JSON body for scan and analyze requests.
type ScanRequest struct {
	Barcode  string         `json:"barcode"`
	Product  *types.Product `json:"product,omitempty"`
	Language string         `json:"language,omitempty"`
}

// ScanResponse wraps the analysis-enriched product returned by a scan.
type ScanResponse struct {
	Product   *types.Product `json:"product"`
	HistoryID string         `json:"history_id,omitempty"`
}

// ProductsResponse is the JSON response for product list requests.
type ProductsResponse struct {
	Found    bool            `json:"found"`
	Count    int             `json:"count"`
	Products []types.Product `json:"products"`
}

// HistoryResponse is the JSON response for scan history requests.
type HistoryResponse struct {
	Count int                     `json:"count"`
	Items []types.ScanHistoryItem `json:"items"`
}

// FavoriteResponse reports the favorite status after a toggle.
type FavoriteResponse struct {
	ProductID  string `json:"product_id"`
	IsFavorite bool   `json:"is_favorite"`
}

// ComparisonRequest is the JSON body for creating a comparison.
type ComparisonRequest struct {
	Title      string   `json:"title"`
	ProductIDs []string `json:"productIds"`
}

// PurchasedRequest is the JSON body for marking a history item purchased.
type PurchasedRequest struct {
	Purchased bool `json:"purchased"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// Server is the HealthScan HTTP API server.
type Server struct {
	config   *config.Config
	catalog  catalog.Catalog
	analyzer *analysis.Analyzer
	store    *store.Store
	auth     *auth.BearerTokenAuth
	log      *slog.Logger
	ready    bool
}

// New creates a new server instance from already initialized components.
func New(cfg *config.Config, cat catalog.Catalog, analyzer *analysis.Analyzer, st *store.Store, logger *slog.Logger) *Server {
	return &Server{
		config:   cfg,
		catalog:  cat,
		analyzer: analyzer,
		store:    st,
		auth:     auth.NewBearerTokenAuth(cfg.AuthToken),
		log:      logger,
		ready:    true,
	}
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HealthScan server", "port", s.config.Port)

	server := &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	go func() {
		s.log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", "error", err)
	}

	s.catalog.Close()
	s.store.Close()

	s.log.Info("Server stopped")
	return nil
}

// Handler builds the route table. Everything under /v1 requires a Bearer
// token; /health does not.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /v1/scan", s.authorized(s.handleScan))
	mux.HandleFunc("POST /v1/analyze", s.authorized(s.handleAnalyze))
	mux.HandleFunc("GET /v1/products", s.authorized(s.handleProducts))
	mux.HandleFunc("GET /v1/products/search", s.authorized(s.handleSearch))
	mux.HandleFunc("POST /v1/products/{id}/favorite", s.authorized(s.handleToggleFavorite))
	mux.HandleFunc("GET /v1/recommendations", s.authorized(s.handleRecommendations))
	mux.HandleFunc("GET /v1/history", s.authorized(s.handleHistory))
	mux.HandleFunc("DELETE /v1/history/{id}", s.authorized(s.handleDeleteHistory))
	mux.HandleFunc("POST /v1/history/{id}/purchased", s.authorized(s.handleSetPurchased))
	mux.HandleFunc("GET /v1/favorites", s.authorized(s.handleFavorites))
	mux.HandleFunc("GET /v1/profile", s.authorized(s.handleGetProfile))
	mux.HandleFunc("PUT /v1/profile", s.authorized(s.handleSaveProfile))
	mux.HandleFunc("DELETE /v1/profile", s.authorized(s.handleClearProfile))
	mux.HandleFunc("POST /v1/comparisons", s.authorized(s.handleAddComparison))
	mux.HandleFunc("GET /v1/comparisons", s.authorized(s.handleComparisons))
	mux.HandleFunc("GET /v1/stats", s.authorized(s.handleStats))
	return mux
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.IsAuthorized(r) {
			s.auth.SetUnauthorizedHeaders(w)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			s.log.Warn("Unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			return
		}
		if !s.ready {
			http.Error(w, "server not ready", http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok", Ready: s.ready}

	w.Header().Set("Content-Type", "application/json")
	if !s.ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

// handleScan looks up a barcode, analyzes the product against the stored
// profile, records the scan, and returns the enriched product. An unknown
// barcode is the one user-visible error.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warn("Bad request", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Barcode == "" {
		http.Error(w, "barcode is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	product, err := s.catalog.FindByBarcode(ctx, req.Barcode)
	if err != nil {
		s.log.Error("Barcode lookup failed", "error", err, "barcode", req.Barcode)
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	profile, language, err := s.profileAndLanguage(ctx, req.Language)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	result := s.analyzer.Analyze(ctx, product, profile, language)
	product.ApplyAnalysis(result)

	item, err := s.store.AddScanHistoryItem(ctx, product)
	if err != nil {
		s.log.Error("Failed to record scan", "error", err, "barcode", req.Barcode)
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	s.log.Info("Scan completed", "barcode", req.Barcode, "status", product.Status, "score", product.NutritionScore, "duration", time.Since(start))
	s.writeJSON(w, http.StatusOK, ScanResponse{Product: product, HistoryID: item.ID})
}

// handleAnalyze runs an analysis without touching scan history. The caller
// provides either a barcode or a full product record.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warn("Bad request", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var product *types.Product
	switch {
	case req.Barcode != "":
		found, err := s.catalog.FindByBarcode(ctx, req.Barcode)
		if err != nil {
			s.log.Error("Barcode lookup failed", "error", err, "barcode", req.Barcode)
			s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
			return
		}
		if found == nil {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		product = found
	case req.Product != nil:
		product = req.Product
		if product.ID == "" {
			product.ID = product.Barcode
		}
	default:
		http.Error(w, "barcode or product is required", http.StatusBadRequest)
		return
	}

	profile, language, err := s.profileAndLanguage(ctx, req.Language)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	result := s.analyzer.Analyze(ctx, product, profile, language)
	product.ApplyAnalysis(result)

	s.writeJSON(w, http.StatusOK, ScanResponse{Product: product})
}

// handleProducts returns the display list: the catalog merged with the most
// recent analyzed scan of each product.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	merged, err := s.mergedProducts(ctx)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, ProductsResponse{
		Found:    len(merged) > 0,
		Count:    len(merged),
		Products: merged,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.URL.Query().Get("name")
	brand := r.URL.Query().Get("brand")
	limit := DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	start := time.Now()
	products, err := s.catalog.Search(ctx, name, brand, limit)
	if err != nil {
		s.log.Error("Product search failed", "error", err, "name", name, "brand", brand)
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	s.log.Info("Search completed", "found", len(products), "duration", time.Since(start))
	s.writeJSON(w, http.StatusOK, ProductsResponse{
		Found:    len(products) > 0,
		Count:    len(products),
		Products: products,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := s.currentProfile(ctx)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	history, err := s.store.ScanHistory(ctx)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	all, err := s.catalog.All(ctx)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	candidates := recommend.MergeWithHistory(all, history)
	recommended := recommend.Recommend(profile, candidates, history)

	s.writeJSON(w, http.StatusOK, ProductsResponse{
		Found:    len(recommended) > 0,
		Count:    len(recommended),
		Products: recommended,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ScanHistory(r.Context())
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Count: len(items), Items: items})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteScanHistoryItem(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "history item not found", http.StatusNotFound)
			return
		}
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPurchased(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// An empty body means "mark purchased".
	req := PurchasedRequest{Purchased: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.store.SetPurchased(r.Context(), id, req.Purchased); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "history item not found", http.StatusNotFound)
			return
		}
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")

	status, err := s.store.ToggleFavorite(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "product not in scan history", http.StatusNotFound)
			return
		}
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, FavoriteResponse{ProductID: productID, IsFavorite: status})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.Favorites(r.Context())
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Count: len(items), Items: items})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.GetProfile(r.Context())
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "no profile saved", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile types.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.log.Warn("Bad request", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.store.SaveProfile(r.Context(), &profile); err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}

	s.log.Info("Profile saved", "name", profile.Name)
	s.writeJSON(w, http.StatusOK, &profile)
}

func (s *Server) handleClearProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearProfile(r.Context()); err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if len(req.ProductIDs) < 2 {
		http.Error(w, "at least two product ids are required", http.StatusBadRequest)
		return
	}

	merged, err := s.mergedProducts(ctx)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	byID := make(map[string]types.Product, len(merged))
	for _, product := range merged {
		byID[product.ID] = product
	}

	products := make([]types.Product, 0, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		product, ok := byID[id]
		if !ok {
			http.Error(w, fmt.Sprintf("product not found: %s", id), http.StatusNotFound)
			return
		}
		products = append(products, product)
	}

	comparison, err := s.store.AddComparison(ctx, req.Title, products)
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusCreated, comparison)
}

func (s *Server) handleComparisons(w http.ResponseWriter, r *http.Request) {
	comparisons, err := s.store.Comparisons(r.Context())
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, comparisons)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.sendErrorResponse(w, err, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// mergedProducts is the catalog with history overlays applied.
func (s *Server) mergedProducts(ctx context.Context) ([]types.Product, error) {
	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ScanHistory(ctx)
	if err != nil {
		return nil, err
	}
	return recommend.MergeWithHistory(all, history), nil
}

func (s *Server) currentProfile(ctx context.Context) (*types.UserProfile, error) {
	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &types.UserProfile{}
	}
	return profile, nil
}

// profileAndLanguage resolves the stored profile and the display language:
// an explicit request value wins, then the profile's language, then the
// configured default.
func (s *Server) profileAndLanguage(ctx context.Context, requested string) (*types.UserProfile, types.Language, error) {
	profile, err := s.currentProfile(ctx)
	if err != nil {
		return nil, types.LanguageEN, err
	}

	raw := requested
	if raw == "" {
		raw = profile.Language
	}
	if raw == "" {
		raw = s.config.DefaultLanguage
	}
	return profile, types.ParseLanguage(raw), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}

// sendErrorResponse sends an error response, with detailed error in development mode
func (s *Server) sendErrorResponse(w http.ResponseWriter, err error, message string, statusCode int) {
	if s.config.IsDevelopment() {
		http.Error(w, fmt.Sprintf("%s: %v", message, err), statusCode)
	} else {
		http.Error(w, message, statusCode)
	}
}
