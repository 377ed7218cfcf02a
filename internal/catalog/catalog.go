package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/healthscan-app/healthscan-server/internal/config"
	"github.com/healthscan-app/healthscan-server/internal/types"
)

// Catalog defines the interface for product lookups against the catalog
type Catalog interface {
	// FindByBarcode returns the product with the exact barcode, or nil when
	// the barcode is unknown. An unknown barcode is not an error.
	FindByBarcode(ctx context.Context, barcode string) (*types.Product, error)
	// Search returns up to limit products matching name and brand
	// (case-insensitive substring match).
	Search(ctx context.Context, name, brand string, limit int) ([]types.Product, error)
	// All returns every product in the catalog.
	All(ctx context.Context) ([]types.Product, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// New creates a catalog backed by either a parquet dataset (when
// CATALOG_PARQUET_PATH is set) or a static JSON document
func New(cfg *config.Config, logger *slog.Logger) (Catalog, error) {
	if cfg.CatalogParquetPath != "" {
		return NewParquetCatalog(cfg.CatalogParquetPath, logger)
	}
	return NewJSONCatalog(cfg.CatalogPath, logger)
}

// document is the on-disk shape of the static product catalog
type document struct {
	Products []record `json:"products"`
}

type record struct {
	Barcode     string   `json:"barcode"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Ingredients []string `json:"ingredients"`
	Allergens   []string `json:"allergens"`
	Nutrition   struct {
		ServingSize string  `json:"serving_size"`
		Calories    float64 `json:"calories"`
		Protein     float64 `json:"protein"`
		Carbs       float64 `json:"carbs"`
		Sugar       float64 `json:"sugar"`
		Fat         float64 `json:"fat"`
		Sodium      float64 `json:"sodium"`
		Fiber       float64 `json:"fiber"`
	} `json:"nutrition"`
}

// JSONCatalog serves lookups from a static JSON document loaded at startup
type JSONCatalog struct {
	products  []types.Product
	byBarcode map[string]int
	log       *slog.Logger
}

// Ensure JSONCatalog implements the Catalog interface
var _ Catalog = (*JSONCatalog)(nil)

// NewJSONCatalog loads the catalog document from path and indexes it by barcode
func NewJSONCatalog(path string, logger *slog.Logger) (*JSONCatalog, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &JSONCatalog{
		products:  make([]types.Product, 0, len(doc.Products)),
		byBarcode: make(map[string]int, len(doc.Products)),
		log:       logger,
	}

	for _, rec := range doc.Products {
		p := normalize(rec)
		c.byBarcode[p.Barcode] = len(c.products)
		c.products = append(c.products, p)
	}

	logger.Info("Catalog loaded", "path", path, "products", len(c.products), "duration", time.Since(start))
	return c, nil
}

// normalize converts a raw catalog record into the canonical product shape.
// The overlay is a neutral placeholder pending real analysis; callers must
// not treat it as a verdict.
func normalize(rec record) types.Product {
	p := types.Product{
		ID:          rec.Barcode,
		Barcode:     rec.Barcode,
		Name:        rec.Name,
		Brand:       rec.Brand,
		Category:    rec.Category,
		Image:       rec.Image,
		Ingredients: rec.Ingredients,
		Allergens:   rec.Allergens,
		Nutrition: types.Nutrition{
			ServingSize: rec.Nutrition.ServingSize,
			Calories:    rec.Nutrition.Calories,
			Protein:     rec.Nutrition.Protein,
			Carbs:       rec.Nutrition.Carbs,
			Sugar:       rec.Nutrition.Sugar,
			Fat:         rec.Nutrition.Fat,
			Sodium:      rec.Nutrition.Sodium,
			Fiber:       rec.Nutrition.Fiber,
		},
		Status: types.StatusSuitable,
	}
	if p.Ingredients == nil {
		p.Ingredients = []string{}
	}
	if p.Allergens == nil {
		p.Allergens = []string{}
	}
	return p
}

// FindByBarcode looks up a product by exact barcode match
func (c *JSONCatalog) FindByBarcode(ctx context.Context, barcode string) (*types.Product, error) {
	start := time.Now()

	idx, ok := c.byBarcode[barcode]
	if !ok {
		c.log.Debug("No product found for barcode", "barcode", barcode, "duration", time.Since(start))
		return nil, nil
	}

	p := c.products[idx]
	c.log.Debug("FindByBarcode completed", "barcode", barcode, "name", p.Name, "duration", time.Since(start))
	return &p, nil
}

// Search returns products whose name and brand contain the given fragments
func (c *JSONCatalog) Search(ctx context.Context, name, brand string, limit int) ([]types.Product, error) {
	start := time.Now()

	var results []types.Product
	for _, p := range c.products {
		if name != "" && !containsFold(p.Name, name) {
			continue
		}
		if brand != "" && !containsFold(p.Brand, brand) {
			continue
		}
		results = append(results, p)
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	c.log.Info("Search completed", "name", name, "brand", brand, "count", len(results), "duration", time.Since(start))
	return results, nil
}

// All returns a copy of every product in the catalog
func (c *JSONCatalog) All(ctx context.Context) ([]types.Product, error) {
	out := make([]types.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// HealthCheck reports whether the catalog is usable
func (c *JSONCatalog) HealthCheck(ctx context.Context) error {
	if len(c.products) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	return nil
}

// Close is a no-op for the in-memory catalog
func (c *JSONCatalog) Close() error {
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
