package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// ParquetCatalog serves lookups from a parquet product dump (e.g. the Open
// Food Facts dataset) using DuckDB. Intended for deployments whose catalog
// outgrows the static JSON document.
type ParquetCatalog struct {
	db          *sql.DB
	parquetPath string
	log         *slog.Logger
}

// Ensure ParquetCatalog implements the Catalog interface
var _ Catalog = (*ParquetCatalog)(nil)

// NewParquetCatalog creates a DuckDB-backed catalog over the given parquet file
func NewParquetCatalog(parquetPath string, logger *slog.Logger) (*ParquetCatalog, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	return &ParquetCatalog{
		db:          db,
		parquetPath: parquetPath,
		log:         logger,
	}, nil
}

// Close closes the database connection
func (c *ParquetCatalog) Close() error {
	return c.db.Close()
}

const selectColumns = `code, product_name, brands, categories, image_url, nutriments, ingredients_text, allergens_tags`

// FindByBarcode looks up a product by exact barcode match
func (c *ParquetCatalog) FindByBarcode(ctx context.Context, barcode string) (*types.Product, error) {
	start := time.Now()
	c.log.Debug("FindByBarcode starting", "barcode", barcode)

	query := fmt.Sprintf(`
		SELECT %s
		FROM read_parquet(?)
		WHERE code = ?
		LIMIT 1`, selectColumns)

	rows, err := c.db.QueryContext(ctx, query, c.parquetPath, barcode)
	if err != nil {
		c.log.Error("DuckDB barcode query failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("barcode query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		c.log.Debug("No product found for barcode", "barcode", barcode, "duration", time.Since(start))
		return nil, nil
	}

	p, err := c.scanProduct(rows)
	if err != nil {
		return nil, err
	}

	c.log.Info("FindByBarcode completed", "found", true, "duration", time.Since(start))
	return p, nil
}

// Search returns up to limit products matching name and brand
func (c *ParquetCatalog) Search(ctx context.Context, name, brand string, limit int) ([]types.Product, error) {
	start := time.Now()
	c.log.Debug("Search starting", "name", name, "brand", brand, "limit", limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM read_parquet(?)
		WHERE 1=1`, selectColumns)

	args := []interface{}{c.parquetPath}

	if name != "" {
		query += ` AND product_name ILIKE ?`
		args = append(args, fmt.Sprintf("%%%s%%", name))
	}

	if brand != "" {
		query += ` AND brands ILIKE ?`
		args = append(args, fmt.Sprintf("%%%s%%", brand))
	}

	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.log.Error("DuckDB query failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []types.Product
	for rows.Next() {
		p, err := c.scanProduct(rows)
		if err != nil {
			c.log.Error("Row scan failed", "error", err)
			continue
		}
		results = append(results, *p)
	}

	if err := rows.Err(); err != nil {
		c.log.Error("Rows iteration failed", "error", err)
		return nil, fmt.Errorf("rows error: %w", err)
	}

	c.log.Info("Search completed", "count", len(results), "duration", time.Since(start))
	return results, nil
}

// All caps the result at 100 rows; dataset dumps are far too large to
// materialize in full.
func (c *ParquetCatalog) All(ctx context.Context) ([]types.Product, error) {
	return c.Search(ctx, "", "", 100)
}

// HealthCheck tests the database connection and parquet file access
func (c *ParquetCatalog) HealthCheck(ctx context.Context) error {
	start := time.Now()

	query := `SELECT COUNT(*) FROM read_parquet(?)`
	var count int64

	if err := c.db.QueryRowContext(ctx, query, c.parquetPath).Scan(&count); err != nil {
		c.log.Error("Catalog health check failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("catalog health check failed: %w", err)
	}

	c.log.Info("Catalog health check successful", "total_records", count, "duration", time.Since(start))
	return nil
}

// scanProduct maps one parquet row into the canonical product shape
func (c *ParquetCatalog) scanProduct(rows *sql.Rows) (*types.Product, error) {
	var code, productName, brands, categories, imageURL sql.NullString
	var nutrimentsStr, ingredientsStr, allergensStr sql.NullString

	if err := rows.Scan(&code, &productName, &brands, &categories, &imageURL, &nutrimentsStr, &ingredientsStr, &allergensStr); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	p := types.Product{
		ID:          code.String,
		Barcode:     code.String,
		Name:        productName.String,
		Brand:       brands.String,
		Category:    firstSegment(categories.String),
		Image:       imageURL.String,
		Ingredients: splitList(ingredientsStr.String),
		Allergens:   parseAllergenTags(allergensStr.String),
		Status:      types.StatusSuitable,
	}

	if nutrimentsStr.Valid && nutrimentsStr.String != "" {
		var nutriments map[string]interface{}
		if err := json.Unmarshal([]byte(nutrimentsStr.String), &nutriments); err != nil {
			c.log.Debug("Failed to parse nutriments JSON", "error", err, "code", p.Barcode)
		} else {
			p.Nutrition = mapNutriments(nutriments)
		}
	}

	return &p, nil
}

// mapNutriments projects Open Food Facts nutriment keys onto the per-serving
// nutrition record. Sodium is stored in grams upstream and served in mg.
func mapNutriments(n map[string]interface{}) types.Nutrition {
	get := func(keys ...string) float64 {
		for _, k := range keys {
			if v, ok := n[k]; ok {
				if f, ok := v.(float64); ok {
					return f
				}
			}
		}
		return 0
	}

	return types.Nutrition{
		ServingSize: "100g",
		Calories:    get("energy-kcal_100g", "energy-kcal"),
		Protein:     get("proteins_100g", "proteins"),
		Carbs:       get("carbohydrates_100g", "carbohydrates"),
		Sugar:       get("sugars_100g", "sugars"),
		Fat:         get("fat_100g", "fat"),
		Sodium:      get("sodium_100g", "sodium") * 1000,
		Fiber:       get("fiber_100g", "fiber"),
	}
}

// parseAllergenTags converts "en:milk,en:nuts" style tags into display names
func parseAllergenTags(tags string) []string {
	if tags == "" {
		return []string{}
	}

	var out []string
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.TrimSpace(tag)
		if i := strings.Index(tag, ":"); i >= 0 {
			tag = tag[i+1:]
		}
		if tag == "" {
			continue
		}
		tag = strings.ReplaceAll(tag, "-", " ")
		out = append(out, capitalize(tag))
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstSegment(s string) string {
	if i := strings.Index(s, ","); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
