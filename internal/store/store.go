// Package store persists user state in SQLite: the single user profile,
// the scan history, and saved product comparisons.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// ErrNotFound is returned when an operation references a row that does not
// exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite database holding all persisted user state.
type Store struct {
	sql *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema
// exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS user_profile (
  id         INTEGER PRIMARY KEY CHECK (id = 1),
  data       TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS scan_history (
  id           TEXT PRIMARY KEY,
  product_id   TEXT NOT NULL,
  product      TEXT NOT NULL,
  scanned_at   TEXT NOT NULL,
  is_favorite  INTEGER NOT NULL DEFAULT 0 CHECK (is_favorite IN (0,1)),
  is_purchased INTEGER NOT NULL DEFAULT 0 CHECK (is_purchased IN (0,1))
);
CREATE INDEX IF NOT EXISTS idx_history_scanned ON scan_history(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_history_product ON scan_history(product_id);
CREATE TABLE IF NOT EXISTS comparisons (
  id         TEXT PRIMARY KEY,
  title      TEXT NOT NULL,
  products   TEXT NOT NULL,
  created_at TEXT NOT NULL
);
	`); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("Opened store database", "path", path)
	return &Store{sql: db, log: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// GetProfile returns the stored user profile, or nil when none has been
// saved yet.
func (s *Store) GetProfile(ctx context.Context) (*types.UserProfile, error) {
	var data string
	err := s.sql.QueryRowContext(ctx, "SELECT data FROM user_profile WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile types.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile inserts or replaces the single profile row.
func (s *Store) SaveProfile(ctx context.Context, profile *types.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = s.sql.ExecContext(ctx, `
INSERT INTO user_profile (id, data, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ClearProfile removes the stored profile. Clearing an absent profile is not
// an error.
func (s *Store) ClearProfile(ctx context.Context) error {
	if _, err := s.sql.ExecContext(ctx, "DELETE FROM user_profile WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// AddScanHistoryItem records a new scan of product. Re-scans of the same
// product create new rows rather than updating earlier ones.
func (s *Store) AddScanHistoryItem(ctx context.Context, product *types.Product) (*types.ScanHistoryItem, error) {
	item := &types.ScanHistoryItem{
		ID:        uuid.NewString(),
		Product:   *product,
		ScannedAt: time.Now().UTC(),
	}

	snapshot, err := json.Marshal(item.Product)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product snapshot: %w", err)
	}

	_, err = s.sql.ExecContext(ctx, `
INSERT INTO scan_history (id, product_id, product, scanned_at, is_favorite, is_purchased)
VALUES (?, ?, ?, ?, 0, 0)`,
		item.ID, product.ID, string(snapshot), formatTime(item.ScannedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to add scan history item: %w", err)
	}

	s.log.Debug("Recorded scan", "product", product.Name, "id", item.ID)
	return item, nil
}

// ScanHistory returns all history items, newest first.
func (s *Store) ScanHistory(ctx context.Context) ([]types.ScanHistoryItem, error) {
	return s.queryHistory(ctx, "SELECT id, product, scanned_at, is_favorite, is_purchased FROM scan_history ORDER BY scanned_at DESC, rowid DESC")
}

// Favorites returns favorited history items, newest first.
func (s *Store) Favorites(ctx context.Context) ([]types.ScanHistoryItem, error) {
	return s.queryHistory(ctx, "SELECT id, product, scanned_at, is_favorite, is_purchased FROM scan_history WHERE is_favorite = 1 ORDER BY scanned_at DESC, rowid DESC")
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]types.ScanHistoryItem, error) {
	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	items := []types.ScanHistoryItem{}
	for rows.Next() {
		var (
			item        types.ScanHistoryItem
			snapshot    string
			scannedAt   string
			isFavorite  int
			isPurchased int
		)
		if err := rows.Scan(&item.ID, &snapshot, &scannedAt, &isFavorite, &isPurchased); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(snapshot), &item.Product); err != nil {
			return nil, fmt.Errorf("failed to decode product snapshot: %w", err)
		}
		item.ScannedAt = parseTime(scannedAt)
		item.IsFavorite = isFavorite == 1
		item.IsPurchased = isPurchased == 1
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan history: %w", err)
	}
	return items, nil
}

// ToggleFavorite flips the favorite flag for every history row of the given
// product and returns the new status. Returns ErrNotFound when the product
// has never been scanned.
func (s *Store) ToggleFavorite(ctx context.Context, productID string) (bool, error) {
	var current bool
	err := s.sql.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM scan_history WHERE product_id = ? AND is_favorite = 1)", productID).Scan(&current)
	if err != nil {
		return false, fmt.Errorf("failed to read favorite status: %w", err)
	}

	newStatus := !current
	res, err := s.sql.ExecContext(ctx,
		"UPDATE scan_history SET is_favorite = ? WHERE product_id = ?", boolToInt(newStatus), productID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, ErrNotFound
	}
	return newStatus, nil
}

// SetPurchased marks a single history item as purchased or not.
func (s *Store) SetPurchased(ctx context.Context, historyID string, purchased bool) error {
	res, err := s.sql.ExecContext(ctx,
		"UPDATE scan_history SET is_purchased = ? WHERE id = ?", boolToInt(purchased), historyID)
	if err != nil {
		return fmt.Errorf("failed to set purchased: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteScanHistoryItem removes one history row by its item ID.
func (s *Store) DeleteScanHistoryItem(ctx context.Context, historyID string) error {
	res, err := s.sql.ExecContext(ctx, "DELETE FROM scan_history WHERE id = ?", historyID)
	if err != nil {
		return fmt.Errorf("failed to delete scan history item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddComparison saves a named grouping of two or more products.
func (s *Store) AddComparison(ctx context.Context, title string, products []types.Product) (*types.ProductComparison, error) {
	if len(products) < 2 {
		return nil, errors.New("a comparison needs at least two products")
	}

	comparison := &types.ProductComparison{
		ID:        uuid.NewString(),
		Title:     title,
		Products:  products,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("failed to encode comparison products: %w", err)
	}

	_, err = s.sql.ExecContext(ctx,
		"INSERT INTO comparisons (id, title, products, created_at) VALUES (?, ?, ?, ?)",
		comparison.ID, title, string(data), formatTime(comparison.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to add comparison: %w", err)
	}
	return comparison, nil
}

// Comparisons returns all saved comparisons, newest first.
func (s *Store) Comparisons(ctx context.Context) ([]types.ProductComparison, error) {
	rows, err := s.sql.QueryContext(ctx,
		"SELECT id, title, products, created_at FROM comparisons ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query comparisons: %w", err)
	}
	defer rows.Close()

	comparisons := []types.ProductComparison{}
	for rows.Next() {
		var (
			c         types.ProductComparison
			data      string
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.Title, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan comparison row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &c.Products); err != nil {
			return nil, fmt.Errorf("failed to decode comparison products: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		comparisons = append(comparisons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comparisons: %w", err)
	}
	return comparisons, nil
}

// Stats summarizes the scan history for the stats screen.
type Stats struct {
	TotalScans      int            `json:"total_scans"`
	FavoriteCount   int            `json:"favorite_count"`
	AverageScore    float64        `json:"average_score"`
	StatusBreakdown map[string]int `json:"status_breakdown"`
}

// Stats computes scan totals, favorite counts, the average nutrition score of
// analyzed scans, and a per-status breakdown.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	history, err := s.ScanHistory(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{StatusBreakdown: map[string]int{}}
	scoreSum := 0
	scored := 0
	for _, item := range history {
		stats.TotalScans++
		if item.IsFavorite {
			stats.FavoriteCount++
		}
		if item.Product.Analyzed() {
			scoreSum += item.Product.NutritionScore
			scored++
			stats.StatusBreakdown[string(item.Product.Status)]++
		}
	}
	if scored > 0 {
		stats.AverageScore = float64(scoreSum) / float64(scored)
	}
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout is fixed-width so that stored timestamps sort correctly as
// text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}
