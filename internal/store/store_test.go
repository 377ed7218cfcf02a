package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan-app/healthscan-server/internal/config"
	"github.com/healthscan-app/healthscan-server/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), config.NewTestLogger(io.Discard, "ERROR"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func almondMilk() *types.Product {
	return &types.Product{
		ID:        "1234567890123",
		Barcode:   "1234567890123",
		Name:      "Almond Milk",
		Brand:     "NutriPure",
		Allergens: []string{"Tree Nuts"},
	}
}

func analyzedAlmondMilk() *types.Product {
	p := almondMilk()
	p.Status = types.StatusSuitable
	p.NutritionScore = 85
	return p
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// No profile saved yet.
	profile, err := s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	saved := &types.UserProfile{
		Name:      "Sam",
		Email:     "sam@example.com",
		Country:   "US",
		Language:  "en",
		Allergies: []string{"Peanuts"},
		Goals:     []string{"Eat healthy"},
	}
	require.NoError(t, s.SaveProfile(ctx, saved))

	got, err := s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	// Saving again replaces the single row.
	saved.Name = "Samantha"
	require.NoError(t, s.SaveProfile(ctx, saved))
	got, err = s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Samantha", got.Name)

	require.NoError(t, s.ClearProfile(ctx))
	got, err = s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing twice is fine.
	require.NoError(t, s.ClearProfile(ctx))
}

func TestStore_ScanHistoryNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)

	second := almondMilk()
	second.ID = "9876543210987"
	second.Name = "Protein Bar"
	_, err = s.AddScanHistoryItem(ctx, second)
	require.NoError(t, err)

	history, err := s.ScanHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Protein Bar", history[0].Product.Name)
	assert.Equal(t, "Almond Milk", history[1].Product.Name)
	assert.Equal(t, first.ID, history[1].ID)
	assert.False(t, history[0].ScannedAt.IsZero())
}

func TestStore_RescansCreateNewRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)
	_, err = s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)

	history, err := s.ScanHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestStore_ToggleFavorite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Two scans of the same product: toggling flips both rows.
	_, err := s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)
	_, err = s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)

	status, err := s.ToggleFavorite(ctx, "1234567890123")
	require.NoError(t, err)
	assert.True(t, status)

	favorites, err := s.Favorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favorites, 2)

	status, err = s.ToggleFavorite(ctx, "1234567890123")
	require.NoError(t, err)
	assert.False(t, status)

	favorites, err = s.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestStore_ToggleFavoriteUnknownProduct(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ToggleFavorite(context.Background(), "0000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SetPurchased(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item, err := s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)

	require.NoError(t, s.SetPurchased(ctx, item.ID, true))

	history, err := s.ScanHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsPurchased)

	assert.ErrorIs(t, s.SetPurchased(ctx, "missing-id", true), ErrNotFound)
}

func TestStore_DeleteScanHistoryItem(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item, err := s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)

	require.NoError(t, s.DeleteScanHistoryItem(ctx, item.ID))

	history, err := s.ScanHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.ErrorIs(t, s.DeleteScanHistoryItem(ctx, item.ID), ErrNotFound)
}

func TestStore_Comparisons(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bar := almondMilk()
	bar.ID = "9876543210987"
	bar.Name = "Protein Bar"

	comparison, err := s.AddComparison(ctx, "Breakfast options", []types.Product{*almondMilk(), *bar})
	require.NoError(t, err)
	assert.NotEmpty(t, comparison.ID)

	comparisons, err := s.Comparisons(ctx)
	require.NoError(t, err)
	require.Len(t, comparisons, 1)
	assert.Equal(t, "Breakfast options", comparisons[0].Title)
	require.Len(t, comparisons[0].Products, 2)
	assert.Equal(t, "Almond Milk", comparisons[0].Products[0].Name)

	// Fewer than two products is rejected.
	_, err = s.AddComparison(ctx, "Solo", []types.Product{*almondMilk()})
	assert.Error(t, err)
}

func TestStore_Stats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AddScanHistoryItem(ctx, analyzedAlmondMilk())
	require.NoError(t, err)

	questionable := analyzedAlmondMilk()
	questionable.ID = "9876543210987"
	questionable.Status = types.StatusQuestionable
	questionable.NutritionScore = 45
	_, err = s.AddScanHistoryItem(ctx, questionable)
	require.NoError(t, err)

	// A scan without an analysis overlay contributes to totals only.
	_, err = s.AddScanHistoryItem(ctx, almondMilk())
	require.NoError(t, err)

	_, err = s.ToggleFavorite(ctx, "9876543210987")
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalScans)
	assert.Equal(t, 1, stats.FavoriteCount)
	assert.InDelta(t, 65.0, stats.AverageScore, 0.001)
	assert.Equal(t, map[string]int{"suitable": 1, "questionable": 1}, stats.StatusBreakdown)
}

func TestStore_EmptyStats(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalScans)
	assert.Zero(t, stats.AverageScore)
}
