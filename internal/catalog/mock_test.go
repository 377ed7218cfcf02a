package catalog

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan-app/healthscan-server/internal/config"
)

func TestMockCatalog_FindByBarcode(t *testing.T) {
	m := NewMockCatalog(config.NewTestLogger(io.Discard, "ERROR"))
	ctx := context.Background()

	p, err := m.FindByBarcode(ctx, "9876543210987")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Protein Energy Bar", p.Name)
	assert.Contains(t, p.Allergens, "Peanuts")

	missing, err := m.FindByBarcode(ctx, "0000000000000")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMockCatalog_SetError(t *testing.T) {
	m := NewMockCatalog(config.NewTestLogger(io.Discard, "ERROR"))
	m.SetError(errors.New("boom"))

	_, err := m.FindByBarcode(context.Background(), "1234567890123")
	assert.Error(t, err)
	assert.Error(t, m.HealthCheck(context.Background()))
}

func TestDemoProducts(t *testing.T) {
	products := DemoProducts()
	assert.Len(t, products, 6)

	for _, p := range products {
		assert.NotEmpty(t, p.Barcode)
		assert.Equal(t, p.ID, p.Barcode)
		assert.NotNil(t, p.Allergens)
	}
}
