package catalog

import (
	"context"
	"log/slog"

	"github.com/healthscan-app/healthscan-server/internal/types"
)

// MockCatalog is a mock implementation for testing
type MockCatalog struct {
	products []types.Product
	err      error
	log      *slog.Logger
}

// Ensure MockCatalog implements the Catalog interface
var _ Catalog = (*MockCatalog)(nil)

// NewMockCatalog creates a new mock catalog seeded with demo products
func NewMockCatalog(logger *slog.Logger) *MockCatalog {
	return &MockCatalog{
		log:      logger,
		products: DemoProducts(),
	}
}

// DemoProducts returns the demo catalog used by the mock and by tests
func DemoProducts() []types.Product {
	return []types.Product{
		{
			ID:          "1234567890123",
			Barcode:     "1234567890123",
			Name:        "Organic Almond Milk",
			Brand:       "Nature's Best",
			Category:    "Dairy Alternative",
			Ingredients: []string{"Water", "Organic Almonds", "Sea Salt", "Sunflower Lecithin"},
			Allergens:   []string{"Tree Nuts"},
			Nutrition: types.Nutrition{
				ServingSize: "240ml",
				Calories:    30,
				Protein:     1,
				Carbs:       1,
				Sugar:       0,
				Fat:         2.5,
				Sodium:      150,
				Fiber:       1,
			},
			Status: types.StatusSuitable,
		},
		{
			ID:          "9876543210987",
			Barcode:     "9876543210987",
			Name:        "Protein Energy Bar",
			Brand:       "FitLife",
			Category:    "Snacks",
			Ingredients: []string{"Peanuts", "Whey Protein", "Sugar", "Palm Oil", "Soy Lecithin"},
			Allergens:   []string{"Peanuts", "Milk", "Soy"},
			Nutrition: types.Nutrition{
				ServingSize: "45g",
				Calories:    210,
				Protein:     20,
				Carbs:       22,
				Sugar:       15,
				Fat:         8,
				Sodium:      180,
				Fiber:       3,
			},
			Status: types.StatusSuitable,
		},
		{
			ID:          "5647382910234",
			Barcode:     "5647382910234",
			Name:        "Instant Noodles",
			Brand:       "QuickMeal",
			Category:    "Instant Food",
			Ingredients: []string{"Wheat Flour", "Palm Oil", "Salt", "MSG", "Artificial Flavors"},
			Allergens:   []string{"Wheat", "Gluten"},
			Nutrition: types.Nutrition{
				ServingSize: "85g",
				Calories:    380,
				Protein:     8,
				Carbs:       52,
				Sugar:       2,
				Fat:         16,
				Sodium:      1200,
				Fiber:       2,
			},
			Status: types.StatusSuitable,
		},
		{
			ID:          "7362819045678",
			Barcode:     "7362819045678",
			Name:        "Greek Yogurt",
			Brand:       "Dairy Fresh",
			Category:    "Dairy",
			Ingredients: []string{"Milk", "Live Active Cultures"},
			Allergens:   []string{"Milk"},
			Nutrition: types.Nutrition{
				ServingSize: "150g",
				Calories:    90,
				Protein:     15,
				Carbs:       6,
				Sugar:       4,
				Fat:         0,
				Sodium:      60,
				Fiber:       0,
			},
			Status: types.StatusSuitable,
		},
		{
			ID:          "3456789012345",
			Barcode:     "3456789012345",
			Name:        "Veggie Chips",
			Brand:       "Healthy Snacks Co.",
			Category:    "Snacks",
			Ingredients: []string{"Potatoes", "Vegetable Oil", "Salt", "Artificial Colors"},
			Allergens:   []string{},
			Nutrition: types.Nutrition{
				ServingSize: "28g",
				Calories:    140,
				Protein:     1,
				Carbs:       18,
				Sugar:       6,
				Fat:         7,
				Sodium:      130,
				Fiber:       3,
			},
			Status: types.StatusSuitable,
		},
		{
			ID:          "8901234567890",
			Barcode:     "8901234567890",
			Name:        "Quinoa Bowl",
			Brand:       "Organic Eats",
			Category:    "Ready Meals",
			Ingredients: []string{"Quinoa", "Black Beans", "Corn", "Peppers", "Olive Oil", "Spices"},
			Allergens:   []string{},
			Nutrition: types.Nutrition{
				ServingSize: "350g",
				Calories:    320,
				Protein:     12,
				Carbs:       45,
				Sugar:       3,
				Fat:         10,
				Sodium:      400,
				Fiber:       8,
			},
			Status: types.StatusSuitable,
		},
	}
}

// FindByBarcode looks up a product by exact barcode match
func (m *MockCatalog) FindByBarcode(ctx context.Context, barcode string) (*types.Product, error) {
	if m.err != nil {
		return nil, m.err
	}

	for _, p := range m.products {
		if p.Barcode == barcode {
			found := p
			return &found, nil
		}
	}

	return nil, nil
}

// Search returns products matching name and brand
func (m *MockCatalog) Search(ctx context.Context, name, brand string, limit int) ([]types.Product, error) {
	if m.err != nil {
		return nil, m.err
	}

	var results []types.Product
	for _, p := range m.products {
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

	return results, nil
}

// All returns every product
func (m *MockCatalog) All(ctx context.Context) ([]types.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]types.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

// HealthCheck reports the configured error, if any
func (m *MockCatalog) HealthCheck(ctx context.Context) error {
	return m.err
}

// Close is a no-op
func (m *MockCatalog) Close() error {
	return nil
}

// SetError sets an error to be returned by the mock
func (m *MockCatalog) SetError(err error) {
	m.err = err
}

// SetProducts sets the products to be returned by the mock
func (m *MockCatalog) SetProducts(products []types.Product) {
	m.products = products
}
