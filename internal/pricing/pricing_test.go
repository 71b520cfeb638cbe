package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/tax"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

func int64Ptr(n int64) *int64 { return &n }
func strPtr(s string) *string { return &s }

// stubCatalog serves canned products and price records per product id.
type stubCatalog struct {
	products map[string]*domain.Product
	records  map[string]*domain.ProductPrice
}

func (s *stubCatalog) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return product, nil
}

func (s *stubCatalog) GetDefaultPrice(ctx context.Context, productID string) (*domain.ProductPrice, error) {
	record, ok := s.records[productID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return record, nil
}

func newTestPricer(catalog *stubCatalog, rate float64) *OptionPricer {
	return NewOptionPricer(catalog, tax.NewLoader(&tax.StaticRateProvider{TaxRate: rate}))
}

// ============================================================================
// OptionPrice
// ============================================================================

func TestOptionPrice_NilRecord(t *testing.T) {
	_, err := OptionPrice(nil, false)
	assert.ErrorIs(t, err, apperrors.ErrMissingPriceData)
}

func TestOptionPrice_Regular(t *testing.T) {
	price, err := OptionPrice(&domain.ProductPrice{Price: 1000, PromoPrice: 800, IsPromo: true}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price)
}

func TestOptionPrice_Promo(t *testing.T) {
	price, err := OptionPrice(&domain.ProductPrice{Price: 1000, PromoPrice: 800, IsPromo: true}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(800), price)
}

// The promo amount is served whenever it is requested; the record's promotion
// flag does not gate the selection.
func TestOptionPrice_PromoIgnoresPromotionFlag(t *testing.T) {
	price, err := OptionPrice(&domain.ProductPrice{Price: 1000, PromoPrice: 800, IsPromo: false}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(800), price)
}

// ============================================================================
// OptionPricer
// ============================================================================

func TestOptionPricer_UsesProductDefaultPrice(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{
		records: map[string]*domain.ProductPrice{
			"opt-1": {ProductID: "opt-1", Price: 900},
		},
	}, 0)
	assoc := &domain.ProductOption{ProductID: "prod-1", OptionID: "opt-1"}

	price, err := pricer.UnitPrice(context.Background(), assoc, false)
	require.NoError(t, err)
	assert.Equal(t, int64(900), price)
}

func TestOptionPricer_AssociationOverrideWins(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{
		records: map[string]*domain.ProductPrice{
			"opt-1": {ProductID: "opt-1", Price: 900},
		},
	}, 0)
	assoc := &domain.ProductOption{
		ProductID: "prod-1",
		OptionID:  "opt-1",
		Price:     int64Ptr(1200),
	}

	price, err := pricer.UnitPrice(context.Background(), assoc, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), price)
}

func TestOptionPricer_OverridePromo(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{}, 0)
	assoc := &domain.ProductOption{
		ProductID:  "prod-1",
		OptionID:   "opt-1",
		Price:      int64Ptr(1200),
		PromoPrice: int64Ptr(700),
		IsPromo:    true,
	}

	price, err := pricer.UnitPrice(context.Background(), assoc, true)
	require.NoError(t, err)
	assert.Equal(t, int64(700), price)
}

// A promo override is honored even when the association is not flagged as on
// promotion.
func TestOptionPricer_OverridePromoWithoutFlag(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{}, 0)
	assoc := &domain.ProductOption{
		ProductID:  "prod-1",
		OptionID:   "opt-1",
		Price:      int64Ptr(1200),
		PromoPrice: int64Ptr(700),
		IsPromo:    false,
	}

	price, err := pricer.UnitPrice(context.Background(), assoc, true)
	require.NoError(t, err)
	assert.Equal(t, int64(700), price)
}

// An override without a promo amount falls back to the regular override for
// promo requests.
func TestOptionPricer_OverrideWithoutPromoFallsBackToRegular(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{}, 0)
	assoc := &domain.ProductOption{
		ProductID: "prod-1",
		OptionID:  "opt-1",
		Price:     int64Ptr(1200),
	}

	price, err := pricer.UnitPrice(context.Background(), assoc, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), price)
}

func TestOptionPricer_MissingPriceData(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{}, 0)
	assoc := &domain.ProductOption{ProductID: "prod-1", OptionID: "opt-unpriced"}

	_, err := pricer.UnitPrice(context.Background(), assoc, false)
	assert.ErrorIs(t, err, apperrors.ErrMissingPriceData)
}

// The taxed amount follows the option product's own tax rule, not the rule of
// the product it is attached to.
func TestOptionPricer_TaxedUnitPrice_UsesOptionProductRule(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{
		products: map[string]*domain.Product{
			"opt-1": {ID: "opt-1", Title: "Engraving", TaxRuleID: strPtr("tax-1")},
		},
		records: map[string]*domain.ProductPrice{
			"opt-1": {ProductID: "opt-1", Price: 900},
		},
	}, 1.0/9.0)
	assoc := &domain.ProductOption{ProductID: "prod-1", OptionID: "opt-1"}

	price, err := pricer.TaxedUnitPrice(context.Background(), assoc, domain.Country{Code: "FR"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), price)
}

func TestOptionPricer_TaxedUnitPrice_NoTaxRuleIsUntaxed(t *testing.T) {
	pricer := newTestPricer(&stubCatalog{
		products: map[string]*domain.Product{
			"opt-1": {ID: "opt-1", Title: "Engraving"},
		},
		records: map[string]*domain.ProductPrice{
			"opt-1": {ProductID: "opt-1", Price: 900},
		},
	}, 1.0/9.0)
	assoc := &domain.ProductOption{ProductID: "prod-1", OptionID: "opt-1"}

	price, err := pricer.TaxedUnitPrice(context.Background(), assoc, domain.Country{Code: "FR"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, int64(900), price)
}
