package tax

import (
	"context"
	"fmt"
	"math"

	"github.com/Bbachelard/Option/internal/domain"
)

// Engine resolves the delivery location taxes are computed for.
type Engine interface {
	// DeliveryCountry returns the country taxes apply to for this request.
	DeliveryCountry(ctx context.Context) (domain.Country, error)

	// DeliveryState returns the delivery subdivision, or nil when the country
	// has none.
	DeliveryState(ctx context.Context) (*domain.State, error)
}

// StaticEngine is an Engine fixed to one location. Used for the configured
// default store country and in tests.
type StaticEngine struct {
	Country domain.Country
	State   *domain.State
}

// DeliveryCountry returns the fixed country.
func (e *StaticEngine) DeliveryCountry(ctx context.Context) (domain.Country, error) {
	return e.Country, nil
}

// DeliveryState returns the fixed state, possibly nil.
func (e *StaticEngine) DeliveryState(ctx context.Context) (*domain.State, error) {
	return e.State, nil
}

// RateProvider resolves the tax rate applicable to a tax rule at a location.
// The rate is a fraction, e.g. 0.2 for 20% VAT.
type RateProvider interface {
	Rate(ctx context.Context, taxRuleID string, country domain.Country, state *domain.State) (float64, error)
}

// StaticRateProvider returns the same rate for every rule and location.
type StaticRateProvider struct {
	TaxRate float64
}

// Rate returns the fixed rate.
func (p *StaticRateProvider) Rate(ctx context.Context, taxRuleID string, country domain.Country, state *domain.State) (float64, error) {
	return p.TaxRate, nil
}

// Calculator applies a resolved tax rate to prices in cents. Amounts are
// rounded half away from zero.
type Calculator struct {
	rate float64
}

// NewCalculator creates a calculator with an already resolved rate.
func NewCalculator(rate float64) *Calculator {
	return &Calculator{rate: rate}
}

// Rate returns the rate the calculator was loaded with.
func (c *Calculator) Rate() float64 {
	return c.rate
}

// TaxedPrice converts an untaxed amount to its taxed equivalent.
func (c *Calculator) TaxedPrice(untaxed int64) int64 {
	return int64(math.Round(float64(untaxed) * (1 + c.rate)))
}

// UntaxedPrice converts a taxed amount back to its untaxed equivalent.
func (c *Calculator) UntaxedPrice(taxed int64) int64 {
	return int64(math.Round(float64(taxed) / (1 + c.rate)))
}

// Loader builds calculators for a product at a delivery location.
type Loader struct {
	provider RateProvider
}

// NewLoader creates a calculator loader backed by the given rate provider.
func NewLoader(provider RateProvider) *Loader {
	return &Loader{provider: provider}
}

// Load resolves the tax rate of the product's tax rule at the given location
// and returns a calculator for it. A product without a tax rule is untaxed.
func (l *Loader) Load(ctx context.Context, product *domain.Product, country domain.Country, state *domain.State) (*Calculator, error) {
	if product.TaxRuleID == nil {
		return NewCalculator(0), nil
	}

	rate, err := l.provider.Rate(ctx, *product.TaxRuleID, country, state)
	if err != nil {
		return nil, fmt.Errorf("resolve tax rate for rule %s: %w", *product.TaxRuleID, err)
	}

	return NewCalculator(rate), nil
}
