package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/tax"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

// CatalogSource resolves option products and their default sale price records.
type CatalogSource interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetDefaultPrice(ctx context.Context, productID string) (*domain.ProductPrice, error)
}

// OptionPrice selects the unit price from a price record: the promo price when
// promo is requested, otherwise the regular price. A missing record is a hard
// error, never a silent zero.
func OptionPrice(price *domain.ProductPrice, promo bool) (int64, error) {
	if price == nil {
		return 0, apperrors.ErrMissingPriceData
	}
	return price.UnitPrice(promo), nil
}

// OptionPricer resolves the effective unit price of an option within an
// association: the association's price override when one is set, otherwise the
// option product's own default price record.
type OptionPricer struct {
	catalog CatalogSource
	taxes   *tax.Loader
}

// NewOptionPricer creates a pricer backed by the given catalog source and tax
// calculator loader.
func NewOptionPricer(catalog CatalogSource, taxes *tax.Loader) *OptionPricer {
	return &OptionPricer{catalog: catalog, taxes: taxes}
}

// UnitPrice returns the untaxed unit price of the option in cents.
func (p *OptionPricer) UnitPrice(ctx context.Context, assoc *domain.ProductOption, promo bool) (int64, error) {
	record, err := p.priceRecord(ctx, assoc)
	if err != nil {
		return 0, err
	}
	return OptionPrice(record, promo)
}

// TaxedUnitPrice returns the unit price taxed with the option product's own
// tax rule at the given delivery location. Callers converting the amount into
// another product's price untax it with that product's rule, so the result
// shifts whenever the two rules differ.
func (p *OptionPricer) TaxedUnitPrice(ctx context.Context, assoc *domain.ProductOption, country domain.Country, state *domain.State, promo bool) (int64, error) {
	unit, err := p.UnitPrice(ctx, assoc, promo)
	if err != nil {
		return 0, err
	}

	option, err := p.catalog.GetByID(ctx, assoc.OptionID)
	if err != nil {
		return 0, fmt.Errorf("get option product for tax: %w", err)
	}

	calc, err := p.taxes.Load(ctx, option, country, state)
	if err != nil {
		return 0, fmt.Errorf("load option tax calculator: %w", err)
	}

	return calc.TaxedPrice(unit), nil
}

func (p *OptionPricer) priceRecord(ctx context.Context, assoc *domain.ProductOption) (*domain.ProductPrice, error) {
	if assoc.Price != nil {
		// An override without a promo amount serves the regular override for
		// promo requests too.
		record := &domain.ProductPrice{
			ProductID:  assoc.OptionID,
			Price:      *assoc.Price,
			PromoPrice: *assoc.Price,
			IsPromo:    assoc.IsPromo,
		}
		if assoc.PromoPrice != nil {
			record.PromoPrice = *assoc.PromoPrice
		}
		return record, nil
	}

	record, err := p.catalog.GetDefaultPrice(ctx, assoc.OptionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.MissingPriceData(assoc.OptionID)
		}
		return nil, fmt.Errorf("resolve option price: %w", err)
	}

	return record, nil
}
