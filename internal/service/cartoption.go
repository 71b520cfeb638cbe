package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/event"
	"github.com/Bbachelard/Option/internal/hook"
	"github.com/Bbachelard/Option/internal/pricing"
	"github.com/Bbachelard/Option/internal/repository"
	"github.com/Bbachelard/Option/internal/tax"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

// keyedMutex serializes work per key. Entries are never evicted; the key space
// is bounded by concurrently active cart items.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// CartOptionService folds option surcharges into cart item prices and records
// per-cart-item option selections. Apply, remove and persist are serialized
// per cart item.
type CartOptionService struct {
	cartItems  repository.CartItemRepository
	options    repository.ProductOptionRepository
	products   repository.ProductRepository
	selections repository.OptionSelectionRepository
	pricer     *pricing.OptionPricer
	taxLoader  *tax.Loader
	taxEngine  tax.Engine
	hooks      *hook.Registry
	producer   *event.Producer
	logger     *slog.Logger
	locks      *keyedMutex
}

// NewCartOptionService creates a new cart item option reconciler.
func NewCartOptionService(
	cartItems repository.CartItemRepository,
	options repository.ProductOptionRepository,
	products repository.ProductRepository,
	selections repository.OptionSelectionRepository,
	pricer *pricing.OptionPricer,
	taxLoader *tax.Loader,
	taxEngine tax.Engine,
	hooks *hook.Registry,
	producer *event.Producer,
	logger *slog.Logger,
) *CartOptionService {
	return &CartOptionService{
		cartItems:  cartItems,
		options:    options,
		products:   products,
		selections: selections,
		pricer:     pricer,
		taxLoader:  taxLoader,
		taxEngine:  taxEngine,
		hooks:      hooks,
		producer:   producer,
		logger:     logger,
		locks:      newKeyedMutex(),
	}
}

// ApplyOptionPrices adds the option surcharge totals to a cart item's prices.
// With an empty optionIDs, every association of the cart item's product is
// applied; otherwise only the named options. Totals are computed before any
// mutation, so a missing price record aborts with the cart item untouched.
//
// Both the regular and the promo price are increased by the regular total.
// RemoveOptionPrices subtracts the respective totals, so a promo price that
// was bumped by the regular total does not round-trip when the two totals
// differ. This mirrors the historical reconciliation behavior that downstream
// accounting depends on.
func (s *CartOptionService) ApplyOptionPrices(ctx context.Context, cartItemID string, optionIDs []string) (*domain.CartItem, error) {
	unlock := s.locks.lock(cartItemID)
	defer unlock()

	item, err := s.cartItems.GetByID(ctx, cartItemID)
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}

	totals, err := s.computeTotals(ctx, item, optionIDs)
	if err != nil {
		return nil, err
	}

	adj := &hook.PriceAdjustment{CartItem: item, Totals: totals}
	if err := s.hooks.DispatchPriceApply(ctx, adj); err != nil {
		return nil, fmt.Errorf("dispatch price apply: %w", err)
	}

	item.Price += totals.Price
	item.PromoPrice += totals.Price

	if err := s.cartItems.UpdatePrices(ctx, item.ID, item.Price, item.PromoPrice); err != nil {
		return nil, fmt.Errorf("persist cart item prices: %w", err)
	}

	s.publishRepriced(ctx, item, event.RepriceReasonOptionsApplied)

	s.logger.InfoContext(ctx, "option prices applied",
		slog.String("cart_item_id", item.ID),
		slog.Int64("total", totals.Price),
	)

	return item, nil
}

// RemoveOptionPrices subtracts the option surcharge totals from a cart item's
// prices. Totals are recomputed from the current associations and prices;
// there is no stored ledger of what was applied.
func (s *CartOptionService) RemoveOptionPrices(ctx context.Context, cartItemID string) (*domain.CartItem, error) {
	unlock := s.locks.lock(cartItemID)
	defer unlock()

	item, err := s.cartItems.GetByID(ctx, cartItemID)
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}

	totals, err := s.computeTotals(ctx, item, nil)
	if err != nil {
		return nil, err
	}

	adj := &hook.PriceAdjustment{CartItem: item, Totals: totals}
	if err := s.hooks.DispatchPriceRemove(ctx, adj); err != nil {
		return nil, fmt.Errorf("dispatch price remove: %w", err)
	}

	item.Price -= totals.Price
	item.PromoPrice -= totals.PromoPrice

	if err := s.cartItems.UpdatePrices(ctx, item.ID, item.Price, item.PromoPrice); err != nil {
		return nil, fmt.Errorf("persist cart item prices: %w", err)
	}

	s.publishRepriced(ctx, item, event.RepriceReasonOptionsRemoved)

	s.logger.InfoContext(ctx, "option prices removed",
		slog.String("cart_item_id", item.ID),
		slog.Int64("total", totals.Price),
		slog.Int64("promo_total", totals.PromoPrice),
	)

	return item, nil
}

// PersistSelection records that an option was chosen for a cart item, with the
// customer's customization payload and immutable price snapshots. When the
// option is not associated with the cart item's product, the call is a silent
// no-op and returns nil.
func (s *CartOptionService) PersistSelection(ctx context.Context, cartItemID, optionID string, formData map[string]any) (*domain.OptionSelection, error) {
	unlock := s.locks.lock(cartItemID)
	defer unlock()

	item, err := s.cartItems.GetByID(ctx, cartItemID)
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}

	assoc, err := s.options.GetByProductAndOption(ctx, item.ProductID, optionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.DebugContext(ctx, "selection ignored, option not associated",
				slog.String("cart_item_id", cartItemID),
				slog.String("option_id", optionID),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("get association for selection: %w", err)
	}

	country, state, err := s.deliveryLocation(ctx)
	if err != nil {
		return nil, err
	}
	calc, err := s.loadCalculator(ctx, item, country, state)
	if err != nil {
		return nil, err
	}

	// The snapshot is taxed with the option product's own rule; the untaxed
	// amount comes back through the cart item product's rule.
	taxed, err := s.pricer.TaxedUnitPrice(ctx, assoc, country, state, false)
	if err != nil {
		return nil, fmt.Errorf("price option for selection: %w", err)
	}

	sel := &domain.OptionSelection{
		CartItemID:        item.ID,
		ProductOptionID:   assoc.ID,
		Price:             calc.UntaxedPrice(taxed),
		TaxedPrice:        taxed,
		Quantity:          item.Quantity,
		CustomizationData: domain.SanitizeCustomization(formData),
	}

	stored, err := s.selections.Upsert(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("persist selection: %w", err)
	}

	s.logger.InfoContext(ctx, "option selection persisted",
		slog.String("cart_item_id", item.ID),
		slog.String("association_id", assoc.ID),
	)

	return stored, nil
}

// computeTotals sums the untaxed regular and promo surcharges of the cart
// item's options. Each option is taxed with its own product's tax rule and the
// amount converted back with the cart item product's rule, so the totals shift
// whenever the two rules differ.
func (s *CartOptionService) computeTotals(ctx context.Context, item *domain.CartItem, optionIDs []string) (*hook.Totals, error) {
	assocs, err := s.options.ListByProduct(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}

	if len(optionIDs) > 0 {
		wanted := make(map[string]bool, len(optionIDs))
		for _, id := range optionIDs {
			wanted[id] = true
		}
		filtered := assocs[:0]
		for _, assoc := range assocs {
			if wanted[assoc.OptionID] {
				filtered = append(filtered, assoc)
			}
		}
		assocs = filtered
	}

	country, state, err := s.deliveryLocation(ctx)
	if err != nil {
		return nil, err
	}
	calc, err := s.loadCalculator(ctx, item, country, state)
	if err != nil {
		return nil, err
	}

	totals := &hook.Totals{}

	for i := range assocs {
		taxedRegular, err := s.pricer.TaxedUnitPrice(ctx, &assocs[i], country, state, false)
		if err != nil {
			return nil, fmt.Errorf("price option %s: %w", assocs[i].OptionID, err)
		}
		taxedPromo, err := s.pricer.TaxedUnitPrice(ctx, &assocs[i], country, state, true)
		if err != nil {
			return nil, fmt.Errorf("price option %s: %w", assocs[i].OptionID, err)
		}

		totals.Price += calc.UntaxedPrice(taxedRegular)
		totals.PromoPrice += calc.UntaxedPrice(taxedPromo)
	}

	return totals, nil
}

func (s *CartOptionService) deliveryLocation(ctx context.Context) (domain.Country, *domain.State, error) {
	country, err := s.taxEngine.DeliveryCountry(ctx)
	if err != nil {
		return domain.Country{}, nil, fmt.Errorf("resolve delivery country: %w", err)
	}
	state, err := s.taxEngine.DeliveryState(ctx)
	if err != nil {
		return domain.Country{}, nil, fmt.Errorf("resolve delivery state: %w", err)
	}
	return country, state, nil
}

func (s *CartOptionService) loadCalculator(ctx context.Context, item *domain.CartItem, country domain.Country, state *domain.State) (*tax.Calculator, error) {
	product, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product for tax: %w", err)
	}

	calc, err := s.taxLoader.Load(ctx, product, country, state)
	if err != nil {
		return nil, fmt.Errorf("load tax calculator: %w", err)
	}

	return calc, nil
}

func (s *CartOptionService) publishRepriced(ctx context.Context, item *domain.CartItem, reason string) {
	if err := s.producer.PublishCartItemRepriced(ctx, item, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.item.repriced event",
			slog.String("cart_item_id", item.ID),
			slog.String("error", err.Error()),
		)
	}
}
