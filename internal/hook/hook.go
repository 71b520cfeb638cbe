package hook

import (
	"context"
	"fmt"
	"sync"

	"github.com/Bbachelard/Option/internal/domain"
)

// OptionCheck is dispatched before available options are returned for a
// product. Subscribers may veto the whole result by flipping IsValid to false,
// or narrow the option list in place.
type OptionCheck struct {
	Product *domain.Product
	Options []domain.Product
	IsValid bool
}

// Totals carries the option surcharge sums folded into a cart item.
type Totals struct {
	Price      int64
	PromoPrice int64
}

// PriceAdjustment is dispatched before option totals are applied to or removed
// from a cart item. Subscribers may adjust the totals.
type PriceAdjustment struct {
	CartItem *domain.CartItem
	Totals   *Totals
}

// OptionCheckFunc observes and may mutate an option check.
type OptionCheckFunc func(ctx context.Context, check *OptionCheck) error

// PriceAdjustmentFunc observes and may mutate a price adjustment.
type PriceAdjustmentFunc func(ctx context.Context, adj *PriceAdjustment) error

// Registry is a synchronous, in-process subscriber registry. Subscribers run
// in registration order; the first error aborts the dispatch and propagates to
// the caller.
type Registry struct {
	mu           sync.RWMutex
	optionChecks []OptionCheckFunc
	priceApplies []PriceAdjustmentFunc
	priceRemoves []PriceAdjustmentFunc
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnOptionCheck registers a subscriber for option availability checks.
func (r *Registry) OnOptionCheck(fn OptionCheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optionChecks = append(r.optionChecks, fn)
}

// OnPriceApply registers a subscriber that runs before option totals are
// applied to a cart item.
func (r *Registry) OnPriceApply(fn PriceAdjustmentFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.priceApplies = append(r.priceApplies, fn)
}

// OnPriceRemove registers a subscriber that runs before option totals are
// removed from a cart item.
func (r *Registry) OnPriceRemove(fn PriceAdjustmentFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.priceRemoves = append(r.priceRemoves, fn)
}

// DispatchOptionCheck runs all option check subscribers against check.
func (r *Registry) DispatchOptionCheck(ctx context.Context, check *OptionCheck) error {
	r.mu.RLock()
	subscribers := r.optionChecks
	r.mu.RUnlock()

	for i, fn := range subscribers {
		if err := fn(ctx, check); err != nil {
			return fmt.Errorf("option check subscriber %d: %w", i, err)
		}
	}
	return nil
}

// DispatchPriceApply runs all apply subscribers against adj.
func (r *Registry) DispatchPriceApply(ctx context.Context, adj *PriceAdjustment) error {
	r.mu.RLock()
	subscribers := r.priceApplies
	r.mu.RUnlock()

	for i, fn := range subscribers {
		if err := fn(ctx, adj); err != nil {
			return fmt.Errorf("price apply subscriber %d: %w", i, err)
		}
	}
	return nil
}

// DispatchPriceRemove runs all remove subscribers against adj.
func (r *Registry) DispatchPriceRemove(ctx context.Context, adj *PriceAdjustment) error {
	r.mu.RLock()
	subscribers := r.priceRemoves
	r.mu.RUnlock()

	for i, fn := range subscribers {
		if err := fn(ctx, adj); err != nil {
			return fmt.Errorf("price remove subscriber %d: %w", i, err)
		}
	}
	return nil
}
