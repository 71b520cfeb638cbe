package repository

import (
	"context"

	"github.com/Bbachelard/Option/internal/domain"
)

// OptionFilter defines filter criteria for the admin options list.
type OptionFilter struct {
	Search  *string
	Page    int
	PerPage int
}

// ProductOptionRepository defines persistence operations for product/option
// associations.
type ProductOptionRepository interface {
	// Attach creates the association if it does not exist and returns the row.
	// Attaching an already attached pair returns the existing row unchanged.
	Attach(ctx context.Context, productID, optionID, source string) (*domain.ProductOption, error)

	// GetByID retrieves an association by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.ProductOption, error)

	// GetByProductAndOption retrieves the association for a (product, option) pair.
	GetByProductAndOption(ctx context.Context, productID, optionID string) (*domain.ProductOption, error)

	// ListByProduct returns all associations owned by the given product.
	ListByProduct(ctx context.Context, productID string) ([]domain.ProductOption, error)

	// UpsertPrice creates or updates the price override of a (product, option)
	// pair. is_promo is derived from the presence of promoPrice.
	UpsertPrice(ctx context.Context, productID, optionID string, price, promoPrice *int64) (*domain.ProductOption, error)

	// Detach removes an association by its identifier.
	Detach(ctx context.Context, id string) error

	// DeleteByProduct removes every association owned by the given product.
	DeleteByProduct(ctx context.Context, productID string) (int64, error)

	// DeleteByOption removes every association referencing the given option.
	DeleteByOption(ctx context.Context, optionID string) (int64, error)
}

// OptionSelectionRepository defines persistence operations for per-cart-item
// option selections.
type OptionSelectionRepository interface {
	// Upsert creates the selection or, when a row already exists for the
	// (cart_item_id, product_option_id) pair, replaces its payload and quantity.
	Upsert(ctx context.Context, sel *domain.OptionSelection) (*domain.OptionSelection, error)

	// ListByCartItem returns all selections recorded for a cart item.
	ListByCartItem(ctx context.Context, cartItemID string) ([]domain.OptionSelection, error)

	// CountByProductOption returns how many selections reference the given
	// association. Used as the default in-use check before detach.
	CountByProductOption(ctx context.Context, productOptionID string) (int, error)

	// DeleteByCartItem removes all selections for a cart item.
	DeleteByCartItem(ctx context.Context, cartItemID string) (int64, error)
}

// CartItemRepository defines the cart line operations the reconciler needs.
type CartItemRepository interface {
	// GetByID retrieves a cart item by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.CartItem, error)

	// UpdatePrices persists new unit prices for a cart item.
	UpdatePrices(ctx context.Context, id string, price, promoPrice int64) error
}

// ProductRepository defines catalog operations for products and their prices.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// ListByIDs retrieves products for the given identifiers, preserving only
	// rows that exist.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	// GetDefaultPrice returns the default sale price record of a product, or
	// ErrNotFound when the product has no price record.
	GetDefaultPrice(ctx context.Context, productID string) (*domain.ProductPrice, error)

	// ListOptionRows returns the admin options table rows together with the
	// total row count.
	ListOptionRows(ctx context.Context, filter OptionFilter) ([]domain.OptionListRow, int, error)

	// Update modifies an existing product. Returns the number of rows affected.
	Update(ctx context.Context, product *domain.Product) (int64, error)

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines operations for the option category bootstrap.
type CategoryRepository interface {
	// Create inserts a new category.
	Create(ctx context.Context, category *domain.Category) error

	// GetByTitle retrieves a category by its localized title.
	GetByTitle(ctx context.Context, title, locale string) (*domain.Category, error)

	// GetByID retrieves a category by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

// SettingRepository is a key/value store for service settings, such as the
// configured option category id.
type SettingRepository interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// AvailableOptionsCache caches the raw available option set per product,
// before any validity filtering.
type AvailableOptionsCache interface {
	// Get returns the cached option products for a product, or a miss.
	Get(ctx context.Context, productID string) ([]domain.Product, bool, error)

	// Set caches the option products for a product.
	Set(ctx context.Context, productID string, options []domain.Product) error

	// Invalidate drops the cached entry for a product.
	Invalidate(ctx context.Context, productID string) error
}
