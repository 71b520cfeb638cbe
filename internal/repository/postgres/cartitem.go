package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/pkg/database"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

// CartItemRepository implements cart line persistence using PostgreSQL.
type CartItemRepository struct {
	pool database.DBTX
}

// NewCartItemRepository creates a new PostgreSQL-backed cart item repository.
func NewCartItemRepository(pool database.DBTX) *CartItemRepository {
	return &CartItemRepository{pool: pool}
}

// GetByID retrieves a cart item by its unique identifier.
func (r *CartItemRepository) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	var item domain.CartItem

	err := r.pool.QueryRow(ctx, `
		SELECT id, cart_id, product_id, quantity, price, promo_price, created_at, updated_at
		FROM cart_items
		WHERE id = $1`, id,
	).Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.Price,
		&item.PromoPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan cart item: %w", err)
	}

	return &item, nil
}

// UpdatePrices persists new unit prices for a cart item.
func (r *CartItemRepository) UpdatePrices(ctx context.Context, id string, price, promoPrice int64) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE cart_items
		SET price = $1, promo_price = $2, updated_at = $3
		WHERE id = $4`,
		price, promoPrice, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update cart item prices: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart item", id)
	}

	return nil
}
