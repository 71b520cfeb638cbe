package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/pkg/database"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

// productOptionColumns is the standard SELECT column list for associations.
const productOptionColumns = `id, product_id, option_id, price, promo_price,
	is_promo, source, created_at, updated_at`

// ProductOptionRepository implements association persistence using PostgreSQL.
type ProductOptionRepository struct {
	pool database.DBTX
}

// NewProductOptionRepository creates a new PostgreSQL-backed association repository.
func NewProductOptionRepository(pool database.DBTX) *ProductOptionRepository {
	return &ProductOptionRepository{pool: pool}
}

// Attach creates the association if it does not exist. The insert is
// idempotent: a second attach of the same pair leaves the existing row
// untouched and returns it.
func (r *ProductOptionRepository) Attach(ctx context.Context, productID, optionID, source string) (*domain.ProductOption, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO product_options (id, product_id, option_id, is_promo, source, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $5, $5)
		ON CONFLICT (product_id, option_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, uuid.New().String(), productID, optionID, source, now)
	if err != nil {
		return nil, fmt.Errorf("attach option: %w", err)
	}

	return r.GetByProductAndOption(ctx, productID, optionID)
}

// GetByID retrieves an association by its unique identifier.
func (r *ProductOptionRepository) GetByID(ctx context.Context, id string) (*domain.ProductOption, error) {
	query := fmt.Sprintf(`SELECT %s FROM product_options WHERE id = $1`, productOptionColumns)
	return r.scanProductOption(ctx, query, id)
}

// GetByProductAndOption retrieves the association for a (product, option) pair.
func (r *ProductOptionRepository) GetByProductAndOption(ctx context.Context, productID, optionID string) (*domain.ProductOption, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM product_options WHERE product_id = $1 AND option_id = $2`,
		productOptionColumns,
	)
	return r.scanProductOption(ctx, query, productID, optionID)
}

// ListByProduct returns all associations owned by the given product, oldest first.
func (r *ProductOptionRepository) ListByProduct(ctx context.Context, productID string) ([]domain.ProductOption, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM product_options
		WHERE product_id = $1
		ORDER BY created_at`, productOptionColumns)

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list product options: %w", err)
	}
	defer rows.Close()

	var options []domain.ProductOption

	for rows.Next() {
		var po domain.ProductOption
		if err := scanProductOptionRow(rows, &po); err != nil {
			return nil, fmt.Errorf("scan product option row: %w", err)
		}
		options = append(options, po)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product option rows: %w", err)
	}

	if options == nil {
		options = []domain.ProductOption{}
	}

	return options, nil
}

// UpsertPrice creates or updates the price override of a (product, option)
// pair. is_promo follows the presence of a promo price.
func (r *ProductOptionRepository) UpsertPrice(ctx context.Context, productID, optionID string, price, promoPrice *int64) (*domain.ProductOption, error) {
	now := time.Now().UTC()
	isPromo := promoPrice != nil

	query := fmt.Sprintf(`
		INSERT INTO product_options (id, product_id, option_id, price, promo_price, is_promo, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (product_id, option_id) DO UPDATE
		SET price = EXCLUDED.price,
		    promo_price = EXCLUDED.promo_price,
		    is_promo = EXCLUDED.is_promo,
		    updated_at = EXCLUDED.updated_at
		RETURNING %s`, productOptionColumns)

	var po domain.ProductOption

	err := r.pool.QueryRow(ctx, query,
		uuid.New().String(),
		productID,
		optionID,
		price,
		promoPrice,
		isPromo,
		domain.SourceAddedByProduct,
		now,
	).Scan(
		&po.ID,
		&po.ProductID,
		&po.OptionID,
		&po.Price,
		&po.PromoPrice,
		&po.IsPromo,
		&po.Source,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert option price: %w", err)
	}

	return &po, nil
}

// Detach removes an association by its identifier.
func (r *ProductOptionRepository) Detach(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_options WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("detach option: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product option", id)
	}

	return nil
}

// DeleteByProduct removes every association owned by the given product.
func (r *ProductOptionRepository) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_options WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete options by product: %w", err)
	}
	return ct.RowsAffected(), nil
}

// DeleteByOption removes every association referencing the given option.
func (r *ProductOptionRepository) DeleteByOption(ctx context.Context, optionID string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_options WHERE option_id = $1`, optionID)
	if err != nil {
		return 0, fmt.Errorf("delete options by option: %w", err)
	}
	return ct.RowsAffected(), nil
}

// scanProductOption executes a query expected to return a single association row.
func (r *ProductOptionRepository) scanProductOption(ctx context.Context, query string, args ...any) (*domain.ProductOption, error) {
	var po domain.ProductOption

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&po.ID,
		&po.ProductID,
		&po.OptionID,
		&po.Price,
		&po.PromoPrice,
		&po.IsPromo,
		&po.Source,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product option: %w", err)
	}

	return &po, nil
}

// scanProductOptionRow scans a single row from a rows iterator.
func scanProductOptionRow(rows pgx.Rows, po *domain.ProductOption) error {
	return rows.Scan(
		&po.ID,
		&po.ProductID,
		&po.OptionID,
		&po.Price,
		&po.PromoPrice,
		&po.IsPromo,
		&po.Source,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
