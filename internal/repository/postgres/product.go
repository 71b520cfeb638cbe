package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/repository"
	"github.com/Bbachelard/Option/pkg/database"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

// productColumns is the standard SELECT column list for products.
const productColumns = `id, ref, title, is_online, tax_rule_id, created_at, updated_at`

// ProductRepository implements catalog product persistence using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, ref, title, is_online, tax_rule_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Ref,
		p.Title,
		p.IsOnline,
		p.TaxRuleID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "ref", p.Ref)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its unique identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Ref,
		&p.Title,
		&p.IsOnline,
		&p.TaxRuleID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// ListByIDs retrieves products for the given identifiers. Missing ids are
// silently skipped; input order is preserved for ids that exist.
func (r *ProductRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Product, len(ids))

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Ref,
			&p.Title,
			&p.IsOnline,
			&p.TaxRuleID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		byID[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	products := make([]domain.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}

	return products, nil
}

// GetDefaultPrice returns the default sale price record of a product.
func (r *ProductRepository) GetDefaultPrice(ctx context.Context, productID string) (*domain.ProductPrice, error) {
	var price domain.ProductPrice

	err := r.pool.QueryRow(ctx, `
		SELECT product_id, price, promo_price, is_promo, currency
		FROM product_prices
		WHERE product_id = $1 AND is_default = true`, productID,
	).Scan(
		&price.ProductID,
		&price.Price,
		&price.PromoPrice,
		&price.IsPromo,
		&price.Currency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product price: %w", err)
	}

	return &price, nil
}

// ListOptionRows returns the admin options table rows: every product that is
// referenced as an option by at least one association, with its default price.
func (r *ProductRepository) ListOptionRows(ctx context.Context, filter repository.OptionFilter) ([]domain.OptionListRow, int, error) {
	where := `WHERE p.id IN (SELECT DISTINCT option_id FROM product_options)`
	args := []any{}
	argPos := 1

	if filter.Search != nil && *filter.Search != "" {
		where += fmt.Sprintf(` AND (p.title ILIKE $%d OR p.ref ILIKE $%d)`, argPos, argPos)
		args = append(args, "%"+*filter.Search+"%")
		argPos++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products p ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count option rows: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.title, p.ref, COALESCE(pp.price, 0), p.is_online
		FROM products p
		LEFT JOIN product_prices pp ON pp.product_id = p.id AND pp.is_default = true
		%s
		ORDER BY p.title
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)

	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list option rows: %w", err)
	}
	defer rows.Close()

	var out []domain.OptionListRow

	for rows.Next() {
		var row domain.OptionListRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Ref, &row.Price, &row.IsOnline); err != nil {
			return nil, 0, fmt.Errorf("scan option row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate option rows: %w", err)
	}

	if out == nil {
		out = []domain.OptionListRow{}
	}

	return out, total, nil
}

// Update modifies an existing product and returns the number of rows affected.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (int64, error) {
	p.UpdatedAt = time.Now().UTC()

	ct, err := r.pool.Exec(ctx, `
		UPDATE products
		SET ref = $1, title = $2, is_online = $3, tax_rule_id = $4, updated_at = $5
		WHERE id = $6`,
		p.Ref, p.Title, p.IsOnline, p.TaxRuleID, p.UpdatedAt, p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.AlreadyExists("product", "ref", p.Ref)
		}
		return 0, fmt.Errorf("update product: %w", err)
	}

	return ct.RowsAffected(), nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}
