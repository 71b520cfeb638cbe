package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/pkg/database"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

const categoryColumns = `id, title, locale, is_visible, created_at, updated_at`

// CategoryRepository implements category persistence using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category into the database.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (id, title, locale, is_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Locale,
		c.IsVisible,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "title", c.Title)
		}
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

// GetByTitle retrieves a category by its localized title.
func (r *CategoryRepository) GetByTitle(ctx context.Context, title, locale string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE title = $1 AND locale = $2`, categoryColumns)
	return r.scanCategory(ctx, query, title, locale)
}

// GetByID retrieves a category by its unique identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)
	return r.scanCategory(ctx, query, id)
}

func (r *CategoryRepository) scanCategory(ctx context.Context, query string, args ...any) (*domain.Category, error) {
	var c domain.Category

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.Title,
		&c.Locale,
		&c.IsVisible,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	return &c, nil
}
