package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/pkg/database"
)

// selectionColumns is the standard SELECT column list for option selections.
const selectionColumns = `id, cart_item_id, product_option_id, price,
	taxed_price, quantity, customization_data, created_at, updated_at`

// OptionSelectionRepository implements selection persistence using PostgreSQL.
type OptionSelectionRepository struct {
	pool database.DBTX
}

// NewOptionSelectionRepository creates a new PostgreSQL-backed selection repository.
func NewOptionSelectionRepository(pool database.DBTX) *OptionSelectionRepository {
	return &OptionSelectionRepository{pool: pool}
}

// Upsert creates the selection or replaces the payload and quantity of the
// existing row for the (cart_item_id, product_option_id) pair. Price snapshots
// are written on insert only and never updated afterwards.
func (r *OptionSelectionRepository) Upsert(ctx context.Context, sel *domain.OptionSelection) (*domain.OptionSelection, error) {
	now := time.Now().UTC()

	payload, err := json.Marshal(sel.CustomizationData)
	if err != nil {
		return nil, fmt.Errorf("marshal customization data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO option_selections (id, cart_item_id, product_option_id, price,
			taxed_price, quantity, customization_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (cart_item_id, product_option_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    customization_data = EXCLUDED.customization_data,
		    updated_at = EXCLUDED.updated_at
		RETURNING %s`, selectionColumns)

	var out domain.OptionSelection
	var rawPayload []byte

	err = r.pool.QueryRow(ctx, query,
		uuid.New().String(),
		sel.CartItemID,
		sel.ProductOptionID,
		sel.Price,
		sel.TaxedPrice,
		sel.Quantity,
		payload,
		now,
	).Scan(
		&out.ID,
		&out.CartItemID,
		&out.ProductOptionID,
		&out.Price,
		&out.TaxedPrice,
		&out.Quantity,
		&rawPayload,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert option selection: %w", err)
	}

	if err := unmarshalCustomization(rawPayload, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ListByCartItem returns all selections recorded for a cart item, oldest first.
func (r *OptionSelectionRepository) ListByCartItem(ctx context.Context, cartItemID string) ([]domain.OptionSelection, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM option_selections
		WHERE cart_item_id = $1
		ORDER BY created_at`, selectionColumns)

	rows, err := r.pool.Query(ctx, query, cartItemID)
	if err != nil {
		return nil, fmt.Errorf("list option selections: %w", err)
	}
	defer rows.Close()

	var selections []domain.OptionSelection

	for rows.Next() {
		var sel domain.OptionSelection
		var rawPayload []byte

		if err := rows.Scan(
			&sel.ID,
			&sel.CartItemID,
			&sel.ProductOptionID,
			&sel.Price,
			&sel.TaxedPrice,
			&sel.Quantity,
			&rawPayload,
			&sel.CreatedAt,
			&sel.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan option selection row: %w", err)
		}

		if err := unmarshalCustomization(rawPayload, &sel); err != nil {
			return nil, err
		}

		selections = append(selections, sel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate option selection rows: %w", err)
	}

	if selections == nil {
		selections = []domain.OptionSelection{}
	}

	return selections, nil
}

// CountByProductOption returns how many selections reference the given association.
func (r *OptionSelectionRepository) CountByProductOption(ctx context.Context, productOptionID string) (int, error) {
	var count int

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM option_selections WHERE product_option_id = $1`,
		productOptionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count selections by product option: %w", err)
	}

	return count, nil
}

// DeleteByCartItem removes all selections for a cart item.
func (r *OptionSelectionRepository) DeleteByCartItem(ctx context.Context, cartItemID string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM option_selections WHERE cart_item_id = $1`, cartItemID)
	if err != nil {
		return 0, fmt.Errorf("delete selections by cart item: %w", err)
	}
	return ct.RowsAffected(), nil
}

func unmarshalCustomization(raw []byte, sel *domain.OptionSelection) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &sel.CustomizationData); err != nil {
		return fmt.Errorf("unmarshal customization data: %w", err)
	}
	return nil
}
