package service

import (
	"context"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/repository"
)

// ProductLifecycle drives the catalog side of option create/update/delete.
// Option products are ordinary catalog products; this boundary keeps the
// option service independent of how the catalog persists them.
type ProductLifecycle interface {
	// CreateProduct inserts a new catalog product.
	CreateProduct(ctx context.Context, product *domain.Product) error

	// UpdateProduct modifies a catalog product and reports how many rows were
	// affected. Zero means no product was updated.
	UpdateProduct(ctx context.Context, product *domain.Product) (int64, error)

	// DeleteProduct removes a catalog product.
	DeleteProduct(ctx context.Context, id string) error
}

// RepositoryLifecycle implements ProductLifecycle directly on the product
// repository.
type RepositoryLifecycle struct {
	products repository.ProductRepository
}

// NewRepositoryLifecycle creates a lifecycle backed by the product repository.
func NewRepositoryLifecycle(products repository.ProductRepository) *RepositoryLifecycle {
	return &RepositoryLifecycle{products: products}
}

// CreateProduct inserts the product.
func (l *RepositoryLifecycle) CreateProduct(ctx context.Context, product *domain.Product) error {
	return l.products.Create(ctx, product)
}

// UpdateProduct updates the product and returns the affected row count.
func (l *RepositoryLifecycle) UpdateProduct(ctx context.Context, product *domain.Product) (int64, error) {
	return l.products.Update(ctx, product)
}

// DeleteProduct removes the product.
func (l *RepositoryLifecycle) DeleteProduct(ctx context.Context, id string) error {
	return l.products.Delete(ctx, id)
}

// InUseChecker reports whether an association is still referenced and must not
// be detached without force.
type InUseChecker interface {
	InUse(ctx context.Context, associationID string) (bool, error)
}

// SelectionInUseChecker treats an association as in use while any cart item
// selection references it.
type SelectionInUseChecker struct {
	selections repository.OptionSelectionRepository
}

// NewSelectionInUseChecker creates the default in-use checker.
func NewSelectionInUseChecker(selections repository.OptionSelectionRepository) *SelectionInUseChecker {
	return &SelectionInUseChecker{selections: selections}
}

// InUse reports whether any selection references the association.
func (c *SelectionInUseChecker) InUse(ctx context.Context, associationID string) (bool, error) {
	count, err := c.selections.CountByProductOption(ctx, associationID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
