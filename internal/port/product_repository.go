package port

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/core/domain"
)

type ProductRepository interface {
	// Save inserts the product or updates it by id.
	Save(ctx context.Context, product *domain.Product) error

	// FindByID returns nil, nil when no product exists.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// FindAllByID batch-loads products; ids missing from the catalog are
	// simply absent from the result map.
	FindAllByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)

	// FindBySKU returns nil, nil when no product exists.
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)

	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// FindLowStock returns products with stock strictly below threshold.
	FindLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)

	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
}
