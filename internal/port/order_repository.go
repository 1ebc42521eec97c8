package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/internal/core/domain"
)

// StockAdjustment is a signed stock change applied atomically with an order
// status update. Negative deltas are conditional on sufficient stock.
type StockAdjustment struct {
	ProductID uuid.UUID
	Delta     int
}

type OrderRepository interface {
	// Create persists the order and its items as one atomic unit.
	Create(ctx context.Context, order *domain.Order) error

	// FindByID returns nil, nil when no order exists.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)

	// FindByOrderNumber returns nil, nil when no order exists.
	FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)

	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error)

	ListByCreatedRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*domain.Order, error)

	// UpdateWithStock commits the order's current status together with the
	// given stock adjustments in a single transaction. A negative delta that
	// cannot be satisfied fails the whole commit with
	// domain.InsufficientStockError; a missing product fails it with
	// domain.NotFoundError.
	UpdateWithStock(ctx context.Context, order *domain.Order, adjustments []StockAdjustment) error
}
