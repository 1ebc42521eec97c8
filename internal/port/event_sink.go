package port

import (
	"context"

	"storefront/internal/core/domain"
)

// EventSink consumes low-stock notifications. Fire-and-forget; a failed
// publish never fails the scan that produced it.
type EventSink interface {
	Publish(ctx context.Context, event domain.StockLowEvent) error
}
