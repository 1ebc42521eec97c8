package port

import (
	"context"

	"github.com/google/uuid"
)

// ReservationStore tracks soft stock holds between order creation and
// payment, plus idempotency fencing for creation requests. Holds are
// advisory: the transactional decrement at payment time is the hard
// oversell guarantee.
type ReservationStore interface {
	// Reserve places a hold on quantity units. It returns false when the
	// tracked availability is insufficient. Products without a seeded
	// counter are not constrained.
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)

	// Release returns held units, e.g. on failed persistence or
	// cancellation.
	Release(ctx context.Context, productID uuid.UUID, quantity int) error

	// SetIdempotency sets a fencing key, returning false if it already
	// exists.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// SyncAvailable seeds or resets the availability counter for a product.
	SyncAvailable(ctx context.Context, productID uuid.UUID, available int) error
}
