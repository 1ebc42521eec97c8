package port

import "context"

// DiscountProvider quotes a discount percentage for a customer. Quotes are
// advisory and may be slow; implementations must honor ctx cancellation.
type DiscountProvider interface {
	Quote(ctx context.Context, customerID string) (float64, error)
}

// ShippingProvider quotes a shipping cost estimate for a customer.
type ShippingProvider interface {
	Quote(ctx context.Context, customerID string) (float64, error)
}
