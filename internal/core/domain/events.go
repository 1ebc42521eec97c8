package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockLowEvent records the fact that a product's stock was below the scan
// threshold. Fire-and-forget; at-least-once delivery is acceptable.
type StockLowEvent struct {
	ProductID    uuid.UUID
	ProductName  string
	CurrentStock int
	Threshold    int
	OccurredAt   time.Time
}

func NewStockLowEvent(product *Product, threshold int) StockLowEvent {
	return StockLowEvent{
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.StockQuantity,
		Threshold:    threshold,
		OccurredAt:   time.Now(),
	}
}
