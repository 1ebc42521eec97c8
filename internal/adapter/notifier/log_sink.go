// Package notifier contains event sink implementations for low-stock alerts.
package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"storefront/internal/core/domain"
)

// LogSink writes each low-stock event as a structured WARN record. In a
// larger deployment this is where an email gateway or purchasing system
// would hang off the same port.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "low-stock-alerts").Logger()}
}

func (s *LogSink) Publish(_ context.Context, event domain.StockLowEvent) error {
	s.logger.Warn().
		Str("product_id", event.ProductID.String()).
		Str("product_name", event.ProductName).
		Int("current_stock", event.CurrentStock).
		Int("threshold", event.Threshold).
		Time("occurred_at", event.OccurredAt).
		Msg("low stock detected")
	return nil
}
