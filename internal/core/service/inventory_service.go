package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/core/domain"
	"storefront/internal/port"
)

// InventoryService validates requested quantities against live stock,
// derives the stock side-effects of order lifecycle transitions, and scans
// for low-stock products.
type InventoryService struct {
	products port.ProductRepository
	sink     port.EventSink
	logger   zerolog.Logger
}

func NewInventoryService(products port.ProductRepository, sink port.EventSink, logger zerolog.Logger) *InventoryService {
	return &InventoryService{
		products: products,
		sink:     sink,
		logger:   logger.With().Str("component", "inventory").Logger(),
	}
}

// ValidateAvailability checks every requested line against the loaded batch.
// Stock is only validated here, never decremented; the decrement happens at
// payment time.
func (s *InventoryService) ValidateAvailability(productsByID map[uuid.UUID]*domain.Product, requests []ItemRequest) error {
	for _, req := range requests {
		product, ok := productsByID[req.ProductID]
		if !ok {
			return domain.NewNotFoundError("product", req.ProductID)
		}
		if product.StockQuantity < req.Quantity {
			return &domain.InsufficientStockError{
				ProductName: product.Name,
				Available:   product.StockQuantity,
				Requested:   req.Quantity,
			}
		}
	}
	return nil
}

// DecrementForPayment returns the stock adjustments payment must commit:
// one decrement per item by its quantity.
func (s *InventoryService) DecrementForPayment(order *domain.Order) []port.StockAdjustment {
	adjustments := make([]port.StockAdjustment, 0, len(order.Items))
	for _, item := range order.Items {
		adjustments = append(adjustments, port.StockAdjustment{
			ProductID: item.ProductID,
			Delta:     -item.Quantity,
		})
	}
	return adjustments
}

// RestoreForCancellation returns the stock adjustments that undo a paid
// order's decrements.
func (s *InventoryService) RestoreForCancellation(order *domain.Order) []port.StockAdjustment {
	adjustments := make([]port.StockAdjustment, 0, len(order.Items))
	for _, item := range order.Items {
		adjustments = append(adjustments, port.StockAdjustment{
			ProductID: item.ProductID,
			Delta:     item.Quantity,
		})
	}
	return adjustments
}

// ScanLowStock returns one event per product currently below threshold.
// The caller decides where the events go.
func (s *InventoryService) ScanLowStock(ctx context.Context, threshold int) ([]domain.StockLowEvent, error) {
	products, err := s.products.FindLowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("find low stock products: %w", err)
	}

	events := make([]domain.StockLowEvent, 0, len(products))
	for _, product := range products {
		events = append(events, domain.NewStockLowEvent(product, threshold))
	}
	return events, nil
}

// PublishLowStock runs a scan and forwards every event to the sink. This is
// the operation the external scheduling trigger invokes. Returns the number
// of events emitted.
func (s *InventoryService) PublishLowStock(ctx context.Context, threshold int) (int, error) {
	events, err := s.ScanLowStock(ctx, threshold)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		s.logger.Info().Int("threshold", threshold).Msg("no low stock products found")
		return 0, nil
	}

	s.logger.Warn().Int("count", len(events)).Int("threshold", threshold).Msg("low stock products found")
	for _, event := range events {
		if err := s.sink.Publish(ctx, event); err != nil {
			// At-least-once, fire-and-forget: a failed publish never fails
			// the scan.
			s.logger.Error().Err(err).
				Str("product_id", event.ProductID.String()).
				Msg("failed to publish low stock event")
		}
	}
	return len(events), nil
}
