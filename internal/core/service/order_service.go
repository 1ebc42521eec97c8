package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storefront/internal/core/domain"
	"storefront/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrOrderCreation    = errors.New("order creation failed")
)

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderRequest carries everything needed to create one order.
// RequestID is optional; when present it fences retries idempotently.
type CreateOrderRequest struct {
	RequestID  string
	CustomerID string
	Items      []ItemRequest
}

// OrderService drives order creation and the order lifecycle.
type OrderService struct {
	orders       port.OrderRepository
	products     port.ProductRepository
	reservations port.ReservationStore
	discounts    port.DiscountProvider
	shipping     port.ShippingProvider
	inventory    *InventoryService
	logger       zerolog.Logger
}

func NewOrderService(
	orders port.OrderRepository,
	products port.ProductRepository,
	reservations port.ReservationStore,
	discounts port.DiscountProvider,
	shipping port.ShippingProvider,
	inventory *InventoryService,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:       orders,
		products:     products,
		reservations: reservations,
		discounts:    discounts,
		shipping:     shipping,
		inventory:    inventory,
		logger:       logger.With().Str("component", "orders").Logger(),
	}
}

// CreateOrder validates the request against live inventory, enriches it with
// concurrently fetched quotes, and persists the order atomically.
//
// The three lookups (product batch, discount quote, shipping quote) start
// together; the first failure cancels the siblings and fails the creation.
// Stock is validated here but decremented only at payment.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if req.RequestID != "" {
		ok, err := s.reservations.SetIdempotency(ctx, "order:create:"+req.RequestID)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must have at least one item", domain.ErrInvalidArgument)
	}
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
		}
		productIDs = append(productIDs, item.ProductID)
	}

	var (
		productsByID map[uuid.UUID]*domain.Product
		discountPct  float64
		shippingCost float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.products.FindAllByID(gctx, productIDs)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		productsByID = loaded
		return nil
	})
	g.Go(func() error {
		pct, err := s.discounts.Quote(gctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("discount quote: %w", err)
		}
		discountPct = pct
		return nil
	})
	g.Go(func() error {
		cost, err := s.shipping.Quote(gctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("shipping quote: %w", err)
		}
		shippingCost = cost
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("customer_id", req.CustomerID).Msg("order enrichment failed")
		return nil, fmt.Errorf("%w: %v", ErrOrderCreation, err)
	}

	if err := s.inventory.ValidateAvailability(productsByID, req.Items); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, r := range req.Items {
		product := productsByID[r.ProductID]
		item, err := domain.NewOrderItem(product.ID, product.Name, product.Price, r.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, err := domain.NewOrder(req.CustomerID, items)
	if err != nil {
		return nil, err
	}
	// Quotes are advisory: recorded on the order, never applied to the total.
	order.DiscountPct = discountPct
	order.ShippingEstimate = shippingCost

	if err := s.holdStock(ctx, order); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseHolds(ctx, order)
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to persist order")
		return nil, fmt.Errorf("%w: %v", ErrOrderCreation, err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("customer_id", order.CustomerID).
		Str("total", order.TotalAmount.String()).
		Float64("discount_pct", discountPct).
		Float64("shipping_estimate", shippingCost).
		Msg("order created")
	return order, nil
}

// holdStock places a soft hold per line, rolling back on partial failure.
// Holds narrow the window between validation and the payment-time decrement;
// the conditional update at payment remains the hard guarantee.
func (s *OrderService) holdStock(ctx context.Context, order *domain.Order) error {
	for i, item := range order.Items {
		ok, err := s.reservations.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.releaseHeld(ctx, order.Items[:i])
			return fmt.Errorf("%w: reserve stock: %v", ErrOrderCreation, err)
		}
		if !ok {
			s.releaseHeld(ctx, order.Items[:i])
			return fmt.Errorf("%w: product %s is held by concurrent orders",
				domain.ErrInsufficientStock, item.ProductName)
		}
	}
	return nil
}

func (s *OrderService) releaseHolds(ctx context.Context, order *domain.Order) {
	s.releaseHeld(ctx, order.Items)
}

func (s *OrderService) releaseHeld(ctx context.Context, items []domain.OrderItem) {
	for _, item := range items {
		if err := s.reservations.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Warn().Err(err).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("failed to release stock hold")
		}
	}
}

// PayOrder transitions a CREATED order to PAID, decrementing stock for every
// item in the same transaction. Nothing is committed if any decrement fails.
func (s *OrderService) PayOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.Pay(); err != nil {
		return nil, err
	}

	adjustments := s.inventory.DecrementForPayment(order)
	if err := s.orders.UpdateWithStock(ctx, order, adjustments); err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order paid")
	return order, nil
}

// CancelOrder transitions a CREATED or PAID order to CANCELED. Paid orders
// get their stock restored in the same transaction; never-paid orders
// reserved nothing, so only their soft holds are released.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	wasPaid := order.IsPaid()
	if err := order.Cancel(); err != nil {
		return nil, err
	}

	var adjustments []port.StockAdjustment
	if wasPaid {
		adjustments = s.inventory.RestoreForCancellation(order)
	}
	if err := s.orders.UpdateWithStock(ctx, order, adjustments); err != nil {
		return nil, err
	}

	// Keep the availability counters in line with the store: a canceled
	// CREATED order gives back its holds, a canceled PAID order regains the
	// restored stock.
	s.releaseHolds(ctx, order)

	s.logger.Info().Str("order_id", id.String()).Bool("was_paid", wasPaid).Msg("order canceled")
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, domain.NewNotFoundError("order", id)
	}
	return order, nil
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("find order by number: %w", err)
	}
	if order == nil {
		return nil, &domain.NotFoundError{Resource: "order", ID: orderNumber}
	}
	return order, nil
}

func (s *OrderService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	return s.orders.ListByStatus(ctx, status, limit, offset)
}

func (s *OrderService) ListOrdersByCreatedRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*domain.Order, error) {
	return s.orders.ListByCreatedRange(ctx, from, to, limit, offset)
}
