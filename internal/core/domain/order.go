package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "CREATED"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// OrderItem is a point-in-time snapshot of a product at order time. It is
// immutable once created and decoupled from later price changes.
type OrderItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   Money
	Quantity    int
	Subtotal    Money
}

func NewOrderItem(productID uuid.UUID, productName string, unitPrice Money, quantity int) (OrderItem, error) {
	if productID == uuid.Nil {
		return OrderItem{}, fmt.Errorf("%w: product ID cannot be empty", ErrInvalidArgument)
	}
	if quantity <= 0 {
		return OrderItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	return OrderItem{
		ID:          uuid.New(),
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Subtotal:    unitPrice.Multiply(quantity),
	}, nil
}

// Order is the aggregate root over its items. Items are fixed at creation;
// the order mutates only through Pay and Cancel.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	Items       []OrderItem
	TotalAmount Money
	Status      OrderStatus
	CustomerID  string

	// Advisory enrichment results recorded at creation. Never applied to
	// TotalAmount.
	DiscountPct      float64
	ShippingEstimate float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(customerID string, items []OrderItem) (*Order, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customer ID cannot be empty", ErrInvalidArgument)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must have at least one item", ErrInvalidArgument)
	}
	id := uuid.New()
	now := time.Now()
	o := &Order{
		ID:          id,
		OrderNumber: orderNumber(id),
		Items:       append([]OrderItem(nil), items...),
		Status:      OrderStatusCreated,
		CustomerID:  customerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.TotalAmount = o.calculateTotal()
	return o, nil
}

func orderNumber(id uuid.UUID) string {
	return "ORD-" + strings.ToUpper(id.String()[:8])
}

func (o *Order) calculateTotal() Money {
	total := Zero()
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// Total returns the cached total, recomputing it when the order was
// reconstituted without one.
func (o *Order) Total() Money {
	if o.TotalAmount.IsZero() && len(o.Items) > 0 {
		o.TotalAmount = o.calculateTotal()
	}
	return o.TotalAmount
}

func (o *Order) Pay() error {
	if o.Status != OrderStatusCreated {
		return fmt.Errorf("%w: cannot pay order with status: %s", ErrIllegalState, o.Status)
	}
	o.Status = OrderStatusPaid
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) Cancel() error {
	if o.Status == OrderStatusCanceled {
		return fmt.Errorf("%w: order is already canceled", ErrIllegalState)
	}
	o.Status = OrderStatusCanceled
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) IsCreated() bool  { return o.Status == OrderStatusCreated }
func (o *Order) IsPaid() bool     { return o.Status == OrderStatusPaid }
func (o *Order) IsCanceled() bool { return o.Status == OrderStatusCanceled }
