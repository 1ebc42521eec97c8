package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestItem(t *testing.T, price string, quantity int) OrderItem {
	t.Helper()
	item, err := NewOrderItem(uuid.New(), "Test Product", MustMoney(price), quantity)
	if err != nil {
		t.Fatalf("NewOrderItem failed: %v", err)
	}
	return item
}

func TestNewOrderItem_Validation(t *testing.T) {
	if _, err := NewOrderItem(uuid.Nil, "p", MustMoney("1.00"), 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil product id: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewOrderItem(uuid.New(), "p", MustMoney("1.00"), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero quantity: expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewOrderItem_Subtotal(t *testing.T) {
	item := newTestItem(t, "7.25", 3)
	if item.Subtotal.String() != "21.75" {
		t.Errorf("expected subtotal 21.75, got %s", item.Subtotal)
	}
}

func TestNewOrder_Validation(t *testing.T) {
	item := newTestItem(t, "1.00", 1)

	if _, err := NewOrder("", []OrderItem{item}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("blank customer: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewOrder("customer-1", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("no items: expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewOrder_Total(t *testing.T) {
	items := []OrderItem{
		newTestItem(t, "12.50", 2),
		newTestItem(t, "7.25", 3),
	}

	order, err := NewOrder("customer-1", items)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}

	if order.TotalAmount.String() != "46.75" {
		t.Errorf("expected total 46.75, got %s", order.TotalAmount)
	}
	if order.Status != OrderStatusCreated {
		t.Errorf("expected status CREATED, got %s", order.Status)
	}
}

func TestNewOrder_OrderNumber(t *testing.T) {
	order, err := NewOrder("customer-1", []OrderItem{newTestItem(t, "1.00", 1)})
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}

	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Errorf("expected ORD- prefix, got %s", order.OrderNumber)
	}
	if len(order.OrderNumber) != len("ORD-")+8 {
		t.Errorf("expected 8-char suffix, got %s", order.OrderNumber)
	}
	if order.OrderNumber != strings.ToUpper(order.OrderNumber) {
		t.Errorf("expected uppercase order number, got %s", order.OrderNumber)
	}
}

func TestOrder_Pay(t *testing.T) {
	order, _ := NewOrder("customer-1", []OrderItem{newTestItem(t, "1.00", 1)})

	if err := order.Pay(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.IsPaid() {
		t.Errorf("expected PAID, got %s", order.Status)
	}

	// paying again is illegal
	err := order.Pay()
	if !errors.Is(err, ErrIllegalState) {
		t.Errorf("expected ErrIllegalState, got %v", err)
	}
	if !strings.Contains(err.Error(), "PAID") {
		t.Errorf("error should name the current status, got %q", err)
	}
}

func TestOrder_Cancel(t *testing.T) {
	// CREATED -> CANCELED
	order, _ := NewOrder("customer-1", []OrderItem{newTestItem(t, "1.00", 1)})
	if err := order.Cancel(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.IsCanceled() {
		t.Errorf("expected CANCELED, got %s", order.Status)
	}

	// canceling again is illegal
	if err := order.Cancel(); !errors.Is(err, ErrIllegalState) {
		t.Errorf("expected ErrIllegalState, got %v", err)
	}

	// PAID -> CANCELED is legal
	paid, _ := NewOrder("customer-1", []OrderItem{newTestItem(t, "1.00", 1)})
	if err := paid.Pay(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := paid.Cancel(); err != nil {
		t.Errorf("canceling a paid order should be legal, got %v", err)
	}

	// no transition out of CANCELED
	if err := paid.Pay(); !errors.Is(err, ErrIllegalState) {
		t.Errorf("expected ErrIllegalState, got %v", err)
	}
}

func TestOrder_TotalRecomputed(t *testing.T) {
	// A reconstituted order may arrive without a cached total.
	order := &Order{
		Items: []OrderItem{newTestItem(t, "2.00", 2)},
	}
	if got := order.Total().String(); got != "4.00" {
		t.Errorf("expected recomputed total 4.00, got %s", got)
	}
}
