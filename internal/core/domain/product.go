package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is the catalog aggregate. Stock never goes negative; all stock
// mutations go through the named operations below.
type Product struct {
	ID            uuid.UUID
	Name          string
	SKU           string
	Price         Money
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewProduct(name, sku string, price Money, initialStock int) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: product name cannot be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(sku) == "" {
		return nil, fmt.Errorf("%w: product SKU cannot be empty", ErrInvalidArgument)
	}
	if initialStock < 0 {
		return nil, fmt.Errorf("%w: initial stock cannot be negative", ErrInvalidArgument)
	}
	now := time.Now()
	return &Product{
		ID:            uuid.New(),
		Name:          name,
		SKU:           sku,
		Price:         price,
		StockQuantity: initialStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Restock is the administrative replenishment operation.
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: restock quantity must be positive", ErrInvalidArgument)
	}
	p.StockQuantity += quantity
	p.UpdatedAt = time.Now()
	return nil
}

// IncreaseStock returns previously reserved units, e.g. when a paid order is
// canceled.
func (p *Product) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	p.StockQuantity += quantity
	p.UpdatedAt = time.Now()
	return nil
}

func (p *Product) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if p.StockQuantity < quantity {
		return &InsufficientStockError{
			ProductName: p.Name,
			Available:   p.StockQuantity,
			Requested:   quantity,
		}
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = time.Now()
	return nil
}

// IsLowStock reports whether stock is strictly below threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.StockQuantity < threshold
}

func (p *Product) UpdatePrice(newPrice Money) {
	p.Price = newPrice
	p.UpdatedAt = time.Now()
}
