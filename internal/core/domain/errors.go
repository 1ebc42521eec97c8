package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrIllegalState      = errors.New("illegal state")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBusinessRule      = errors.New("business rule violation")
)

// NotFoundError reports a referenced entity that does not exist.
// It matches ErrNotFound under errors.Is.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id.String()}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError carries the shortfall details for a single product.
// It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
