package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable amount in the shop's single implicit currency,
// normalized to exactly two decimal places with half-up rounding.
// The zero value is a valid zero amount.
type Money struct {
	amount decimal.Decimal
}

func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount cannot be negative: %s", ErrInvalidArgument, amount)
	}
	return Money{amount: amount.Round(2)}, nil
}

func ParseMoney(s string) (Money, error) {
	if s == "" {
		return Money{}, fmt.Errorf("%w: amount cannot be empty", ErrInvalidArgument)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: unparseable amount %q", ErrInvalidArgument, s)
	}
	return NewMoney(d)
}

// MustMoney is for statically known amounts; it panics on invalid input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero() Money {
	return Money{}
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Multiply scales the amount by an integer quantity. Quantity must not be
// negative; callers validate it before constructing line items.
func (m Money) Multiply(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity))).Round(2)}
}

func (m Money) GreaterThan(other Money) bool {
	return m.amount.Cmp(other.amount) > 0
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) Equal(other Money) bool {
	return m.amount.Cmp(other.amount) == 0
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) String() string {
	return m.amount.StringFixed(2)
}
