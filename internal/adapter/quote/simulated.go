// Package quote provides stand-in discount and shipping providers that
// simulate slow external calls. They keep the enrichment fan-out honest:
// real latency, real cancellation.
package quote

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
)

const (
	discountLatency = 100 * time.Millisecond
	shippingLatency = 150 * time.Millisecond

	flatShippingCost = 5.99
)

type SimulatedDiscountProvider struct {
	logger zerolog.Logger
}

func NewSimulatedDiscountProvider(logger zerolog.Logger) *SimulatedDiscountProvider {
	return &SimulatedDiscountProvider{logger: logger.With().Str("component", "discount").Logger()}
}

// Quote returns 10% for customers with an even hash, 5% otherwise.
func (p *SimulatedDiscountProvider) Quote(ctx context.Context, customerID string) (float64, error) {
	p.logger.Debug().Str("customer_id", customerID).Msg("calculating discount")

	select {
	case <-time.After(discountLatency):
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	if hashString(customerID)%2 == 0 {
		return 10.0, nil
	}
	return 5.0, nil
}

type SimulatedShippingProvider struct {
	logger zerolog.Logger
}

func NewSimulatedShippingProvider(logger zerolog.Logger) *SimulatedShippingProvider {
	return &SimulatedShippingProvider{logger: logger.With().Str("component", "shipping").Logger()}
}

// Quote returns a flat shipping cost estimate.
func (p *SimulatedShippingProvider) Quote(ctx context.Context, customerID string) (float64, error) {
	p.logger.Debug().Str("customer_id", customerID).Msg("estimating shipping")

	select {
	case <-time.After(shippingLatency):
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	return flatShippingCost, nil
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
