package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/core/domain"
	"storefront/internal/port"
)

// ProductService covers catalog administration: creating products, restocking
// and repricing them, and lookups.
type ProductService struct {
	products     port.ProductRepository
	reservations port.ReservationStore
	logger       zerolog.Logger
}

func NewProductService(products port.ProductRepository, reservations port.ReservationStore, logger zerolog.Logger) *ProductService {
	return &ProductService{
		products:     products,
		reservations: reservations,
		logger:       logger.With().Str("component", "products").Logger(),
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, name, sku string, price domain.Money, initialStock int) (*domain.Product, error) {
	exists, err := s.products.ExistsBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("check SKU: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: product with SKU %s already exists", domain.ErrBusinessRule, sku)
	}

	product, err := domain.NewProduct(name, sku, price, initialStock)
	if err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	s.seedAvailability(ctx, product)

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("sku", product.SKU).
		Int("stock", product.StockQuantity).
		Msg("product created")
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("product", id)
	}
	return product, nil
}

func (s *ProductService) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	product, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("find product by SKU: %w", err)
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "product", ID: sku}
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	return s.products.List(ctx, limit, offset)
}

func (s *ProductService) Restock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Restock(quantity); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	// New units are available for holds immediately.
	if err := s.reservations.Release(ctx, product.ID, quantity); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("failed to bump availability counter")
	}

	s.logger.Info().
		Str("product_id", id.String()).
		Int("quantity", quantity).
		Int("stock", product.StockQuantity).
		Msg("product restocked")
	return product, nil
}

func (s *ProductService) UpdatePrice(ctx context.Context, id uuid.UUID, price domain.Money) (*domain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.UpdatePrice(price)
	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return product, nil
}

// SeedAvailability resets the soft-hold counters for every product from the
// persisted stock. Called at startup so holds survive a cold cache.
func (s *ProductService) SeedAvailability(ctx context.Context, batchSize int) error {
	offset := 0
	for {
		products, err := s.products.List(ctx, batchSize, offset)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		for _, product := range products {
			s.seedAvailability(ctx, product)
		}
		if len(products) < batchSize {
			return nil
		}
		offset += batchSize
	}
}

func (s *ProductService) seedAvailability(ctx context.Context, product *domain.Product) {
	if err := s.reservations.SyncAvailable(ctx, product.ID, product.StockQuantity); err != nil {
		s.logger.Warn().Err(err).
			Str("product_id", product.ID.String()).
			Msg("failed to seed availability counter")
	}
}
