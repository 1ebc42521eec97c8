package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/core/domain"
	"storefront/internal/port"
)

// ProductStore persists products with plain database/sql.
type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) Save(ctx context.Context, product *domain.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, sku, price, stock_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), price = VALUES(price),
			stock_quantity = VALUES(stock_quantity), updated_at = VALUES(updated_at)`,
		product.ID.String(), product.Name, product.SKU, product.Price.String(),
		product.StockQuantity, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, sku, price, stock_quantity, created_at, updated_at
		FROM products WHERE id = ?`, id.String())
	return scanProduct(row)
}

func (s *ProductStore) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, sku, price, stock_quantity, created_at, updated_at
		FROM products WHERE sku = ?`, sku)
	return scanProduct(row)
}

func (s *ProductStore) FindAllByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*domain.Product{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id.String())
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku, price, stock_quantity, created_at, updated_at
		FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*domain.Product, len(ids))
	for rows.Next() {
		product, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		result[product.ID] = product
	}
	return result, rows.Err()
}

func (s *ProductStore) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE sku = ?)`, sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sku: %w", err)
	}
	return exists, nil
}

func (s *ProductStore) FindLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku, price, stock_quantity, created_at, updated_at
		FROM products WHERE stock_quantity < ? ORDER BY stock_quantity ASC`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query low stock: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *ProductStore) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku, price, stock_quantity, created_at, updated_at
		FROM products ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row *sql.Row) (*domain.Product, error) {
	product, err := scanProductRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return product, err
}

func scanProductRows(row rowScanner) (*domain.Product, error) {
	var (
		p        domain.Product
		id       string
		priceStr string
	)
	err := row.Scan(&id, &p.Name, &p.SKU, &priceStr, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse product id: %w", err)
	}
	if p.Price, err = domain.ParseMoney(priceStr); err != nil {
		return nil, fmt.Errorf("parse product price: %w", err)
	}
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]*domain.Product, error) {
	var products []*domain.Product
	for rows.Next() {
		product, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// OrderStore persists orders and their items, and commits lifecycle
// transitions together with their stock side-effects.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, order *domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, customer_id, total_amount, status,
			discount_pct, shipping_estimate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID.String(), order.OrderNumber, order.CustomerID, order.TotalAmount.String(),
		string(order.Status), order.DiscountPct, order.ShippingEstimate,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, line_no, product_id, product_name,
				unit_price, quantity, subtotal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID.String(), order.ID.String(), i, item.ProductID.String(),
			item.ProductName, item.UnitPrice.String(), item.Quantity, item.Subtotal.String(),
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (s *OrderStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.findOne(ctx, `WHERE id = ?`, id.String())
}

func (s *OrderStore) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.findOne(ctx, `WHERE order_number = ?`, orderNumber)
}

func (s *OrderStore) findOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_number, customer_id, total_amount, status,
			discount_pct, shipping_estimate, created_at, updated_at
		FROM orders `+where, arg)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_number, customer_id, total_amount, status,
			discount_pct, shipping_estimate, created_at, updated_at
		FROM orders WHERE status = ?
		ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	defer rows.Close()
	return s.collectOrders(ctx, rows)
}

func (s *OrderStore) ListByCreatedRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_number, customer_id, total_amount, status,
			discount_pct, shipping_estimate, created_at, updated_at
		FROM orders WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders by range: %w", err)
	}
	defer rows.Close()
	return s.collectOrders(ctx, rows)
}

// UpdateWithStock flips the order status and applies every stock adjustment
// in one transaction. Decrements are conditional on sufficient stock, so a
// lost-update race can never drive stock negative: the UPDATE simply matches
// zero rows and the whole transaction rolls back.
func (s *OrderStore) UpdateWithStock(ctx context.Context, order *domain.Order, adjustments []port.StockAdjustment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, adj := range adjustments {
		if err := applyAdjustment(ctx, tx, adj); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(order.Status), order.UpdatedAt, order.ID.String())
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.NewNotFoundError("order", order.ID)
	}

	return tx.Commit()
}

func applyAdjustment(ctx context.Context, tx *sql.Tx, adj port.StockAdjustment) error {
	if adj.Delta >= 0 {
		result, err := tx.ExecContext(ctx, `
			UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = NOW()
			WHERE id = ?`, adj.Delta, adj.ProductID.String())
		if err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.NewNotFoundError("product", adj.ProductID)
		}
		return nil
	}

	need := -adj.Delta
	result, err := tx.ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = NOW()
		WHERE id = ? AND stock_quantity >= ?`,
		need, adj.ProductID.String(), need)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	// Zero rows: either the product is gone or stock ran out. Look at the
	// row to report which.
	var (
		name  string
		stock int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT name, stock_quantity FROM products WHERE id = ?`,
		adj.ProductID.String()).Scan(&name, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError("product", adj.ProductID)
	}
	if err != nil {
		return fmt.Errorf("inspect product: %w", err)
	}
	return &domain.InsufficientStockError{ProductName: name, Available: stock, Requested: need}
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o        domain.Order
		id       string
		totalStr string
		status   string
	)
	err := row.Scan(&id, &o.OrderNumber, &o.CustomerID, &totalStr, &status,
		&o.DiscountPct, &o.ShippingEstimate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if o.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse order id: %w", err)
	}
	if o.TotalAmount, err = domain.ParseMoney(totalStr); err != nil {
		return nil, fmt.Errorf("parse order total: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (s *OrderStore) collectOrders(ctx context.Context, rows *sql.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, order := range orders {
		if err := s.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *OrderStore) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, unit_price, quantity, subtotal
		FROM order_items WHERE order_id = ? ORDER BY line_no`, order.ID.String())
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item        domain.OrderItem
			id          string
			productID   string
			unitStr     string
			subtotalStr string
		)
		if err := rows.Scan(&id, &productID, &item.ProductName, &unitStr, &item.Quantity, &subtotalStr); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if item.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("parse item id: %w", err)
		}
		if item.ProductID, err = uuid.Parse(productID); err != nil {
			return fmt.Errorf("parse item product id: %w", err)
		}
		if item.UnitPrice, err = domain.ParseMoney(unitStr); err != nil {
			return fmt.Errorf("parse item unit price: %w", err)
		}
		if item.Subtotal, err = domain.ParseMoney(subtotalStr); err != nil {
			return fmt.Errorf("parse item subtotal: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}
