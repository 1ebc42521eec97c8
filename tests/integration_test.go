package tests

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/adapter/notifier"
	"storefront/internal/adapter/quote"
	"storefront/internal/adapter/storage"
	"storefront/internal/core/domain"
	"storefront/internal/core/service"
)

type testEnv struct {
	redis     *redis.Client
	mysql     *sql.DB
	orders    *service.OrderService
	products  *service.ProductService
	inventory *service.InventoryService
	cleanup   func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ensureSchema(t, db)

	logger := zerolog.Nop()
	productStore := storage.NewProductStore(db)
	orderStore := storage.NewOrderStore(db)
	reservations := storage.NewRedisAdapter(rdb)

	inventorySvc := service.NewInventoryService(productStore, notifier.NewLogSink(logger), logger)
	orderSvc := service.NewOrderService(
		orderStore, productStore, reservations,
		quote.NewSimulatedDiscountProvider(logger),
		quote.NewSimulatedShippingProvider(logger),
		inventorySvc, logger,
	)
	productSvc := service.NewProductService(productStore, reservations, logger)

	return &testEnv{
		redis:     rdb,
		mysql:     db,
		orders:    orderSvc,
		products:  productSvc,
		inventory: inventorySvc,
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func ensureSchema(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			sku VARCHAR(64) NOT NULL UNIQUE,
			price DECIMAL(12,2) NOT NULL,
			stock_quantity INT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id CHAR(36) PRIMARY KEY,
			order_number VARCHAR(16) NOT NULL UNIQUE,
			customer_id VARCHAR(64) NOT NULL,
			total_amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(16) NOT NULL,
			discount_pct DOUBLE NOT NULL DEFAULT 0,
			shipping_estimate DOUBLE NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX idx_orders_status (status),
			INDEX idx_orders_created_at (created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id CHAR(36) PRIMARY KEY,
			order_id CHAR(36) NOT NULL,
			line_no INT NOT NULL,
			product_id CHAR(36) NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			unit_price DECIMAL(12,2) NOT NULL,
			quantity INT NOT NULL,
			subtotal DECIMAL(12,2) NOT NULL,
			INDEX idx_order_items_order_id (order_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}
}

func (env *testEnv) createProduct(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()
	ctx := context.Background()
	product, err := env.products.CreateProduct(ctx, name, "SKU-"+uuid.NewString()[:8], domain.MustMoney(price), stock)
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	t.Cleanup(func() {
		env.mysql.Exec(`DELETE FROM products WHERE id = ?`, product.ID.String())
		env.redis.Del(ctx, "available:"+product.ID.String())
	})
	return product
}

func (env *testEnv) cleanupOrder(t *testing.T, id uuid.UUID) {
	t.Cleanup(func() {
		env.mysql.Exec(`DELETE FROM order_items WHERE order_id = ?`, id.String())
		env.mysql.Exec(`DELETE FROM orders WHERE id = ?`, id.String())
	})
}

func (env *testEnv) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var stock int
	err := env.mysql.QueryRow(`SELECT stock_quantity FROM products WHERE id = ?`, id.String()).Scan(&stock)
	if err != nil {
		t.Fatalf("query stock: %v", err)
	}
	return stock
}

func TestIntegration_OrderLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	beans := env.createProduct(t, "Espresso Beans", "12.50", 10)
	filters := env.createProduct(t, "Paper Filters", "7.25", 20)

	order, err := env.orders.CreateOrder(ctx, service.CreateOrderRequest{
		RequestID:  "integration-" + uuid.NewString(),
		CustomerID: "integration-customer",
		Items: []service.ItemRequest{
			{ProductID: beans.ID, Quantity: 2},
			{ProductID: filters.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	env.cleanupOrder(t, order.ID)

	if order.TotalAmount.String() != "46.75" {
		t.Errorf("expected total 46.75, got %s", order.TotalAmount)
	}
	// creation never touches persistent stock
	if got := env.stockOf(t, beans.ID); got != 10 {
		t.Errorf("expected stock 10 after creation, got %d", got)
	}

	paid, err := env.orders.PayOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("PayOrder failed: %v", err)
	}
	if !paid.IsPaid() {
		t.Errorf("expected PAID, got %s", paid.Status)
	}
	if got := env.stockOf(t, beans.ID); got != 8 {
		t.Errorf("expected stock 8 after payment, got %d", got)
	}
	if got := env.stockOf(t, filters.ID); got != 17 {
		t.Errorf("expected stock 17 after payment, got %d", got)
	}

	canceled, err := env.orders.CancelOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if !canceled.IsCanceled() {
		t.Errorf("expected CANCELED, got %s", canceled.Status)
	}
	if got := env.stockOf(t, beans.ID); got != 10 {
		t.Errorf("expected stock restored to 10, got %d", got)
	}
	if got := env.stockOf(t, filters.ID); got != 20 {
		t.Errorf("expected stock restored to 20, got %d", got)
	}
}

func TestIntegration_ConcurrentCreationBoundedByHolds(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	available := 3
	totalRequests := 10
	beans := env.createProduct(t, "Espresso Beans", "12.50", available)

	var successCount atomic.Int32
	var mu sync.Mutex
	var created []uuid.UUID
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := env.orders.CreateOrder(ctx, service.CreateOrderRequest{
				CustomerID: "integration-customer",
				Items:      []service.ItemRequest{{ProductID: beans.ID, Quantity: 1}},
			})
			if err != nil {
				if !errors.Is(err, domain.ErrInsufficientStock) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			successCount.Add(1)
			mu.Lock()
			created = append(created, order.ID)
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, id := range created {
		env.cleanupOrder(t, id)
	}

	// soft holds cap creations at the seeded availability
	if successCount.Load() != int32(available) {
		t.Errorf("expected %d created orders, got %d", available, successCount.Load())
	}

	// every created order can still pay: the holds guaranteed the stock
	for _, id := range created {
		if _, err := env.orders.PayOrder(ctx, id); err != nil {
			t.Errorf("PayOrder failed: %v", err)
		}
	}
	if got := env.stockOf(t, beans.ID); got != 0 {
		t.Errorf("expected stock 0 after all payments, got %d", got)
	}
}

func TestIntegration_DuplicateRequestID(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	beans := env.createProduct(t, "Espresso Beans", "12.50", 10)
	requestID := "integration-dup-" + uuid.NewString()

	req := service.CreateOrderRequest{
		RequestID:  requestID,
		CustomerID: "integration-customer",
		Items:      []service.ItemRequest{{ProductID: beans.ID, Quantity: 1}},
	}

	order, err := env.orders.CreateOrder(ctx, req)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	env.cleanupOrder(t, order.ID)

	if _, err := env.orders.CreateOrder(ctx, req); !errors.Is(err, service.ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestIntegration_LowStockScan(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	env.createProduct(t, "Espresso Beans", "12.50", 2)

	count, err := env.inventory.PublishLowStock(ctx, 5)
	if err != nil {
		t.Fatalf("PublishLowStock failed: %v", err)
	}
	if count < 1 {
		t.Errorf("expected at least 1 low stock event, got %d", count)
	}
}
