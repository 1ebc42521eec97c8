package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"storefront/internal/adapter/handler"
	"storefront/internal/adapter/notifier"
	"storefront/internal/adapter/quote"
	"storefront/internal/adapter/storage"
	"storefront/internal/core/service"
)

type config struct {
	HTTPAddr          string
	MySQLDSN          string
	RedisAddr         string
	LowStockThreshold int
	ScanInterval      time.Duration
}

func loadConfig() config {
	return config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:          getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		ScanInterval:      getEnvDuration("LOW_STOCK_SCAN_INTERVAL", time.Hour),
	}
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zlog.With().Str("service", "storefront").Logger()

	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mysql")
	}
	logger.Info().Msg("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	logger.Info().Msg("connected to redis")

	// Adapters
	productStore := storage.NewProductStore(db)
	orderStore := storage.NewOrderStore(db)
	reservations := storage.NewRedisAdapter(rdb)
	discounts := quote.NewSimulatedDiscountProvider(logger)
	shipping := quote.NewSimulatedShippingProvider(logger)
	lowStockSink := notifier.NewLogSink(logger)

	// Services
	inventoryService := service.NewInventoryService(productStore, lowStockSink, logger)
	productService := service.NewProductService(productStore, reservations, logger)
	orderService := service.NewOrderService(
		orderStore, productStore, reservations, discounts, shipping, inventoryService, logger)

	// Availability counters track live stock; rebuild them on every start.
	if err := productService.SeedAvailability(ctx, 100); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed availability counters")
	}
	logger.Info().Msg("availability counters seeded")

	// Periodic low-stock scan. The schedule lives here, outside the core;
	// the scan itself is an on-demand operation.
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		ticker := time.NewTicker(cfg.ScanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := inventoryService.PublishLowStock(ctx, cfg.LowStockThreshold); err != nil {
					logger.Error().Err(err).Msg("low stock scan failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// HTTP server
	httpHandler := handler.NewHTTPHandler(orderService, productService, inventoryService, cfg.LowStockThreshold)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info().Msg("http server stopped")

	cancel()
	<-scanDone
	logger.Info().Msg("low stock scanner stopped")

	rdb.Close()
	db.Close()
	logger.Info().Msg("connections closed")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
