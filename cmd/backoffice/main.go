package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/wholesale-backoffice/internal/notify"
	"github.com/tair/wholesale-backoffice/internal/order"
	orderhttp "github.com/tair/wholesale-backoffice/internal/order/delivery/http"
	"github.com/tair/wholesale-backoffice/internal/order/delivery/ws"
	orderrepo "github.com/tair/wholesale-backoffice/internal/order/repository"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/query"
	"github.com/tair/wholesale-backoffice/internal/product"
	productrepo "github.com/tair/wholesale-backoffice/internal/product/repository"
	"github.com/tair/wholesale-backoffice/kafka"
	"github.com/tair/wholesale-backoffice/pkg/cache"
	"github.com/tair/wholesale-backoffice/pkg/database"
	"github.com/tair/wholesale-backoffice/pkg/logger"
	"github.com/tair/wholesale-backoffice/pkg/tracing"
)

func main() {
	// Local overrides; absent in containers
	_ = godotenv.Load()

	serviceName := getEnv("OTEL_SERVICE_NAME", "backoffice")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, getEnv("LOG_LEVEL", "info"), isDevelopment)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Msg("Starting back-office service")

	// Initialize tracing
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Tracing disabled")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Warn().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "backofficedb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations for the live tables. Archival year tables belong to
	// the external archival job.
	if err := productrepo.NewGormProductRepository(db).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to migrate products")
	}
	resolver, err := orderrepo.NewPartitionResolver(db, time.Now)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create partition resolver")
	}
	if err := orderrepo.NewGormOrderStorage(db, resolver).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to migrate orders")
	}
	if err := orderrepo.NewGormOrderLockStore(db).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to migrate order locks")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	// Redis stock cache and pub/sub; the service runs without them
	var redisClient *redis.Client
	if addr := getEnv("REDIS_ADDR", "localhost:6379"); addr != "" {
		redisClient, err = cache.NewRedisClient(addr, getEnv("REDIS_PASSWORD", ""), 0)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Redis unavailable, stock cache disabled")
			redisClient = nil
		}
	}
	stockCache := cache.NewStockCache(redisClient, getDurationEnv("STOCK_CACHE_TTL", 30*time.Second))

	// Kafka publisher; the service runs without it
	var publisher notify.StockPublisher
	var kafkaPublisher *kafka.Publisher
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		kafkaPublisher, err = kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable, stock events disabled")
		} else {
			publisher = kafkaPublisher
			defer kafkaPublisher.Close()
		}
	}

	// WebSocket fan-out
	hub := ws.NewHub()
	wsHandler := ws.NewHandler(hub)

	notifier := notify.NewStockNotifier(
		productrepo.NewGormProductRepositoryWithTracing(db),
		stockCache,
		redisClient,
		publisher,
		hub,
	)

	// Initialize handlers with Wire DI
	productHandler, err := product.InitializeHTTPHandler(db, stockCache)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize product handler")
	}

	lockTimeout := getDurationEnv("DB_LOCK_TIMEOUT", 5*time.Second)
	orderHandler, err := order.InitializeHTTPHandler(
		db, resolver, notifier, orderingWindowFromEnv(), time.Now, lockTimeout)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize order handler")
	}

	// Setup router
	router := mux.NewRouter()
	productHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router)
	router.HandleFunc("/api/orders/ws/stock_updates", wsHandler.HandleStockUpdates)
	registerHealthCheck(router, sqlDB)
	router.Handle("/metrics", promhttp.Handler())
	orderhttp.RegisterSwaggerDocs(router, httpSwagger.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpPort := getEnv("HTTP_PORT", "8080")
	server := &http.Server{
		Addr:    ":" + httpPort,
		Handler: otelhttp.NewHandler(c.Handler(router), "backoffice"),
	}

	go func() {
		logger.Logger.Info().
			Str("port", httpPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server shutdown failed")
	}
}

func registerHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}).Methods("GET")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// orderingWindowFromEnv builds the daily ordering window from
// ORDER_WINDOW_OPEN / ORDER_WINDOW_CLOSE ("HH:MM"), defaulting to the
// overnight 20:00-07:00 window.
func orderingWindowFromEnv() query.OrderingWindow {
	window := query.DefaultOrderingWindow()
	if offset, ok := parseClockOffset(os.Getenv("ORDER_WINDOW_OPEN")); ok {
		window.Start = offset
	}
	if offset, ok := parseClockOffset(os.Getenv("ORDER_WINDOW_CLOSE")); ok {
		window.End = offset
	}
	return window
}

func parseClockOffset(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	at, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, false
	}
	return time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute, true
}
