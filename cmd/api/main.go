package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/tkabwela/shopline-backend/internal/modules/auth"
	"github.com/tkabwela/shopline-backend/internal/modules/cart"
	"github.com/tkabwela/shopline-backend/internal/modules/catalog"
	"github.com/tkabwela/shopline-backend/internal/modules/order"
	"github.com/tkabwela/shopline-backend/internal/modules/user"
	"github.com/tkabwela/shopline-backend/pkg/events"
	"github.com/tkabwela/shopline-backend/pkg/idempotency"
	"github.com/tkabwela/shopline-backend/pkg/logging"
	"github.com/tkabwela/shopline-backend/pkg/metrics"
	"github.com/tkabwela/shopline-backend/pkg/shutdown"
)

func main() {
	_ = godotenv.Load()
	logger := logging.New()

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("connected to database")

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	authenticate := auth.Authenticator(jwtSecret)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(userRepo, jwtSecret)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Catalog & Cart ──────────────────────────────────────
	productStore := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(productStore)
	catalog.NewHandler(catalogService).RegisterRoutes(router, authenticate, auth.RequireAdmin)

	cartRepo := cart.NewPostgresRepository(db)
	cartService := cart.NewService(cartRepo, productStore)
	cart.NewHandler(cartService).RegisterRoutes(router, authenticate)

	// ── Orders ──────────────────────────────────────────────
	var publisher events.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := os.Getenv("KAFKA_ORDER_TOPIC")
		if topic == "" {
			topic = "shopline.orders"
		}
		producer := events.NewProducer(strings.Split(brokers, ","), topic)
		defer producer.Close()
		publisher = producer
		logger.Info("order events enabled", slog.String("topic", topic))
	}

	var idem func(http.Handler) http.Handler
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		store := idempotency.NewStore(rdb, 24*time.Hour)
		idem = idempotency.Middleware(store, func(r *http.Request) string {
			return auth.UserID(r.Context())
		})
		logger.Info("checkout idempotency enabled", slog.String("redis", addr))
	}

	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, cartRepo, productStore, productStore, publisher, logger)
	order.NewHandler(orderService).RegisterRoutes(router, authenticate, auth.RequireAdmin, idem)

	router.Handle("/metrics", metrics.Handler())

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("shopline API server starting", slog.String("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server shut down")
}
