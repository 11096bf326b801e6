package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/omerdikyol/api-for-travel-company/internal/domain"
	"github.com/omerdikyol/api-for-travel-company/internal/featureflags"
	"github.com/omerdikyol/api-for-travel-company/internal/handler"
	"github.com/omerdikyol/api-for-travel-company/internal/infrastructure/logger"
	"github.com/omerdikyol/api-for-travel-company/internal/infrastructure/redis"
	"github.com/omerdikyol/api-for-travel-company/internal/observability/metrics"
	"github.com/omerdikyol/api-for-travel-company/internal/observability/tracing"
	"github.com/omerdikyol/api-for-travel-company/internal/repository"
	"github.com/omerdikyol/api-for-travel-company/internal/security/audit"
	"github.com/omerdikyol/api-for-travel-company/internal/security/auth"
	"github.com/omerdikyol/api-for-travel-company/internal/security/middleware"
	"github.com/omerdikyol/api-for-travel-company/internal/security/ratelimit"
	"github.com/omerdikyol/api-for-travel-company/internal/service"
	"github.com/omerdikyol/api-for-travel-company/internal/worker"
	"github.com/omerdikyol/api-for-travel-company/migrations"
	"github.com/omerdikyol/api-for-travel-company/pkg/config"
	"github.com/omerdikyol/api-for-travel-company/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting travel-api server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "travel-api", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize storage
	var (
		db          *sql.DB
		houseRepo   domain.HouseRepository
		bookingRepo domain.BookingRepository
		userRepo    domain.UserRepository
	)
	switch cfg.StorageDriver {
	case "postgres":
		pool, err := database.NewConnectionPool(ctx, &database.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}, log)
		if err != nil {
			log.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		db = pool.DB()

		if cfg.AutoMigrate {
			if err := migrations.Up(ctx, db); err != nil {
				log.Error("failed to run migrations", slog.String("error", err.Error()))
				os.Exit(1)
			}
			log.Info("migrations applied")
		}

		houseRepo = repository.NewPostgresHouseRepository(db, log)
		bookingRepo = repository.NewPostgresBookingRepository(db, log)
		userRepo = repository.NewPostgresUserRepository(db, log)
	case "memory":
		log.Warn("using in-memory storage, all data is lost on restart")
		store := repository.NewMemoryStore()
		houseRepo = store
		bookingRepo = store
		userRepo = store.Users()
	}

	// 5. Initialize Redis (optional; the search cache degrades to the
	// in-process cache when it is absent)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	var searchCache service.SearchCache
	if featureflags.Enabled("search_cache") {
		if redisClient != nil {
			searchCache = service.NewRedisSearchCache(redisClient, log)
			log.Info("search cache enabled", slog.String("backend", "redis"))
		} else {
			searchCache = service.NewLocalSearchCache()
			log.Info("search cache enabled", slog.String("backend", "local"))
		}
	}

	// 6. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "travel-api", cfg.TokenTTL)
	searchService := service.NewSearchService(houseRepo, searchCache, cfg.SearchCacheTTL, log)
	bookingService := service.NewBookingService(bookingRepo, searchCache, log)
	authService := service.NewAuthService(userRepo, tokenManager, log)

	// 7. Initialize handlers and security components
	searchHandler := handler.NewSearchHandler(searchService, log)
	bookingHandler := handler.NewBookingHandler(bookingService, log)
	authHandler := handler.NewAuthHandler(authService, log)
	healthHandler := handler.NewHealthHandler(db, redisClient, log)

	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 8. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/query_houses", searchHandler)
	mux.Handle("POST /api/v1/book_stay", bookingHandler)
	mux.HandleFunc("POST /api/v1/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> JWT -> rate limit -> audit -> CORS.
	// JWT runs first so rate limiting and audit see the principal.
	var chained http.Handler = handlerWithCORS
	chained = middleware.AuditMiddleware(auditLogger)(chained)
	chained = middleware.RateLimitMiddleware(rateLimiter, log)(chained)
	chained = middleware.JWTMiddleware(tokenManager, log)(chained)
	chained = middleware.ValidateJSONContentType(log)(chained)
	if featureflags.Enabled("sanitize_inputs") {
		chained = middleware.SanitizeInputs(log)(chained)
	}
	chained = metrics.HTTPMetricsMiddleware(chained)
	chained = middleware.RequestID(chained, log)
	rootHandler := otelhttp.NewHandler(chained, "travel-api")

	// 9. Start stats worker in background
	statsWorker := worker.NewStatsWorker(houseRepo, bookingRepo, log, cfg.StatsInterval)
	go statsWorker.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageDriver),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop stats worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
