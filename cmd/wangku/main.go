package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wangku-app/wangku-api/internal/authn"
	chatinfra "github.com/wangku-app/wangku-api/internal/chat/infra"
	chatservice "github.com/wangku-app/wangku-api/internal/chat/service"
	"github.com/wangku-app/wangku-api/internal/config"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/handler"
	"github.com/wangku-app/wangku-api/internal/infra/cache"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/infra/resilience"
	"github.com/wangku-app/wangku-api/internal/infra/supabase"
	"github.com/wangku-app/wangku-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("termai_base_url", cfg.TermaiBaseURL),
		zap.String("gemini_model", cfg.GeminiModel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Int("context_limit", cfg.ContextLimit),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}
	if cfg.SupabaseJWTSecret == "" {
		logger.Fatal("SUPABASE_JWT_SECRET is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "wangku-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	settingsCache := cache.New[*domain.Settings](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	supabaseCB := resilience.NewCircuitBreaker("supabase")
	termaiCB := resilience.NewCircuitBreaker("termai")
	geminiCB := resilience.NewCircuitBreaker("gemini")
	chatBulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseCB,
		resilienceCfg,
		logger,
	)
	termaiClient := chatinfra.NewTermaiClient(httpClient, cfg.TermaiBaseURL, termaiCB)
	geminiClient := chatinfra.NewGeminiClient(httpClient, cfg.GeminiBaseURL, cfg.GeminiModel, geminiCB)

	// --- Services ---
	financeSvc := service.NewFinanceService(supabaseClient, supabaseClient, metrics, logger)
	wishlistSvc := service.NewWishlistService(supabaseClient, financeSvc, metrics, logger)
	settingsSvc := service.NewSettingsService(supabaseClient, settingsCache, cfg.SettingsSecret, metrics, logger)

	applier := chatservice.NewApplicator(financeSvc, wishlistSvc, logger)
	chatSvc := chatservice.NewChatService(
		termaiClient,
		settingsSvc,
		applier,
		supabaseClient,
		supabaseClient,
		supabaseClient,
		supabaseClient,
		chatBulkhead,
		metrics,
		logger,
		cfg.ContextLimit,
	)
	summarySvc := chatservice.NewSummaryService(
		geminiClient,
		settingsSvc,
		supabaseClient,
		supabaseClient,
		supabaseClient,
		metrics,
		logger,
		cfg.ContextLimit,
	)

	// --- Auth ---
	auth := authn.NewValidator(cfg.SupabaseJWTSecret, logger)

	// --- Router ---
	router := handler.NewRouter(&handler.Services{
		Finance:  financeSvc,
		Wishlist: wishlistSvc,
		Settings: settingsSvc,
		Chat:     chatSvc,
		Summary:  summarySvc,
	}, auth, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
