package handler

import (
	"net/http"
	"time"

	"github.com/wangku-app/wangku-api/internal/authn"
	chathandler "github.com/wangku-app/wangku-api/internal/chat/handler"
	chatservice "github.com/wangku-app/wangku-api/internal/chat/service"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router wires up.
type Services struct {
	Finance  *service.FinanceService
	Wishlist *service.WishlistService
	Settings *service.SettingsService
	Chat     *chatservice.ChatService
	Summary  *chatservice.SummaryService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Every /v1 route requires a valid Supabase access token; the user
// id always comes from the token, never from the request.
func NewRouter(svcs *Services, auth *authn.Validator, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Finance, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware)

		// =============================================
		// Profile
		// =============================================
		r.Get("/profile", getProfileHandler(svcs.Finance, logger))
		r.Put("/profile", updateProfileHandler(svcs.Finance, logger))

		// =============================================
		// Transactions
		// =============================================
		r.Get("/transactions", listTransactionsHandler(svcs.Finance, logger))
		r.Post("/transactions", createTransactionHandler(svcs.Finance, logger))
		r.Patch("/transactions/{transactionId}", updateTransactionHandler(svcs.Finance, logger))
		r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Finance, logger))
		r.Post("/transactions/{transactionId}/confirm", confirmTransactionHandler(svcs.Finance, logger))

		// =============================================
		// Wishlist
		// =============================================
		r.Get("/wishlists", listWishlistsHandler(svcs.Wishlist, logger))
		r.Post("/wishlists", createWishlistHandler(svcs.Wishlist, logger))
		r.Patch("/wishlists/{itemId}", updateWishlistHandler(svcs.Wishlist, logger))
		r.Delete("/wishlists/{itemId}", deleteWishlistHandler(svcs.Wishlist, logger))
		r.Post("/wishlists/{itemId}/buy", buyWishlistHandler(svcs.Wishlist, logger))

		// =============================================
		// Settings (AI credentials)
		// =============================================
		r.Get("/settings", getSettingsHandler(svcs.Settings, logger))
		r.Put("/settings", updateSettingsHandler(svcs.Settings, logger))

		// =============================================
		// AI chat + summary
		// =============================================
		r.Post("/chat", chathandler.ChatHandler(svcs.Chat, logger))
		r.Post("/chat/reset", chathandler.ResetHandler(svcs.Chat, logger))
		r.Get("/chat/history", chathandler.HistoryHandler(svcs.Chat, logger))
		r.Post("/summary", chathandler.SummaryHandler(svcs.Summary, logger))

		// =============================================
		// Chat metrics snapshot
		// =============================================
		r.Get("/metrics/chat", chatMetricsHandler(metrics, logger))
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

type serviceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// healthzHandler reports the API itself plus a live probe against
// the record store.
func healthzHandler(finance *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []serviceHealth{
			{Name: "wangku-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if finance != nil {
			start := time.Now()
			_, err := finance.ListTransactions(ctx, "health-check")
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("healthz: record store probe failed", zap.Error(err))
			}
			services = append(services, serviceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   overallStatus,
			"services": services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// chatMetricsHandler returns the aggregated chat pipeline counters.
func chatMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetChatSnapshot()
		writeJSON(w, http.StatusOK, snapshot)
	}
}
