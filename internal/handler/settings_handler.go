package handler

import (
	"encoding/json"
	"net/http"

	"github.com/wangku-app/wangku-api/internal/authn"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Settings
// GET /v1/settings — which keys are set, never their values
// PUT /v1/settings — store/replace keys
// ============================================================

func getSettingsHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.GetSettings")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		state, err := svc.State(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func updateSettingsHandler(svc *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.UpdateSettings")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.TermaiKey == "" && req.GeminiKey == "" {
			writeError(w, http.StatusBadRequest, "at least one of termai_key or gemini_key is required")
			return
		}

		if err := svc.Put(ctx, userID, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		state, err := svc.State(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}
