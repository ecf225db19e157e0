package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wangku-app/wangku-api/internal/authn"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Profile
// GET /v1/profile
// PUT /v1/profile
// ============================================================

func getProfileHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.GetProfile")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		profile, err := svc.GetProfile(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func updateProfileHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.UpdateProfile")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		profile, err := svc.UpdateProfileName(ctx, userID, strings.TrimSpace(req.Name))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}
