// Package handler exposes the chat and summary routes.
//
// All routes here require authentication; the user id comes from
// the validated token, never from the URL or body. Handlers are
// thin — decode, delegate, encode. The full turn pipeline lives in
// the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wangku-app/wangku-api/internal/authn"
	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	"github.com/wangku-app/wangku-api/internal/chat/service"
	maindomain "github.com/wangku-app/wangku-api/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("chat/handler")

// ============================================================
// ChatHandler — POST /v1/chat
// ============================================================

// ChatHandler processes one chat turn.
//
// Request:
//
//	Body: {"message": "Catat pengeluaran makan siang 25000", "conversation_id": "..."}
//
// Response (200 OK):
//
//	{"reply": "...", "action_applied": true, "action_type": "ADD_TRANSACTION"}
//
// Provider failures still answer 200 with a displayable reply; the
// error wording is part of the reply text itself.
func ChatHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.Chat")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req chatdomain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"message\": \"your message\"}")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		resp, err := chatSvc.ProcessTurn(ctx, userID, authn.EmailFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// ResetHandler — POST /v1/chat/reset
// ============================================================

// ResetHandler asks the provider to drop the conversation state.
// Body is optional: {"conversation_id": "..."} overrides the
// default per-user conversation.
func ResetHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.ChatReset")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req struct {
			ConversationID string `json:"conversation_id"`
		}
		// Empty body is fine; the user id doubles as conversation id.
		_ = json.NewDecoder(r.Body).Decode(&req)

		resp, err := chatSvc.Reset(ctx, userID, req.ConversationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// HistoryHandler — GET /v1/chat/history
// ============================================================

// HistoryHandler returns the user's chat log, oldest first.
func HistoryHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.ChatHistory")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		messages, err := chatSvc.History(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	}
}

// ============================================================
// SummaryHandler — POST /v1/summary
// ============================================================

// SummaryHandler generates the dashboard's HTML financial summary.
func SummaryHandler(summarySvc *service.SummaryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.Summary")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		resp, err := summarySvc.Generate(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Local helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError maps domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *maindomain.ErrNotFound
	var unauthorized *maindomain.ErrUnauthorized
	var configMissing *maindomain.ErrConfigurationMissing
	var circuitOpen *maindomain.ErrCircuitOpen
	var timeout *maindomain.ErrTimeout
	var external *maindomain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &configMissing):
		writeError(w, http.StatusPreconditionFailed, configMissing.Hint)
	case errors.As(err, &circuitOpen) || errors.As(err, &timeout):
		logger.Error("chat dependency unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream service error")
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
