package handler

import (
	"encoding/json"
	"net/http"

	"github.com/wangku-app/wangku-api/internal/authn"
	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// GET    /v1/transactions
// POST   /v1/transactions
// PATCH  /v1/transactions/{transactionId}
// DELETE /v1/transactions/{transactionId}
// POST   /v1/transactions/{transactionId}/confirm
// ============================================================

func listTransactionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.ListTransactions")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		txs, err := svc.ListTransactions(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
	}
}

func createTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.CreateTransaction")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := svc.CreateTransaction(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.UpdateTransaction")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		txID := chi.URLParam(r, "transactionId")
		span.SetAttributes(
			attribute.String("user.id", userID),
			attribute.String("transaction.id", txID),
		)

		var patch domain.TransactionPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := svc.UpdateTransaction(ctx, userID, txID, &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.DeleteTransaction")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		txID := chi.URLParam(r, "transactionId")
		span.SetAttributes(
			attribute.String("user.id", userID),
			attribute.String("transaction.id", txID),
		)

		if err := svc.DeleteTransaction(ctx, userID, txID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func confirmTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.ConfirmTransaction")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		txID := chi.URLParam(r, "transactionId")
		span.SetAttributes(
			attribute.String("user.id", userID),
			attribute.String("transaction.id", txID),
		)

		tx, err := svc.ConfirmTransaction(ctx, userID, txID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}
