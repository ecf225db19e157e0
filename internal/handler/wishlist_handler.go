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
// Wishlist
// GET    /v1/wishlists
// POST   /v1/wishlists
// PATCH  /v1/wishlists/{itemId}
// DELETE /v1/wishlists/{itemId}
// POST   /v1/wishlists/{itemId}/buy
// ============================================================

func listWishlistsHandler(svc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.ListWishlists")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		items, err := svc.ListWishlists(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"wishlists": items})
	}
}

func createWishlistHandler(svc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.CreateWishlistItem")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.WishlistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		item, err := svc.CreateWishlistItem(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func updateWishlistHandler(svc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.UpdateWishlistItem")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		itemID := chi.URLParam(r, "itemId")
		span.SetAttributes(
			attribute.String("user.id", userID),
			attribute.String("wishlist.id", itemID),
		)

		var patch domain.WishlistPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		item, err := svc.UpdateWishlistItem(ctx, userID, itemID, &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func deleteWishlistHandler(svc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.DeleteWishlistItem")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		itemID := chi.URLParam(r, "itemId")
		span.SetAttributes(
			attribute.String("user.id", userID),
			attribute.String("wishlist.id", itemID),
		)

		if err := svc.DeleteWishlistItem(ctx, userID, itemID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// buyWishlistHandler marks the item as bought and records the
// matching completed expense in one request.
func buyWishlistHandler(svc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "Handler.BuyWishlistItem")
		defer span.End()

		userID := authn.UserIDFromContext(ctx)
		itemID := chi.URLParam(r, "itemId")
		span.SetAttributes(
			attribute.String("user.id", userID),
			attribute.String("wishlist.id", itemID),
		)

		result, err := svc.BuyWishlistItem(ctx, userID, itemID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
