package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/infra/observability"
	"github.com/wangku-app/wangku-api/internal/port"
)

var wishlistTracer = otel.Tracer("service/wishlist")

// WishlistService orchestrates wishlist CRUD and the compound "buy" flow.
type WishlistService struct {
	wishlists port.WishlistStore
	finance   *FinanceService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(wishlists port.WishlistStore, finance *FinanceService, metrics *observability.Metrics, logger *zap.Logger) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		finance:   finance,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *WishlistService) ListWishlists(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	ctx, span := wishlistTracer.Start(ctx, "WishlistService.ListWishlists")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.wishlists.ListWishlists(ctx, userID, 0)
}

// CreateWishlistItem validates and inserts a wishlist item.
func (s *WishlistService) CreateWishlistItem(ctx context.Context, userID string, req *domain.WishlistRequest) (*domain.WishlistItem, error) {
	ctx, span := wishlistTracer.Start(ctx, "WishlistService.CreateWishlistItem")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.ItemName == "" {
		return nil, &domain.ErrValidation{Field: "item_name", Message: "item_name is required"}
	}
	if req.EstimatedCost < 0 {
		return nil, &domain.ErrValidation{Field: "estimated_cost", Message: "estimated_cost must be non-negative"}
	}

	return s.wishlists.InsertWishlistItem(ctx, &domain.WishlistItem{
		ID:            uuid.New().String(),
		UserID:        userID,
		ItemName:      req.ItemName,
		EstimatedCost: req.EstimatedCost,
		Priority:      req.Priority,
		Status:        domain.StatusPending,
	})
}

// UpdateWishlistItem applies a partial edit to a pending item.
func (s *WishlistService) UpdateWishlistItem(ctx context.Context, userID, itemID string, patch *domain.WishlistPatch) (*domain.WishlistItem, error) {
	ctx, span := wishlistTracer.Start(ctx, "WishlistService.UpdateWishlistItem")
	defer span.End()

	existing, err := s.wishlists.GetWishlistItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if existing.Status == domain.StatusCompleted {
		return nil, &domain.ErrConflict{Message: "wishlist item is already bought"}
	}

	fields := map[string]any{}
	if patch.ItemName != nil {
		if *patch.ItemName == "" {
			return nil, &domain.ErrValidation{Field: "item_name", Message: "item_name is required"}
		}
		fields["item_name"] = *patch.ItemName
	}
	if patch.EstimatedCost != nil {
		if *patch.EstimatedCost < 0 {
			return nil, &domain.ErrValidation{Field: "estimated_cost", Message: "estimated_cost must be non-negative"}
		}
		fields["estimated_cost"] = *patch.EstimatedCost
	}
	if patch.Priority != nil {
		fields["priority"] = *patch.Priority
	}

	if len(fields) == 0 {
		return existing, nil
	}
	return s.wishlists.UpdateWishlistItem(ctx, userID, itemID, fields)
}

func (s *WishlistService) DeleteWishlistItem(ctx context.Context, userID, itemID string) error {
	ctx, span := wishlistTracer.Start(ctx, "WishlistService.DeleteWishlistItem")
	defer span.End()

	if _, err := s.wishlists.GetWishlistItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.wishlists.DeleteWishlistItem(ctx, userID, itemID)
}

// BuyWishlistItem marks the item completed and records a completed expense
// transaction for its estimated cost, then recomputes the balance.
//
// The two mutations are separate store calls with no transaction boundary.
// A failure after the status flip leaves the item bought with no expense
// recorded, and a double-submit can record the expense twice — known
// limitation, the operation is not idempotent.
func (s *WishlistService) BuyWishlistItem(ctx context.Context, userID, itemID string) (*domain.BuyResult, error) {
	ctx, span := wishlistTracer.Start(ctx, "WishlistService.BuyWishlistItem")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("item.id", itemID),
	)

	item, err := s.wishlists.GetWishlistItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == domain.StatusCompleted {
		return nil, &domain.ErrConflict{Message: "wishlist item is already bought"}
	}

	updated, err := s.wishlists.UpdateWishlistItem(ctx, userID, itemID, map[string]any{
		"status": domain.StatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.finance.CreateTransaction(ctx, userID, &domain.TransactionRequest{
		Title:  "Beli " + item.ItemName,
		Amount: item.EstimatedCost,
		Type:   domain.TransactionExpense,
		Date:   todayISO(),
		Status: domain.StatusCompleted,
	})
	if err != nil {
		// The item is already flipped; surface the store error so the user
		// can record the expense manually.
		s.logger.Error("buy: expense insert failed after status flip",
			zap.String("user_id", userID),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return nil, err
	}

	balance, err := s.finance.RecomputeBalance(ctx, userID)
	if err != nil {
		s.logger.Error("buy: balance recompute failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return &domain.BuyResult{
		Item:        updated,
		Transaction: tx,
		NewBalance:  balance,
	}, nil
}
