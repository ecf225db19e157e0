package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wangku-app/wangku-api/internal/domain"
)

// ============================================================
// WishlistStore implementation — wishlists table via PostgREST
// ============================================================

// ListWishlists returns wishlist items ordered by priority ascending
// (ascending = higher priority first). limit <= 0 means no limit.
func (c *Client) ListWishlists(ctx context.Context, userID string, limit int) ([]domain.WishlistItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListWishlists")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []domain.WishlistItem
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("wishlists?user_id=eq.%s&order=priority.asc", userID)
		if limit > 0 {
			path = fmt.Sprintf("%s&limit=%d", path, limit)
		}
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil {
			rows = []domain.WishlistItem{}
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/wishlists", Err: err}
	}
	return rows, nil
}

// GetWishlistItem fetches one wishlist item owned by the user.
func (c *Client) GetWishlistItem(ctx context.Context, userID, itemID string) (*domain.WishlistItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetWishlistItem")
	defer span.End()

	var rows []domain.WishlistItem
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("wishlists?user_id=eq.%s&id=eq.%s&limit=1", userID, itemID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil {
			rows = nil
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/wishlists", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "wishlist_item", ID: itemID}
	}
	return &rows[0], nil
}

// InsertWishlistItem creates a wishlist row.
func (c *Client) InsertWishlistItem(ctx context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertWishlistItem")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", item.UserID))

	row := map[string]any{
		"user_id":        item.UserID,
		"item_name":      item.ItemName,
		"estimated_cost": item.EstimatedCost,
		"priority":       item.Priority,
		"status":         item.Status,
	}
	if item.ID != "" {
		row["id"] = item.ID
	}

	body, err := c.doPost(ctx, "wishlists", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/wishlists", Err: err}
	}

	var results []domain.WishlistItem
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode wishlist item: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from wishlists insert")
	}
	return &results[0], nil
}

// UpdateWishlistItem patches the given fields and returns the updated row.
func (c *Client) UpdateWishlistItem(ctx context.Context, userID, itemID string, fields map[string]any) (*domain.WishlistItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateWishlistItem")
	defer span.End()

	path := fmt.Sprintf("wishlists?user_id=eq.%s&id=eq.%s", userID, itemID)
	body, err := c.doPatch(ctx, path, fields)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/wishlists", Err: err}
	}

	var results []domain.WishlistItem
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode wishlist item: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "wishlist_item", ID: itemID}
	}
	return &results[0], nil
}

// DeleteWishlistItem removes a wishlist item owned by the user.
func (c *Client) DeleteWishlistItem(ctx context.Context, userID, itemID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteWishlistItem")
	defer span.End()

	path := fmt.Sprintf("wishlists?user_id=eq.%s&id=eq.%s", userID, itemID)
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/wishlists", Err: err}
	}
	return nil
}
