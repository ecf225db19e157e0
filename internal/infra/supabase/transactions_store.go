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
// TransactionStore implementation — transactions table via PostgREST
// ============================================================

// ListTransactions returns all transactions for a user, date ascending.
func (c *Client) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []domain.Transaction
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("transactions?user_id=eq.%s&order=date.asc", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil {
			rows = []domain.Transaction{}
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return rows, nil
}

// ListTransactionsByStatus returns transactions with the given status,
// ordered by the given PostgREST order expression (e.g. "date.asc").
// limit <= 0 means no limit.
func (c *Client) ListTransactionsByStatus(ctx context.Context, userID, status, order string, limit int) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactionsByStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("status", status),
	)

	var rows []domain.Transaction
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("transactions?user_id=eq.%s&status=eq.%s&order=%s", userID, status, order)
		if limit > 0 {
			path = fmt.Sprintf("%s&limit=%d", path, limit)
		}
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil {
			rows = []domain.Transaction{}
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return rows, nil
}

// GetTransaction fetches one transaction owned by the user.
func (c *Client) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	var rows []domain.Transaction
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s&limit=1", userID, txID)
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
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return &rows[0], nil
}

// InsertTransaction creates a transaction row. Single attempt — retrying an
// insert could duplicate the row.
func (c *Client) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", tx.UserID))

	row := map[string]any{
		"user_id": tx.UserID,
		"title":   tx.Title,
		"amount":  tx.Amount,
		"type":    tx.Type,
		"date":    tx.Date,
		"status":  tx.Status,
	}
	if tx.ID != "" {
		row["id"] = tx.ID
	}

	body, err := c.doPost(ctx, "transactions", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var results []domain.Transaction
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from transactions insert")
	}
	return &results[0], nil
}

// UpdateTransaction patches the given fields and returns the updated row.
func (c *Client) UpdateTransaction(ctx context.Context, userID, txID string, fields map[string]any) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", userID, txID)
	body, err := c.doPatch(ctx, path, fields)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var results []domain.Transaction
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return &results[0], nil
}

// DeleteTransaction removes a transaction owned by the user.
func (c *Client) DeleteTransaction(ctx context.Context, userID, txID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", userID, txID)
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return nil
}
