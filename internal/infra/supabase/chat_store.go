package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wangku-app/wangku-api/internal/domain"
)

// ============================================================
// ChatLogStore implementation — chat_messages table via PostgREST
// ============================================================

// ListChatMessages returns the full chat history, timestamp ascending.
func (c *Client) ListChatMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListChatMessages")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []domain.ChatMessage
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("chat_messages?user_id=eq.%s&order=timestamp.asc", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil {
			rows = []domain.ChatMessage{}
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/chat_messages", Err: err}
	}
	return rows, nil
}

// AppendChatMessage inserts one chat log entry. The log is append-only;
// there is no update or delete path.
func (c *Client) AppendChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	ctx, span := tracer.Start(ctx, "Supabase.AppendChatMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", msg.UserID),
		attribute.String("role", msg.Role),
	)

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	row := map[string]any{
		"user_id":   msg.UserID,
		"role":      msg.Role,
		"text":      msg.Text,
		"timestamp": ts.Format(time.RFC3339),
	}
	if msg.ID != "" {
		row["id"] = msg.ID
	}

	if _, err := c.doPost(ctx, "chat_messages", row); err != nil {
		return &domain.ErrExternalService{Service: "supabase/chat_messages", Err: err}
	}
	return nil
}
