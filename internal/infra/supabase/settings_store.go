package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wangku-app/wangku-api/internal/domain"
	"github.com/wangku-app/wangku-api/internal/port"
)

// ============================================================
// SettingsStore implementation — user_settings table via PostgREST
// ============================================================
//
// Rows carry the sealed credentials only. Encryption and decryption happen
// in the settings service; this store never sees a plaintext key.

// GetSettingsRow fetches the encrypted settings row for a user.
func (c *Client) GetSettingsRow(ctx context.Context, userID string) (*port.SettingsRow, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSettingsRow")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []port.SettingsRow
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("user_settings?user_id=eq.%s&limit=1", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			rows = nil
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/user_settings", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "user_settings", ID: userID}
	}
	return &rows[0], nil
}

// UpsertSettingsRow inserts or replaces the settings row (merge-duplicates
// upsert keyed on user_id).
func (c *Client) UpsertSettingsRow(ctx context.Context, row *port.SettingsRow) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertSettingsRow")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", row.UserID))

	payload := map[string]any{
		"user_id":        row.UserID,
		"termai_key_enc": row.TermaiKeyEnc,
		"gemini_key_enc": row.GeminiKeyEnc,
		"updated_at":     time.Now().Format(time.RFC3339),
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/rest/v1/user_settings", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	c.setAuthHeaders(req)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/user_settings", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		return &domain.ErrExternalService{
			Service: "supabase/user_settings",
			Err:     fmt.Errorf("upsert returned %d: %s", resp.StatusCode, string(body)),
		}
	}
	return nil
}
