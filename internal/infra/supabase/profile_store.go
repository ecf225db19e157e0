package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wangku-app/wangku-api/internal/domain"
)

// ============================================================
// ProfileStore implementation — profiles table via PostgREST
// ============================================================

// supabaseProfile maps profiles table columns to our domain.
type supabaseProfile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	CurrentBalance float64 `json:"current_balance"`
}

// GetProfile fetches the user profile. Returns ErrNotFound when the row does
// not exist yet — the service layer upserts an empty profile in that case.
func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []supabaseProfile
	err := c.withResilience(ctx, func() error {
		path := fmt.Sprintf("profiles?id=eq.%s&limit=1", userID)
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
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}

	p := rows[0]
	return &domain.Profile{
		ID:             p.ID,
		Name:           p.Name,
		CurrentBalance: p.CurrentBalance,
	}, nil
}

// UpsertProfile inserts or replaces the profile row (PostgREST merge-duplicates
// upsert keyed on the primary key).
func (c *Client) UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", profile.ID))

	url := fmt.Sprintf("%s/rest/v1/profiles", c.baseURL)
	jsonBody, err := json.Marshal(supabaseProfile{
		ID:             profile.ID,
		Name:           profile.Name,
		CurrentBalance: profile.CurrentBalance,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ErrExternalService{
			Service: "supabase/profiles",
			Err:     fmt.Errorf("upsert returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	var results []supabaseProfile
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from profiles upsert")
	}

	r := results[0]
	return &domain.Profile{ID: r.ID, Name: r.Name, CurrentBalance: r.CurrentBalance}, nil
}
