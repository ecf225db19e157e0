package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
	"github.com/wangku-app/wangku-api/internal/domain"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("chat/infra")

// ============================================================
// TermaiClient — HTTP transport for the TerMai chat provider
// ============================================================
//
// Contract:
//
//	POST {base}/api/chat/logic-bell?key={apiKey}     body: TermaiRequest
//	GET  {base}/api/chat/logic-bell/reset?id=..&key=..
//
// The provider reports failures in-band with status=false and an
// HTTP 200, and sometimes attaches bodies to non-2xx statuses too.
// Send therefore decodes the body regardless of status and leaves
// interpretation to the resolver. Calls are never retried; a turn
// is not idempotent on the provider side.

const rawBodyLimit = 2048

type TermaiClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
}

func NewTermaiClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker) *TermaiClient {
	return &TermaiClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
	}
}

// Send posts one chat turn and returns the decoded payload.
// Network-level failures come back as ErrExternalService; a body
// that is not JSON comes back as MalformedResponseError with a
// truncated copy of the raw text.
func (c *TermaiClient) Send(ctx context.Context, req *chatdomain.TermaiRequest, apiKey string) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "TermaiClient.Send")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", req.ID))

	result, err := c.cb.Execute(func() (any, error) {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal chat request: %w", err)
		}

		endpoint := fmt.Sprintf("%s/api/chat/logic-bell?key=%s", c.baseURL, url.QueryEscape(apiKey))
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create http request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "termai", Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "termai", Err: err}
		}

		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, &chatdomain.MalformedResponseError{Raw: truncate(string(raw), rawBodyLimit)}
		}
		return payload, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &domain.ErrExternalService{Service: "termai", Err: err}
		}
		return nil, err
	}
	return result.(map[string]any), nil
}

// Reset drops the provider-side conversation state.
func (c *TermaiClient) Reset(ctx context.Context, conversationID, apiKey string) (*chatdomain.ResetResponse, error) {
	ctx, span := tracer.Start(ctx, "TermaiClient.Reset")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	endpoint := fmt.Sprintf("%s/api/chat/logic-bell/reset?id=%s&key=%s",
		c.baseURL, url.QueryEscape(conversationID), url.QueryEscape(apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "termai", Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Status bool   `json:"status"`
		Msg    string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ErrExternalService{Service: "termai", Err: err}
	}
	return &chatdomain.ResetResponse{Success: payload.Status, Message: payload.Msg}, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
