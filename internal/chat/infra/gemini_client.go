package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wangku-app/wangku-api/internal/domain"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// GeminiClient — HTTP transport for the Gemini generateContent API
// ============================================================
//
// Contract:
//
//	POST {base}/v1beta/models/{model}:generateContent?key={apiKey}
//	body: {"contents":[{"parts":[{"text": prompt}]}]}
//
// The generated text lives at candidates[0].content.parts[0].text.

type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	cb         *gobreaker.CircuitBreaker
}

func NewGeminiClient(httpClient *http.Client, baseURL, model string, cb *gobreaker.CircuitBreaker) *GeminiClient {
	return &GeminiClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		model:      model,
		cb:         cb,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent runs one completion and returns the raw text of
// the first candidate. Single attempt; the caller degrades to a
// fixed message on error.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt, apiKey string) (string, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.GenerateContent")
	defer span.End()
	span.SetAttributes(attribute.String("model", c.model))

	result, err := c.cb.Execute(func() (any, error) {
		body, err := json.Marshal(geminiRequest{
			Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		})
		if err != nil {
			return nil, fmt.Errorf("marshal generate request: %w", err)
		}

		endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
			c.baseURL, c.model, url.QueryEscape(apiKey))
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create http request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "gemini", Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &domain.ErrExternalService{
				Service: "gemini",
				Err:     fmt.Errorf("generateContent returned status %d", resp.StatusCode),
			}
		}

		var decoded geminiResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return nil, &domain.ErrExternalService{Service: "gemini", Err: err}
		}
		if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
			return "", nil
		}
		return decoded.Candidates[0].Content.Parts[0].Text, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", &domain.ErrExternalService{Service: "gemini", Err: err}
		}
		return "", err
	}
	return result.(string), nil
}
