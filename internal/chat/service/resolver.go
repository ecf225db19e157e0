package service

import (
	"encoding/json"
	"fmt"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
)

// ============================================================
// Response resolver — turns the loosely-shaped provider payload
// into reply text, an empty-success marker, or a failure
// ============================================================

// stringField returns the value of key as a string when present
// and non-empty. Non-string scalars are stringified; empty strings
// count as absent.
func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprintf("%v", s), true
	}
}

func dataObject(payload map[string]any) map[string]any {
	if d, ok := payload["data"].(map[string]any); ok {
		return d
	}
	return nil
}

// Resolve applies the reply-lookup priority order to a decoded
// provider payload. A payload without status=true is a failure; a
// successful payload with no reply in any known field is empty.
func Resolve(payload map[string]any) chatdomain.Outcome {
	if status, _ := payload["status"].(bool); !status {
		detail, ok := stringField(payload, "msg")
		if !ok {
			detail, ok = stringField(payload, "message")
		}
		if !ok {
			detail, ok = stringField(payload, "error")
		}
		if !ok {
			raw, _ := json.Marshal(payload)
			detail = string(raw)
		}
		return chatdomain.Outcome{Kind: chatdomain.OutcomeFailure, Detail: detail}
	}

	data := dataObject(payload)

	// Nested fields first, then top-level fallbacks. Order matters:
	// some provider versions answer in data.msg, older ones at the
	// top level.
	if data != nil {
		for _, key := range []string{"msg", "text", "content"} {
			if text, ok := stringField(data, key); ok {
				return chatdomain.Outcome{Kind: chatdomain.OutcomeContent, Text: text}
			}
		}
	}
	for _, key := range []string{"msg", "text", "reply", "message", "result"} {
		if text, ok := stringField(payload, key); ok {
			return chatdomain.Outcome{Kind: chatdomain.OutcomeContent, Text: text}
		}
	}
	if len(data) > 0 {
		raw, _ := json.Marshal(data)
		return chatdomain.Outcome{Kind: chatdomain.OutcomeContent, Text: string(raw)}
	}

	return chatdomain.Outcome{Kind: chatdomain.OutcomeEmpty}
}
