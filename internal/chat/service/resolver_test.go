package service

import (
	"encoding/json"
	"testing"

	chatdomain "github.com/wangku-app/wangku-api/internal/chat/domain"
)

func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return m
}

func TestResolve_FailureDetailPriority(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		detail  string
	}{
		{"msg wins", `{"status":false,"msg":"kuota habis","message":"other","error":"x"}`, "kuota habis"},
		{"message next", `{"status":false,"message":"invalid key","error":"x"}`, "invalid key"},
		{"error next", `{"status":false,"error":"boom"}`, "boom"},
		{"missing status is failure", `{"msg":"no status field"}`, "no status field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resolve(decodePayload(t, tt.payload))
			if out.Kind != chatdomain.OutcomeFailure {
				t.Fatalf("Kind = %v, want OutcomeFailure", out.Kind)
			}
			if out.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", out.Detail, tt.detail)
			}
		})
	}
}

func TestResolve_FailureWithoutDetailFallsBackToFullPayload(t *testing.T) {
	out := Resolve(decodePayload(t, `{"status":false,"code":429}`))
	if out.Kind != chatdomain.OutcomeFailure {
		t.Fatalf("Kind = %v, want OutcomeFailure", out.Kind)
	}
	var echoed map[string]any
	if err := json.Unmarshal([]byte(out.Detail), &echoed); err != nil {
		t.Fatalf("Detail is not the serialized payload: %v", err)
	}
	if echoed["code"] != float64(429) {
		t.Errorf("Detail lost payload fields: %s", out.Detail)
	}
}

func TestResolve_ContentPriority(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		text    string
	}{
		{"data.msg first", `{"status":true,"data":{"msg":"a","text":"b","content":"c"},"msg":"d"}`, "a"},
		{"data.text next", `{"status":true,"data":{"text":"b","content":"c"},"msg":"d"}`, "b"},
		{"data.content next", `{"status":true,"data":{"content":"c"},"msg":"d"}`, "c"},
		{"top-level msg", `{"status":true,"msg":"d","text":"e"}`, "d"},
		{"top-level text", `{"status":true,"text":"e","reply":"f"}`, "e"},
		{"top-level reply", `{"status":true,"reply":"f","message":"g"}`, "f"},
		{"top-level message", `{"status":true,"message":"g","result":"h"}`, "g"},
		{"top-level result", `{"status":true,"result":"h"}`, "h"},
		{"empty strings are skipped", `{"status":true,"data":{"msg":""},"text":"e"}`, "e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resolve(decodePayload(t, tt.payload))
			if out.Kind != chatdomain.OutcomeContent {
				t.Fatalf("Kind = %v, want OutcomeContent", out.Kind)
			}
			if out.Text != tt.text {
				t.Errorf("Text = %q, want %q", out.Text, tt.text)
			}
		})
	}
}

func TestResolve_NonEmptyDataObjectSerializedAsLastResort(t *testing.T) {
	out := Resolve(decodePayload(t, `{"status":true,"data":{"weird_field":"hi"}}`))
	if out.Kind != chatdomain.OutcomeContent {
		t.Fatalf("Kind = %v, want OutcomeContent", out.Kind)
	}
	if out.Text != `{"weird_field":"hi"}` {
		t.Errorf("Text = %q", out.Text)
	}
}

func TestResolve_EmptySuccess(t *testing.T) {
	for _, raw := range []string{
		`{"status":true}`,
		`{"status":true,"data":{}}`,
	} {
		out := Resolve(decodePayload(t, raw))
		if out.Kind != chatdomain.OutcomeEmpty {
			t.Errorf("Resolve(%s).Kind = %v, want OutcomeEmpty", raw, out.Kind)
		}
	}
}
