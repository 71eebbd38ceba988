package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type graphOut struct {
	Nodes []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"nodes"`
}

func newTestClient(t *testing.T, content string, seen *map[string]any) *GraphOllamaClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.1",
			"created_at":        "2026-01-01T00:00:00Z",
			"message":           map[string]any{"role": "assistant", "content": content},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        8,
			"total_duration":    2000000,
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewGraphOllamaClient(NewGraphOllamaClientParams{
		ExtractionModel: "llama3.1",
		BaseURL:         srv.URL,
		ApiKey:          "secret",
	})
	if err != nil {
		t.Fatalf("NewGraphOllamaClient() error = %v", err)
	}
	return c
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	var seen map[string]any
	c := newTestClient(t, `{"nodes":[{"id":"Acme","type":"Organization"}]}`, &seen)

	var out graphOut
	if err := c.GenerateCompletionWithFormat(context.Background(), "extract_graph", "graph", "Acme.", &out); err != nil {
		t.Fatalf("GenerateCompletionWithFormat() error = %v", err)
	}
	if len(out.Nodes) != 1 || out.Nodes[0].Type != "Organization" {
		t.Fatalf("unexpected output %+v", out)
	}
	if seen["model"] != "llama3.1" {
		t.Errorf("model = %v, want llama3.1", seen["model"])
	}
	if _, ok := seen["format"].(map[string]any); !ok {
		t.Errorf("expected json schema format, got %T", seen["format"])
	}

	m := c.GetMetrics()
	if m.InputTokens != 12 || m.OutputTokens != 8 || m.TotalTokens != 20 || m.DurationMs != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestGenerateCompletionWithFormatRejectsNonPointer(t *testing.T) {
	c := newTestClient(t, "{}", nil)
	if err := c.GenerateCompletionWithFormat(context.Background(), "n", "d", "p", graphOut{}); err == nil {
		t.Fatal("expected error for non-pointer out")
	}
}

func TestGenerateCompletionEmpty(t *testing.T) {
	c := newTestClient(t, "", nil)
	if _, err := c.GenerateCompletion(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
