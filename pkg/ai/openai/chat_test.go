package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kgraph/pkg/ai"

	"github.com/openai/openai-go/v3/option"
)

type graphOut struct {
	Nodes []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"nodes"`
}

func newTestClient(t *testing.T, content string, seen *map[string]any) *GraphOpenAIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	c, err := NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		ChatURL:        srv.URL + "/v1",
		ChatKey:        "test",
		RequestOptions: []option.RequestOption{option.WithMaxRetries(0)},
	})
	if err != nil {
		t.Fatalf("NewGraphOpenAIClient() error = %v", err)
	}
	return c
}

func TestNewGraphOpenAIClientWithoutKey(t *testing.T) {
	if _, err := NewGraphOpenAIClient(NewGraphOpenAIClientParams{}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	var seen map[string]any
	c := newTestClient(t, `{"nodes":[{"id":"Alice","type":"Person"}]}`, &seen)

	var out graphOut
	err := c.GenerateCompletionWithFormat(context.Background(), "extract_graph", "graph", "Alice works at Acme.", &out,
		ai.WithSystemPrompts("system"))
	if err != nil {
		t.Fatalf("GenerateCompletionWithFormat() error = %v", err)
	}
	if len(out.Nodes) != 1 || out.Nodes[0].ID != "Alice" {
		t.Fatalf("unexpected output %+v", out)
	}

	if seen["model"] != "gpt-4o" {
		t.Errorf("model = %v, want gpt-4o", seen["model"])
	}
	rf, _ := seen["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v, want json_schema", seen["response_format"])
	}
	if msgs, _ := seen["messages"].([]any); len(msgs) != 2 {
		t.Errorf("expected system and user message, got %v", seen["messages"])
	}

	m := c.GetMetrics()
	if m.Requests != 1 || m.TotalTokens != 15 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestGenerateCompletion(t *testing.T) {
	c := newTestClient(t, "hello", nil)
	got, err := c.GenerateCompletion(context.Background(), "hi")
	if err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}
	if got != "hello" {
		t.Fatalf("GenerateCompletion() = %q, want hello", got)
	}
}

func TestGenerateCompletionEmptyContent(t *testing.T) {
	c := newTestClient(t, "", nil)
	if _, err := c.GenerateCompletion(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty content")
	}
}
