package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/OFFIS-RIT/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultContextTokens = 4096
	contextHeadroom      = 1024
)

// contextSize estimates the context window needed for the prompt. It returns
// 0 when the model default is large enough or no estimate is available.
func contextSize(prompt string, system ...string) int {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return 0
	}
	tokens := contextHeadroom + len(enc.Encode(prompt, nil, nil))
	for _, p := range system {
		tokens += len(enc.Encode(p, nil, nil))
	}
	if tokens <= defaultContextTokens {
		return 0
	}
	return tokens
}

func (c *GraphOllamaClient) chat(ctx context.Context, options ai.GenerateOptions, prompt string, format json.RawMessage) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   format,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	if n := contextSize(prompt, options.SystemPrompts...); n > 0 {
		req.Options["num_ctx"] = n
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	durationMs := final.Metrics.TotalDuration.Milliseconds()
	c.Record(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   durationMs,
	})
	logger.Debug("[AI] Completion", "model", options.Model, "duration_ms", durationMs, "tokens", final.Metrics.PromptEvalCount+final.Metrics.EvalCount)

	if final.Message.Content == "" {
		return "", errors.New("empty response from model")
	}
	return final.Message.Content, nil
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{Model: c.extractionModel, Temperature: 0}, opts...)
	return c.chat(ctx, options, prompt, nil)
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals into out.
func (c *GraphOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.ApplyOptions(ai.GenerateOptions{Model: c.extractionModel, Temperature: 0}, opts...)
	content, err := c.chat(ctx, options, prompt, json.RawMessage(formatBytes))
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(content, out)
}
