package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/openai/openai-go/v3"
)

func (c *GraphOpenAIClient) messages(options ai.GenerateOptions, prompt string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	return append(msgs, openai.UserMessage(prompt))
}

func (c *GraphOpenAIClient) complete(ctx context.Context, body openai.ChatCompletionNewParams) (string, error) {
	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}
	duration := time.Since(start).Milliseconds()

	c.Record(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return "", fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}
	logger.Debug("[AI] Completion", "model", body.Model, "duration_ms", duration, "tokens", response.Usage.TotalTokens)
	return message, nil
}

// GenerateCompletion sends a single-turn prompt to the chat model and
// returns the generated completion as plain text.
func (c *GraphOpenAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{Model: c.extractionModel, Temperature: 0}, opts...)

	return c.complete(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    c.messages(options, prompt),
		Temperature: openai.Float(options.Temperature),
	})
}

// GenerateCompletionWithFormat sends a prompt to the chat model and
// unmarshals the response into out, using the JSON schema of out as a strict
// response format.
//
// Example:
//
//	var out extractResponse
//	err := client.GenerateCompletionWithFormat(ctx, "extract_graph", "Nodes and relationships", text, &out)
//	if err != nil {
//		log.Fatal(err)
//	}
func (c *GraphOpenAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	schema := ai.GenerateSchema(out)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	options := ai.ApplyOptions(ai.GenerateOptions{Model: c.extractionModel, Temperature: 0}, opts...)

	message, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    c.messages(options, prompt),
		Temperature: openai.Float(options.Temperature),
	})
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(message, out)
}
