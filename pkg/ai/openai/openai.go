package openai

import (
	"errors"

	"github.com/OFFIS-RIT/kgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrNoAPIKey is returned by NewGraphOpenAIClient when no key is configured.
var ErrNoAPIKey = errors.New("openai: no api key configured")

// GraphOpenAIClient talks to an OpenAI compatible chat completions API.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	ai.MetricsRecorder

	extractionModel string

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ExtractionModel specifies the model used for graph extraction.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL targets api.openai.com.
// RequestOptions are passed to the underlying client, e.g. for retries or a
// custom HTTP client.
type NewGraphOpenAIClientParams struct {
	ExtractionModel string
	ChatURL         string
	ChatKey         string
	RequestOptions  []option.RequestOption
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient.
//
// Example:
//
//	client, err := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ExtractionModel: "gpt-4o",
//		ChatKey:         os.Getenv("AI_CHAT_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) (*GraphOpenAIClient, error) {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey, params.RequestOptions...)
	if chatClient == nil {
		return nil, ErrNoAPIKey
	}

	model := params.ExtractionModel
	if model == "" {
		model = "gpt-4o"
	}

	return &GraphOpenAIClient{
		extractionModel: model,
		ChatClient:      chatClient,
	}, nil
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
	extra ...option.RequestOption,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	options = append(options, extra...)

	client := openai.NewClient(options...)

	return &client
}
