package ollama

import (
	"net/http"
	"net/url"

	"github.com/OFFIS-RIT/kgraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrentRequests = 4

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama as the backend.
// Concurrent requests are bounded by MaxConcurrentRequests so a single
// locally-hosted model is not flooded by parallel chunks.
type GraphOllamaClient struct {
	ai.MetricsRecorder

	extractionModel string

	reqLock *semaphore.Weighted

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	ExtractionModel string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
	HTTPClient            *http.Client
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client with the specified configuration.
// It connects to the Ollama server at the given BaseURL (or the default if empty).
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	u, err := url.Parse("http://127.0.0.1:11434")
	if err != nil {
		return nil, err
	}
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	base := http.DefaultTransport
	if params.HTTPClient != nil && params.HTTPClient.Transport != nil {
		base = params.HTTPClient.Transport
	}
	httpClient := &http.Client{Transport: base}
	if params.ApiKey != "" {
		httpClient.Transport = &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: base,
		}
	}

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = defaultMaxConcurrentRequests
	}

	return &GraphOllamaClient{
		extractionModel: params.ExtractionModel,
		reqLock:         semaphore.NewWeighted(maxReq),
		Client:          api.NewClient(u, httpClient),
	}, nil
}
