// Package setup turns a configuration into the collaborators of a graph run.
package setup

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/kgraph/internal/config"
	"github.com/OFFIS-RIT/kgraph/pkg/ai"
	oai "github.com/OFFIS-RIT/kgraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/kgraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/store"
	"github.com/OFFIS-RIT/kgraph/pkg/store/memory"
	neo4jstore "github.com/OFFIS-RIT/kgraph/pkg/store/neo4j"
	pgxstore "github.com/OFFIS-RIT/kgraph/pkg/store/pgx"
)

// NewAIClient creates the client selected by cfg.Adapter.
func NewAIClient(cfg config.AIConfig) (ai.GraphAIClient, error) {
	switch cfg.Adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ExtractionModel:       cfg.ExtractModel,
			BaseURL:               cfg.ChatURL,
			ApiKey:                cfg.ChatKey,
			MaxConcurrentRequests: int64(cfg.ParallelRequests),
		})
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
		return client, nil
	default:
		client, err := gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ExtractionModel: cfg.ExtractModel,
			ChatURL:         cfg.ChatURL,
			ChatKey:         cfg.ChatKey,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create openai client: %w", err)
		}
		return client, nil
	}
}

// NewGraphStorage connects the store selected by cfg.Adapter. The returned
// locker is nil unless the backend can make runs exclusive across
// processes.
func NewGraphStorage(ctx context.Context, cfg config.StoreConfig) (store.GraphStorage, graph.Locker, error) {
	switch cfg.Adapter {
	case "memory":
		return memory.NewMemoryStorage(), nil, nil
	case "postgres":
		s, err := pgxstore.NewGraphDBStorage(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		lock := leaselock.NewRunLock(s.Pool(), leaselock.DefaultKey, leaselock.Options{Wait: true})
		return s, lock, nil
	default:
		s, err := neo4jstore.NewGraphNeo4jStorage(ctx, neo4jstore.NewGraphNeo4jStorageParams{
			URL:      cfg.Neo4jURL,
			Username: cfg.Neo4jUsername,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
}

// NewGraphClient maps the graph settings onto the graph client.
func NewGraphClient(cfg config.GraphConfig, locker graph.Locker) (*graph.GraphClient, error) {
	return graph.NewGraphClient(graph.NewGraphClientParams{
		ChunkMode:      graph.ChunkMode(cfg.ChunkMode),
		MaxChunkSize:   cfg.MaxChunkSize,
		TokenEncoder:   cfg.TokenEncoder,
		MaxChunkTokens: cfg.MaxChunkTokens,
		ParallelFiles:  cfg.ParallelFiles,
		ParallelChunks: cfg.ParallelChunks,
		MaxRetries:     cfg.MaxRetries,
		ExtractTimeout: cfg.ExtractTimeout,
		IncludeSource:  cfg.IncludeSource,
		Instructions:   cfg.Instructions,
		Locker:         locker,
	})
}

// Pipeline bundles everything a run needs.
type Pipeline struct {
	Graph       *graph.GraphClient
	Store       store.GraphStorage
	Transformer graph.Transformer
	AI          ai.GraphAIClient
}

// NewPipeline builds all collaborators from cfg.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	aiClient, err := NewAIClient(cfg.AI)
	if err != nil {
		return nil, err
	}
	s, locker, err := NewGraphStorage(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	g, err := NewGraphClient(cfg.Graph, locker)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	logger.Debug("[Setup] Pipeline ready", "ai", cfg.AI.Adapter, "store", cfg.Store.Adapter, "include_source", cfg.Graph.IncludeSource)
	return &Pipeline{
		Graph:       g,
		Store:       s,
		Transformer: graph.NewLLMTransformer(aiClient),
		AI:          aiClient,
	}, nil
}

// Close releases the store.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.Store.Close(ctx)
}
