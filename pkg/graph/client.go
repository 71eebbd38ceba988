package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/kgraph/pkg/chunk"
)

// ChunkMode selects how chunk sizes are measured.
type ChunkMode string

const (
	ChunkModeChars  ChunkMode = "chars"
	ChunkModeTokens ChunkMode = "tokens"
)

// Locker makes a run exclusive. Lock calls fn while holding the lock and
// returns its error.
type Locker interface {
	Lock(ctx context.Context, fn func(ctx context.Context) error) error
}

// GraphClient runs the document to graph pipeline. It holds the chunking,
// parallelism and retry settings of a run; stores and transformers are
// passed per call.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	chunkMode      ChunkMode
	maxChunkSize   int
	tokenEncoder   string
	maxChunkTokens int
	parallelFiles  int
	parallelChunks int
	maxRetries     int
	extractTimeout time.Duration
	includeSource  bool
	instructions   string
	locker         Locker
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// MaxChunkSize is the chunk length in characters (default 12000). With
// ChunkMode "tokens" chunks are measured in TokenEncoder tokens instead and
// MaxChunkTokens bounds them. ParallelFiles and ParallelChunks default to 1,
// which processes files and chunks strictly in order. MaxRetries bounds the
// extraction attempts per chunk, ExtractTimeout each attempt.
// IncludeSource links every stored node to a Document node holding the chunk
// text. Instructions replace the default extraction instructions. Locker
// wraps every run; without one, runs of the client and its copies are
// serialized in process.
type NewGraphClientParams struct {
	ChunkMode      ChunkMode
	MaxChunkSize   int
	TokenEncoder   string
	MaxChunkTokens int
	ParallelFiles  int
	ParallelChunks int
	MaxRetries     int
	ExtractTimeout time.Duration
	IncludeSource  bool
	Instructions   string
	Locker         Locker
}

const (
	defaultMaxRetries     = 3
	defaultExtractTimeout = 2 * time.Minute
	defaultMaxChunkTokens = 4000
)

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		ParallelChunks: 4,
//		IncludeSource:  true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	g := &GraphClient{
		chunkMode:      params.ChunkMode,
		maxChunkSize:   params.MaxChunkSize,
		tokenEncoder:   params.TokenEncoder,
		maxChunkTokens: params.MaxChunkTokens,
		parallelFiles:  max(params.ParallelFiles, 1),
		parallelChunks: max(params.ParallelChunks, 1),
		maxRetries:     params.MaxRetries,
		extractTimeout: params.ExtractTimeout,
		includeSource:  params.IncludeSource,
		instructions:   params.Instructions,
		locker:         params.Locker,
	}
	if g.locker == nil {
		g.locker = newMutexLocker()
	}
	if g.chunkMode == "" {
		g.chunkMode = ChunkModeChars
	}
	if g.chunkMode != ChunkModeChars && g.chunkMode != ChunkModeTokens {
		return nil, fmt.Errorf("unknown chunk mode %q", params.ChunkMode)
	}
	if g.maxChunkSize <= 0 {
		g.maxChunkSize = chunk.DefaultMaxSize
	}
	if g.tokenEncoder == "" {
		g.tokenEncoder = chunk.DefaultEncoding
	}
	if g.maxChunkTokens <= 0 {
		g.maxChunkTokens = defaultMaxChunkTokens
	}
	if g.maxRetries <= 0 {
		g.maxRetries = defaultMaxRetries
	}
	if g.extractTimeout <= 0 {
		g.extractTimeout = defaultExtractTimeout
	}
	return g, nil
}

// WithInstructions returns a copy of g that passes instructions to the
// extraction of every chunk. An empty string keeps the current ones.
func (g *GraphClient) WithInstructions(instructions string) *GraphClient {
	if instructions == "" {
		return g
	}
	c := *g
	c.instructions = instructions
	return &c
}

// WithIncludeSource returns a copy of the client that stores provenance
// Document nodes when include is true.
func (g *GraphClient) WithIncludeSource(include bool) *GraphClient {
	c := *g
	c.includeSource = include
	return &c
}

// IncludeSource reports whether runs store provenance Document nodes.
func (g *GraphClient) IncludeSource() bool {
	return g.includeSource
}

func (g *GraphClient) split(text string) ([]string, error) {
	if g.chunkMode == ChunkModeTokens {
		return chunk.SplitTokens(text, g.tokenEncoder, g.maxChunkTokens)
	}
	return chunk.Split(text, g.maxChunkSize), nil
}
