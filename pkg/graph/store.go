package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/store"
)

// Reset clears the store. A failure is logged and returned wrapped in
// ErrStore; callers may continue regardless.
func (g *GraphClient) Reset(ctx context.Context, s store.GraphStorage) error {
	if err := s.Reset(ctx); err != nil {
		logger.Error("[Graph] Failed to reset graph store", "err", err)
		return fmt.Errorf("%w: reset: %w", ErrStore, err)
	}
	logger.Debug("[Graph] Graph store reset")
	return nil
}

// Statistics reads the store aggregates. A failure yields zeroed statistics.
func (g *GraphClient) Statistics(ctx context.Context, s store.GraphStorage) common.Statistics {
	st, err := s.GetStatistics(ctx)
	if err != nil {
		logger.Error("[Graph] Failed to read graph statistics", "err", err)
		return common.Statistics{NodeTypes: []string{}, RelationshipTypes: []string{}}
	}
	if st.NodeTypes == nil {
		st.NodeTypes = []string{}
	}
	if st.RelationshipTypes == nil {
		st.RelationshipTypes = []string{}
	}
	return st
}

// SampleEdges returns up to limit edges for rendering. A failure yields an
// empty sample.
func (g *GraphClient) SampleEdges(ctx context.Context, s store.GraphStorage, limit int) []common.Edge {
	edges, err := s.GetEdges(ctx, limit)
	if err != nil {
		logger.Error("[Graph] Failed to read graph edges", "err", err)
		return []common.Edge{}
	}
	return edges
}
