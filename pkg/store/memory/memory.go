// Package memory provides an in-process GraphStorage. It keeps the same
// append semantics as the database backends and is used for dry runs and
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/store"
)

type node struct {
	label string
	props map[string]any
}

type relationship struct {
	source, target int
	typ            string
	props          map[string]any
}

// MemoryStorage holds a property graph in memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	nodes  []node
	rels   []relationship
	closed bool
}

// NewMemoryStorage creates an empty graph.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	s.nodes = nil
	s.rels = nil
	return nil
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func (s *MemoryStorage) SaveFragment(ctx context.Context, fragment common.Fragment, includeSource bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	plan := store.PlanFragment(fragment, includeSource)
	offset := len(s.nodes)
	for _, n := range plan.Nodes {
		s.nodes = append(s.nodes, node{label: n.Label, props: n.Properties})
	}
	for _, r := range plan.Relationships {
		s.rels = append(s.rels, relationship{
			source: offset + r.Source,
			target: offset + r.Target,
			typ:    r.Type,
			props:  r.Properties,
		})
	}
	return nil
}

func (s *MemoryStorage) GetStatistics(ctx context.Context) (common.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return common.Statistics{}, store.ErrClosed
	}

	labels := make([]string, 0, len(s.nodes))
	for _, n := range s.nodes {
		labels = append(labels, n.label)
	}
	types := make([]string, 0, len(s.rels))
	for _, r := range s.rels {
		types = append(types, r.typ)
	}
	return common.Statistics{
		Nodes:             int64(len(s.nodes)),
		Relationships:     int64(len(s.rels)),
		NodeTypes:         store.DistinctSorted(labels),
		RelationshipTypes: store.DistinctSorted(types),
	}, nil
}

func (s *MemoryStorage) toNode(i int) common.Node {
	n := s.nodes[i]
	props := copyProps(n.props)
	name, _ := props["name"].(string)
	delete(props, "name")
	return common.Node{ID: name, Type: n.label, Properties: props}
}

// GetEdges returns relationships in insertion order.
func (s *MemoryStorage) GetEdges(ctx context.Context, limit int) ([]common.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	n := len(s.rels)
	if limit >= 0 && limit < n {
		n = limit
	}
	edges := make([]common.Edge, 0, n)
	for _, r := range s.rels[:n] {
		edges = append(edges, common.Edge{
			Source:     s.toNode(r.source),
			Type:       r.typ,
			Properties: copyProps(r.props),
			Target:     s.toNode(r.target),
		})
	}
	return edges, nil
}

func (s *MemoryStorage) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
