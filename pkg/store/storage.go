package store

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
)

// DocumentLabel is the label of provenance nodes written when sources are
// included, and MentionsType the relationship linking them to the nodes they
// mention.
const (
	DocumentLabel = "Document"
	MentionsType  = "MENTIONS"
)

// Fallbacks for node and relationship types that sanitize to nothing.
const (
	DefaultNodeLabel        = "Entity"
	DefaultRelationshipType = "RELATED_TO"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store: closed")

// GraphStorage defines the interface for persisting a property graph built
// from extracted fragments.
//
// SaveFragment appends the elements of a fragment as they are; nodes with the
// same id coming from different fragments are stored as separate nodes.
// Implementations must be safe for use by one writer at a time; callers
// serialize writes.
type GraphStorage interface {
	// Reset deletes all nodes and relationships.
	Reset(ctx context.Context) error
	// SaveFragment persists nodes and relationships of one fragment. With
	// includeSource a Document node holding the chunk text is created and
	// linked to every node of the fragment with a MENTIONS relationship.
	SaveFragment(ctx context.Context, fragment common.Fragment, includeSource bool) error
	GetStatistics(ctx context.Context) (common.Statistics, error)
	// GetEdges returns up to limit relationships with their endpoints.
	GetEdges(ctx context.Context, limit int) ([]common.Edge, error)
	Close(ctx context.Context) error
}
