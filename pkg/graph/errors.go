package graph

import "errors"

var (
	// ErrGraphExtraction marks a chunk whose graph could not be extracted.
	// The chunk is skipped and the run continues.
	ErrGraphExtraction = errors.New("graph extraction failed")
	// ErrStore marks a failed graph store operation. Reset and statistics
	// failures are logged, a failed merge drops the fragment of that chunk.
	ErrStore = errors.New("graph store operation failed")
	// ErrNilCollaborator is returned when a run is started without a store
	// or transformer.
	ErrNilCollaborator = errors.New("graph: nil store or transformer")
)
