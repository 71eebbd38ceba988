package common

// Fragment represents the graph extracted from a single chunk of text. It
// collects the nodes and relationships found in that chunk together with the
// chunk itself as provenance.
//
// A fragment contains:
//   - Nodes: typed entities such as people, organizations or places
//   - Relationships: directional, typed edges between two nodes
//   - Source: the chunk of text the elements were extracted from
//
// Fragments are merged into the store as-is. Two fragments naming the same
// entity produce two nodes; no identity resolution takes place.
type Fragment struct {
	ID            string         `json:"id"`
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Source        *Document      `json:"source,omitempty"`
}

// Empty reports whether the fragment carries no graph elements.
func (f *Fragment) Empty() bool {
	return f == nil || (len(f.Nodes) == 0 && len(f.Relationships) == 0)
}

// Node represents an entity in the graph. The ID is the entity name as it
// appears in the text and is stored as the node's "name" property. Type
// becomes the node label.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Relationship represents a directional edge between two nodes in the graph.
// Type becomes the relationship type in the store, Properties carry details
// such as temporal context or significance.
type Relationship struct {
	Source     Node           `json:"source"`
	Target     Node           `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Document is the provenance record of a fragment: the chunk of text and the
// file it was taken from.
type Document struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Index    int    `json:"chunk"`
	Text     string `json:"text"`
}

// Statistics summarizes the content of a graph store.
//
// NodeTypes and RelationshipTypes hold the distinct labels and relationship
// types currently present, sorted ascending.
type Statistics struct {
	Nodes             int64    `json:"nodes"`
	Relationships     int64    `json:"relationships"`
	NodeTypes         []string `json:"node_types"`
	RelationshipTypes []string `json:"relationship_types"`
}

// Edge is a single (source)-[relationship]->(target) triple read back from
// the store, used for rendering a sample of the graph.
type Edge struct {
	Source     Node           `json:"source"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Target     Node           `json:"target"`
}
