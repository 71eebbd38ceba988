package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/store"
)

func nodeLabel(n common.Node) string {
	if n.ID == "" {
		return n.Type
	}
	return n.ID
}

// RenderDOT renders edges as a Graphviz digraph. Nodes are identified by
// type and id, so an entity stored twice is drawn once.
func RenderDOT(edges []common.Edge) string {
	var sb strings.Builder
	sb.WriteString("digraph kgraph {\n")
	sb.WriteString("  node [shape=box];\n")

	ids := map[string]string{}
	nodeID := func(n common.Node) string {
		key := store.NodeKey(n)
		if id, ok := ids[key]; ok {
			return id
		}
		id := fmt.Sprintf("n%d", len(ids))
		ids[key] = id
		fmt.Fprintf(&sb, "  %s [label=%s, tooltip=%s];\n", id, strconv.Quote(nodeLabel(n)), strconv.Quote(n.Type))
		return id
	}

	for _, e := range edges {
		src := nodeID(e.Source)
		dst := nodeID(e.Target)
		fmt.Fprintf(&sb, "  %s -> %s [label=%s];\n", src, dst, strconv.Quote(e.Type))
	}
	sb.WriteString("}\n")
	return sb.String()
}
