package neo4j

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/store"
)

const (
	resetQuery      = `MATCH (n) DETACH DELETE n`
	countNodesQuery = `MATCH (n) RETURN count(n) AS node_count`
	countRelsQuery  = `MATCH ()-[r]->() RETURN count(r) AS relationship_count`
	nodeLabelsQuery = `MATCH (n) UNWIND labels(n) AS label RETURN DISTINCT label ORDER BY label`
	relTypesQuery   = `MATCH ()-[r]->() RETURN DISTINCT type(r) AS type ORDER BY type`
	edgesQuery      = `MATCH (s)-[r]->(t) RETURN s, r, t LIMIT $limit`
	allEdgesQuery   = `MATCH (s)-[r]->(t) RETURN s, r, t`
)

// buildEdgesQuery returns the edge sample query for limit. Neo4j rejects a
// negative LIMIT, so a negative limit selects every edge.
func buildEdgesQuery(limit int) (string, map[string]any) {
	if limit < 0 {
		return allEdgesQuery, nil
	}
	return edgesQuery, map[string]any{"limit": int64(limit)}
}

// quoteIdentifier returns label as a backtick-quoted Cypher identifier.
func quoteIdentifier(label string) string {
	return "`" + strings.ReplaceAll(label, "`", "``") + "`"
}

// propertyValue converts a value to something Neo4j accepts as a property.
// Nested maps are not valid property values and are stored as their string
// form.
func propertyValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int, int64, float64:
		return t
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return fmt.Sprint(t)
	}
}

func properties(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		out[k] = propertyValue(v)
	}
	return out
}

// buildFragmentQuery renders a single CREATE statement for a fragment. Nodes
// are bound to variables n0..nN so relationships can refer to them without a
// lookup. Relationships whose endpoints are not part of the node list create
// the missing nodes.
func buildFragmentQuery(fragment common.Fragment, includeSource bool) (string, map[string]any) {
	var (
		sb     strings.Builder
		params = map[string]any{}
		vars   = map[string]string{}
		order  []string
	)

	addNode := func(n common.Node) string {
		key := store.NodeKey(n)
		if v, ok := vars[key]; ok {
			return v
		}
		v := fmt.Sprintf("n%d", len(order))
		vars[key] = v
		order = append(order, v)
		params[v] = properties(store.NodeProperties(n))
		fmt.Fprintf(&sb, "CREATE (%s:%s $%s)\n", v, quoteIdentifier(store.SanitizeLabel(n.Type, store.DefaultNodeLabel)), v)
		return v
	}

	for _, n := range fragment.Nodes {
		addNode(n)
	}
	for i, r := range fragment.Relationships {
		src := addNode(r.Source)
		dst := addNode(r.Target)
		p := fmt.Sprintf("r%d", i)
		params[p] = properties(r.Properties)
		fmt.Fprintf(&sb, "CREATE (%s)-[:%s $%s]->(%s)\n", src, quoteIdentifier(store.SanitizeLabel(r.Type, store.DefaultRelationshipType)), p, dst)
	}

	if includeSource && fragment.Source != nil {
		params["doc"] = properties(store.DocumentProperties(*fragment.Source))
		fmt.Fprintf(&sb, "CREATE (doc:%s $doc)\n", quoteIdentifier(store.DocumentLabel))
		for _, v := range order {
			fmt.Fprintf(&sb, "CREATE (doc)-[:%s]->(%s)\n", quoteIdentifier(store.MentionsType), v)
		}
	}

	return strings.TrimSuffix(sb.String(), "\n"), params
}
