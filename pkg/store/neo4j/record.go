package neo4j

import (
	"github.com/OFFIS-RIT/kgraph/pkg/common"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch i := val.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	}
	return 0
}

// toNode maps a stored node back to a common.Node. The "name" property
// becomes the id; the first label the type.
func toNode(n neo4j.Node) common.Node {
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}
	name, _ := props["name"].(string)
	delete(props, "name")

	typ := ""
	if len(n.Labels) > 0 {
		typ = n.Labels[0]
	}
	return common.Node{ID: name, Type: typ, Properties: props}
}

func edgeFromRecord(record *neo4j.Record) (common.Edge, bool) {
	sv, _ := record.Get("s")
	rv, _ := record.Get("r")
	tv, _ := record.Get("t")

	src, ok1 := sv.(neo4j.Node)
	rel, ok2 := rv.(neo4j.Relationship)
	dst, ok3 := tv.(neo4j.Node)
	if !ok1 || !ok2 || !ok3 {
		return common.Edge{}, false
	}
	return common.Edge{
		Source:     toNode(src),
		Type:       rel.Type,
		Properties: rel.Props,
		Target:     toNode(dst),
	}, true
}
