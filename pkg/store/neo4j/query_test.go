package neo4j

import (
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kgraph/pkg/common"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := map[string]string{
		"Person":   "`Person`",
		"a`b":      "`a``b`",
		"WORKS_AT": "`WORKS_AT`",
	}
	for in, want := range tests {
		if got := quoteIdentifier(in); got != want {
			t.Errorf("quoteIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildFragmentQuery(t *testing.T) {
	alice := common.Node{ID: "Alice", Type: "Person"}
	acme := common.Node{ID: "Acme", Type: "Organization"}
	f := common.Fragment{
		Nodes: []common.Node{alice, acme},
		Relationships: []common.Relationship{{
			Source: alice, Target: acme, Type: "WORKS_AT",
			Properties: map[string]any{"context": "since 2020"},
		}},
	}

	query, params := buildFragmentQuery(f, false)
	want := strings.Join([]string{
		"CREATE (n0:`Person` $n0)",
		"CREATE (n1:`Organization` $n1)",
		"CREATE (n0)-[:`WORKS_AT` $r0]->(n1)",
	}, "\n")
	if query != want {
		t.Fatalf("query =\n%s\nwant\n%s", query, want)
	}
	if !reflect.DeepEqual(params["n0"], map[string]any{"name": "Alice"}) {
		t.Fatalf("params[n0] = %#v", params["n0"])
	}
	if !reflect.DeepEqual(params["r0"], map[string]any{"context": "since 2020"}) {
		t.Fatalf("params[r0] = %#v", params["r0"])
	}
}

func TestBuildFragmentQueryMissingEndpointAndSource(t *testing.T) {
	alice := common.Node{ID: "Alice", Type: "Person"}
	bob := common.Node{ID: "Bob", Type: "Person"}
	f := common.Fragment{
		Nodes:         []common.Node{alice},
		Relationships: []common.Relationship{{Source: alice, Target: bob, Type: "knows`"}},
		Source:        &common.Document{ID: "d", Filename: "a.txt", Index: 2, Text: "Alice knows Bob."},
	}
	query, params := buildFragmentQuery(f, true)
	for _, line := range []string{
		"CREATE (n1:`Person` $n1)",
		"CREATE (n0)-[:`knows` $r0]->(n1)",
		"CREATE (doc:`Document` $doc)",
		"CREATE (doc)-[:`MENTIONS`]->(n0)",
		"CREATE (doc)-[:`MENTIONS`]->(n1)",
	} {
		if !strings.Contains(query, line) {
			t.Errorf("query missing %q:\n%s", line, query)
		}
	}
	doc := params["doc"].(map[string]any)
	if doc["filename"] != "a.txt" || doc["chunk"] != 2 {
		t.Fatalf("params[doc] = %#v", doc)
	}
}

func TestBuildFragmentQueryEmpty(t *testing.T) {
	if q, _ := buildFragmentQuery(common.Fragment{}, true); q != "" {
		t.Fatalf("expected empty query, got %q", q)
	}
}

func TestPropertyValue(t *testing.T) {
	if got := propertyValue(map[string]any{"a": 1}); got != "map[a:1]" {
		t.Errorf("propertyValue(map) = %#v", got)
	}
	if got := propertyValue([]any{"x", 2}); !reflect.DeepEqual(got, []string{"x", "2"}) {
		t.Errorf("propertyValue([]any) = %#v", got)
	}
	if got := propertyValue("s"); got != "s" {
		t.Errorf("propertyValue(string) = %#v", got)
	}
}

func TestEdgeFromRecord(t *testing.T) {
	record := &neo4j.Record{
		Keys: []string{"s", "r", "t"},
		Values: []any{
			neo4j.Node{Labels: []string{"Person"}, Props: map[string]any{"name": "Alice"}},
			neo4j.Relationship{Type: "WORKS_AT", Props: map[string]any{"context": "x"}},
			neo4j.Node{Labels: []string{"Organization"}, Props: map[string]any{"name": "Acme", "city": "Berlin"}},
		},
	}
	edge, ok := edgeFromRecord(record)
	if !ok {
		t.Fatal("edgeFromRecord() not ok")
	}
	if edge.Source.ID != "Alice" || edge.Target.ID != "Acme" || edge.Type != "WORKS_AT" {
		t.Fatalf("unexpected edge %+v", edge)
	}
	if edge.Target.Properties["city"] != "Berlin" {
		t.Fatalf("unexpected target properties %+v", edge.Target.Properties)
	}

	if _, ok := edgeFromRecord(&neo4j.Record{Keys: []string{"s"}, Values: []any{"x"}}); ok {
		t.Fatal("expected malformed record to be rejected")
	}
}

func TestRecordHelpers(t *testing.T) {
	record := &neo4j.Record{Keys: []string{"c", "l"}, Values: []any{int64(3), "Person"}}
	if got := getInt64FromRecord(record, "c"); got != 3 {
		t.Errorf("getInt64FromRecord() = %d", got)
	}
	if got := getStringFromRecord(record, "l"); got != "Person" {
		t.Errorf("getStringFromRecord() = %q", got)
	}
	if got := getStringFromRecord(record, "missing"); got != "" {
		t.Errorf("getStringFromRecord(missing) = %q", got)
	}
}

func TestBuildEdgesQuery(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		query  string
		params map[string]any
	}{
		{name: "limited", limit: 25, query: edgesQuery, params: map[string]any{"limit": int64(25)}},
		{name: "zero", limit: 0, query: edgesQuery, params: map[string]any{"limit": int64(0)}},
		{name: "all", limit: -1, query: allEdgesQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, params := buildEdgesQuery(tt.limit)
			if query != tt.query {
				t.Fatalf("query = %q, want %q", query, tt.query)
			}
			if !reflect.DeepEqual(params, tt.params) {
				t.Fatalf("params = %#v, want %#v", params, tt.params)
			}
			if tt.limit < 0 && strings.Contains(query, "LIMIT") {
				t.Fatalf("query for all edges has a LIMIT: %q", query)
			}
		})
	}
}
