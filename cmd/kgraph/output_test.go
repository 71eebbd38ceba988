package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/graph"
)

func TestPromptInstructions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"declined", "no\n", ""},
		{"accepted", "yes\nOnly people.\nAnd cities.\n\nignored\n", "Only people.\nAnd cities."},
		{"short answer", "Y\nOnly people.\n", "Only people."},
		{"no input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptInstructions(strings.NewReader(tt.input), &out)
			if err != nil {
				t.Fatalf("promptInstructions() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("promptInstructions() = %q, want %q", got, tt.want)
			}
			if !strings.Contains(out.String(), "(yes/no)") {
				t.Fatalf("question not printed: %q", out.String())
			}
		})
	}
}

func TestPrintReport(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, &graph.RunResult{
		Files: []graph.FileReport{
			{Filename: "a.txt", Chunks: 2, Fragments: 1, ChunkErrors: []graph.ChunkError{{Index: 1, Err: errors.New("boom")}}},
			{Filename: "b.pdf", Err: errors.New("no text")},
		},
		Statistics: common.Statistics{Nodes: 2, Relationships: 1, NodeTypes: []string{"Person"}, RelationshipTypes: []string{"KNOWS"}},
	})

	for _, want := range []string{"a.txt", "1 chunk(s) failed", "skipped: no text", "Total Nodes: 2", "Relationship Types: KNOWS"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report lacks %q:\n%s", want, out.String())
		}
	}
}

func TestEdgesTable(t *testing.T) {
	got := edgesTable([]common.Edge{{
		Source: common.Node{ID: "Alice", Type: "Person"},
		Type:   "WORKS_AT",
		Target: common.Node{ID: "Acme", Type: "Organization"},
	}})
	for _, want := range []string{"SOURCE", "Alice (Person)", "WORKS_AT", "Acme (Organization)"} {
		if !strings.Contains(got, want) {
			t.Errorf("table lacks %q:\n%s", want, got)
		}
	}
}

func TestEdgesCommandRejectsFormat(t *testing.T) {
	cmd := newEdgesCmd(nil)
	cmd.SetArgs([]string{"--format", "svg"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("Execute() error = %v", err)
	}
}
