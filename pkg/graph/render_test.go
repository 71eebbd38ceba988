package graph

import (
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
)

func TestRenderDOT(t *testing.T) {
	alice := common.Node{ID: "Alice", Type: "Person"}
	acme := common.Node{ID: `Acme "Inc"`, Type: "Organization"}
	bob := common.Node{ID: "Bob", Type: "Person"}

	out := RenderDOT([]common.Edge{
		{Source: alice, Type: "WORKS_AT", Target: acme},
		{Source: bob, Type: "KNOWS", Target: alice},
	})

	for _, want := range []string{
		"digraph kgraph {",
		`n0 [label="Alice", tooltip="Person"];`,
		`n1 [label="Acme \"Inc\"", tooltip="Organization"];`,
		`n0 -> n1 [label="WORKS_AT"];`,
		`n2 -> n0 [label="KNOWS"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDOT() missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "label=\"Alice\"") != 1 {
		t.Errorf("node Alice rendered more than once:\n%s", out)
	}
}

func TestRenderDOTEmpty(t *testing.T) {
	out := RenderDOT(nil)
	if !strings.HasPrefix(out, "digraph kgraph {") || !strings.HasSuffix(out, "}\n") {
		t.Fatalf("unexpected output %q", out)
	}
}
