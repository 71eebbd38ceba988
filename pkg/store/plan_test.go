package store

import (
	"testing"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
)

func TestPlanFragment(t *testing.T) {
	alice := common.Node{ID: "Alice", Type: "Person"}
	bob := common.Node{ID: "Bob", Type: "Person"}
	fragment := common.Fragment{
		Nodes: []common.Node{alice, alice},
		Relationships: []common.Relationship{
			{Source: alice, Target: bob, Type: "KNOWS", Properties: map[string]any{"context": "school"}},
		},
		Source: &common.Document{ID: "d1", Filename: "a.txt", Text: "Alice knows Bob."},
	}

	t.Run("without source", func(t *testing.T) {
		plan := PlanFragment(fragment, false)
		if len(plan.Nodes) != 2 {
			t.Fatalf("nodes = %d, want 2", len(plan.Nodes))
		}
		if plan.Nodes[1].Properties["name"] != "Bob" {
			t.Fatalf("missing endpoint not added: %#v", plan.Nodes)
		}
		if len(plan.Relationships) != 1 {
			t.Fatalf("relationships = %d, want 1", len(plan.Relationships))
		}
		r := plan.Relationships[0]
		if r.Source != 0 || r.Target != 1 || r.Properties["context"] != "school" {
			t.Fatalf("unexpected relationship %#v", r)
		}
	})

	t.Run("with source", func(t *testing.T) {
		plan := PlanFragment(fragment, true)
		if len(plan.Nodes) != 3 || plan.Nodes[2].Label != DocumentLabel {
			t.Fatalf("unexpected nodes %#v", plan.Nodes)
		}
		if len(plan.Relationships) != 3 {
			t.Fatalf("relationships = %d, want 3", len(plan.Relationships))
		}
		for _, r := range plan.Relationships[1:] {
			if r.Type != MentionsType || r.Source != 2 {
				t.Fatalf("unexpected mention %#v", r)
			}
		}
	})

	t.Run("source ignored when nil", func(t *testing.T) {
		f := fragment
		f.Source = nil
		if plan := PlanFragment(f, true); len(plan.Nodes) != 2 {
			t.Fatalf("nodes = %d, want 2", len(plan.Nodes))
		}
	})
}

func TestPlanFragmentSanitizesTypes(t *testing.T) {
	alice := common.Node{ID: "Alice", Type: "research group"}
	acme := common.Node{ID: "Acme", Type: "  "}
	plan := PlanFragment(common.Fragment{
		Nodes:         []common.Node{alice, acme},
		Relationships: []common.Relationship{{Source: alice, Target: acme, Type: "works-at"}, {Source: acme, Target: alice, Type: ""}},
	}, false)

	if got := plan.Nodes[0].Label; got != "research_group" {
		t.Fatalf("label = %q, want research_group", got)
	}
	if got := plan.Nodes[1].Label; got != DefaultNodeLabel {
		t.Fatalf("label = %q, want %q", got, DefaultNodeLabel)
	}
	if got := plan.Relationships[0].Type; got != "works_at" {
		t.Fatalf("type = %q, want works_at", got)
	}
	if got := plan.Relationships[1].Type; got != DefaultRelationshipType {
		t.Fatalf("type = %q, want %q", got, DefaultRelationshipType)
	}
}
