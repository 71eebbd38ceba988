package store

import "github.com/OFFIS-RIT/kgraph/pkg/common"

// PlannedNode is a node row to be inserted.
type PlannedNode struct {
	Label      string
	Properties map[string]any
}

// PlannedRelationship references its endpoints by index into
// FragmentPlan.Nodes.
type PlannedRelationship struct {
	Source     int
	Target     int
	Type       string
	Properties map[string]any
}

// FragmentPlan is the flat list of rows a fragment produces.
type FragmentPlan struct {
	Nodes         []PlannedNode
	Relationships []PlannedRelationship
}

// PlanFragment resolves a fragment into rows. Nodes are keyed by NodeKey
// within the fragment and relationship endpoints missing from the node list
// are added. Node and relationship types go through SanitizeLabel so every
// backend stores the same labels. With includeSource a Document node plus one
// MENTIONS relationship per fragment node is appended.
func PlanFragment(fragment common.Fragment, includeSource bool) FragmentPlan {
	var plan FragmentPlan
	index := make(map[string]int, len(fragment.Nodes))

	resolve := func(n common.Node) int {
		key := NodeKey(n)
		if i, ok := index[key]; ok {
			return i
		}
		plan.Nodes = append(plan.Nodes, PlannedNode{Label: SanitizeLabel(n.Type, DefaultNodeLabel), Properties: NodeProperties(n)})
		i := len(plan.Nodes) - 1
		index[key] = i
		return i
	}

	for _, n := range fragment.Nodes {
		resolve(n)
	}
	for _, r := range fragment.Relationships {
		props := make(map[string]any, len(r.Properties))
		for k, v := range r.Properties {
			props[k] = v
		}
		plan.Relationships = append(plan.Relationships, PlannedRelationship{
			Source:     resolve(r.Source),
			Target:     resolve(r.Target),
			Type:       SanitizeLabel(r.Type, DefaultRelationshipType),
			Properties: props,
		})
	}

	if includeSource && fragment.Source != nil {
		mentioned := len(plan.Nodes)
		plan.Nodes = append(plan.Nodes, PlannedNode{
			Label:      DocumentLabel,
			Properties: DocumentProperties(*fragment.Source),
		})
		doc := len(plan.Nodes) - 1
		for i := range mentioned {
			plan.Relationships = append(plan.Relationships, PlannedRelationship{
				Source:     doc,
				Target:     i,
				Type:       MentionsType,
				Properties: map[string]any{},
			})
		}
	}
	return plan
}
