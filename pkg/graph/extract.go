package graph

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Transformer turns a chunk of text into a graph fragment. instructions is
// free text guiding the extraction; empty means the defaults.
type Transformer interface {
	Transform(ctx context.Context, text string, instructions string) (*common.Fragment, error)
}

type extractProperty struct {
	Key   string `json:"key" jsonschema_description:"Property name in camelCase, e.g. birthDate"`
	Value string `json:"value" jsonschema_description:"Property value as written in the text"`
}

type extractNode struct {
	ID         string            `json:"id" jsonschema_description:"Name or human-readable identifier of the entity"`
	Type       string            `json:"type" jsonschema_description:"Basic PascalCase label of the entity, e.g. Person"`
	Properties []extractProperty `json:"properties" jsonschema_description:"Additional attributes of the entity"`
}

type extractRelationship struct {
	SourceNodeID   string            `json:"source_node_id" jsonschema_description:"Id of the source node as used in the nodes list"`
	SourceNodeType string            `json:"source_node_type" jsonschema_description:"Type of the source node"`
	TargetNodeID   string            `json:"target_node_id" jsonschema_description:"Id of the target node as used in the nodes list"`
	TargetNodeType string            `json:"target_node_type" jsonschema_description:"Type of the target node"`
	Type           string            `json:"type" jsonschema_description:"UPPER_SNAKE_CASE relationship type, e.g. WORKS_AT"`
	Properties     []extractProperty `json:"properties" jsonschema_description:"Details such as temporal context or significance"`
}

type extractResponse struct {
	Nodes         []extractNode         `json:"nodes" jsonschema_description:"Entities identified in the text"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships between the identified entities"`
}

// LLMTransformer extracts fragments with a language model through
// structured output.
type LLMTransformer struct {
	client ai.GraphAIClient
	opts   []ai.GenerateOption
}

// NewLLMTransformer wraps client. opts are passed to every request.
func NewLLMTransformer(client ai.GraphAIClient, opts ...ai.GenerateOption) *LLMTransformer {
	return &LLMTransformer{client: client, opts: opts}
}

func (t *LLMTransformer) Transform(ctx context.Context, text string, instructions string) (*common.Fragment, error) {
	if strings.TrimSpace(instructions) == "" {
		instructions = ai.DefaultInstructions
	}
	systemPrompt := fmt.Sprintf(ai.ExtractPrompt, strings.TrimSpace(instructions))
	prompt := fmt.Sprintf(ai.ExtractUserPrompt, text)

	opts := append([]ai.GenerateOption{ai.WithSystemPrompts(systemPrompt)}, t.opts...)

	var res extractResponse
	err := t.client.GenerateCompletionWithFormat(
		ctx,
		"extract_graph",
		"Extract nodes and relationships from a provided document.",
		prompt,
		&res,
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return buildFragment(res)
}

func buildProperties(in []extractProperty) map[string]any {
	props := make(map[string]any, len(in))
	for _, p := range in {
		key := strings.TrimSpace(p.Key)
		if key == "" || key == "name" {
			continue
		}
		props[key] = strings.TrimSpace(p.Value)
	}
	return props
}

// buildFragment normalizes a model response. Nodes with an empty id or type
// are dropped, duplicates collapse into the first occurrence, and
// relationship endpoints not in the node list are added.
func buildFragment(res extractResponse) (*common.Fragment, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID for fragment: %w", err)
	}
	fragment := &common.Fragment{
		ID:            id,
		Nodes:         make([]common.Node, 0, len(res.Nodes)),
		Relationships: make([]common.Relationship, 0, len(res.Relationships)),
	}

	index := make(map[string]int, len(res.Nodes))
	typeByID := make(map[string]string, len(res.Nodes))
	add := func(n common.Node) common.Node {
		key := store.NodeKey(n)
		if i, ok := index[key]; ok {
			existing := fragment.Nodes[i]
			for k, v := range n.Properties {
				if _, ok := existing.Properties[k]; !ok {
					existing.Properties[k] = v
				}
			}
			return existing
		}
		index[key] = len(fragment.Nodes)
		if _, ok := typeByID[n.ID]; !ok {
			typeByID[n.ID] = n.Type
		}
		fragment.Nodes = append(fragment.Nodes, n)
		return n
	}

	for _, n := range res.Nodes {
		node := common.Node{
			ID:         strings.TrimSpace(n.ID),
			Type:       NormalizeNodeType(n.Type),
			Properties: buildProperties(n.Properties),
		}
		if node.ID == "" || node.Type == "" {
			continue
		}
		add(node)
	}

	endpoint := func(id, typ string) (common.Node, bool) {
		id = strings.TrimSpace(id)
		typ = NormalizeNodeType(typ)
		if typ == "" {
			typ = typeByID[id]
		}
		if id == "" || typ == "" {
			return common.Node{}, false
		}
		return add(common.Node{ID: id, Type: typ, Properties: map[string]any{}}), true
	}

	for _, r := range res.Relationships {
		typ := NormalizeRelationshipType(r.Type)
		if typ == "" {
			continue
		}
		src, ok := endpoint(r.SourceNodeID, r.SourceNodeType)
		if !ok {
			continue
		}
		dst, ok := endpoint(r.TargetNodeID, r.TargetNodeType)
		if !ok {
			continue
		}
		fragment.Relationships = append(fragment.Relationships, common.Relationship{
			Source:     src,
			Target:     dst,
			Type:       typ,
			Properties: buildProperties(r.Properties),
		})
	}

	return fragment, nil
}

func words(s string) []string {
	var (
		out  []string
		word []rune
		prev rune
	)
	flush := func() {
		if len(word) > 0 {
			out = append(out, string(word))
			word = word[:0]
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				flush()
			}
			word = append(word, r)
		default:
			flush()
		}
		prev = r
	}
	flush()
	return out
}

// NormalizeNodeType turns a model supplied type into a PascalCase label:
// "person" and "PERSON" become "Person", "software company" becomes
// "SoftwareCompany".
func NormalizeNodeType(s string) string {
	var sb strings.Builder
	for _, w := range words(s) {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}
	return sb.String()
}

// NormalizeRelationshipType turns a model supplied type into UPPER_SNAKE
// case: "works at" and "worksAt" become "WORKS_AT".
func NormalizeRelationshipType(s string) string {
	return strings.ToUpper(strings.Join(words(s), "_"))
}
