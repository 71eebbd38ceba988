package store

import (
	"sort"
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize elements covering [0, total).
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DistinctSorted returns the non-empty distinct values of in, sorted.
func DistinctSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// SanitizeLabel turns an arbitrary type string into an identifier usable as a
// node label or relationship type: letters, digits and underscores only, not
// starting with a digit. An empty result becomes fallback.
func SanitizeLabel(label, fallback string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(label) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '.' || r == '/':
			sb.WriteByte('_')
		}
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		return fallback
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "_" + out
	}
	return out
}

// NodeProperties returns the properties to store for n: its own properties
// plus the node id as "name".
func NodeProperties(n common.Node) map[string]any {
	props := make(map[string]any, len(n.Properties)+1)
	for k, v := range n.Properties {
		props[k] = v
	}
	props["name"] = n.ID
	return props
}

// DocumentProperties returns the properties of the provenance node of a
// fragment source.
func DocumentProperties(d common.Document) map[string]any {
	return map[string]any{
		"id":       d.ID,
		"text":     d.Text,
		"filename": d.Filename,
		"chunk":    d.Index,
	}
}

// NodeKey identifies a node within a single fragment.
func NodeKey(n common.Node) string {
	return n.Type + "\x00" + n.ID
}
