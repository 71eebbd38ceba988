package pgx

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/kgraph/internal/util"
)

const (
	resetSQL = `TRUNCATE kg_relationships, kg_nodes RESTART IDENTITY`

	insertNodeSQL = `
INSERT INTO kg_nodes (label, properties)
VALUES ($1, $2::jsonb)
RETURNING id`

	insertRelationshipSQL = `
INSERT INTO kg_relationships (source_id, target_id, type, properties)
VALUES ($1, $2, $3, $4::jsonb)`

	countNodesSQL         = `SELECT count(*) FROM kg_nodes`
	countRelationshipsSQL = `SELECT count(*) FROM kg_relationships`
	nodeLabelsSQL         = `SELECT DISTINCT label FROM kg_nodes ORDER BY label`
	relationshipTypesSQL  = `SELECT DISTINCT type FROM kg_relationships ORDER BY type`

	// A NULL limit returns every edge.
	edgesSQL = `
SELECT s.label, s.properties, r.type, r.properties, t.label, t.properties
FROM kg_relationships r
JOIN kg_nodes s ON s.id = r.source_id
JOIN kg_nodes t ON t.id = r.target_id
ORDER BY r.id
LIMIT $1`
)

// encodeProperties renders a property map as a jsonb literal with every
// string made safe for Postgres.
func encodeProperties(props map[string]any) (string, error) {
	data, err := json.Marshal(util.SanitizeProperties(props))
	if err != nil {
		return "", fmt.Errorf("failed to marshal properties: %w", err)
	}
	return string(data), nil
}

func decodeProperties(data []byte) (map[string]any, error) {
	props := map[string]any{}
	if len(data) == 0 {
		return props, nil
	}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
	}
	return props, nil
}
