// Package neo4j implements GraphStorage on a Neo4j database.
package neo4j

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphNeo4jStorage stores fragments as labeled nodes and typed
// relationships in Neo4j.
type GraphNeo4jStorage struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewGraphNeo4jStorageParams configures the connection.
//
// URL is a bolt or neo4j URI such as "neo4j://localhost:7687". Database
// selects a database other than the server default.
type NewGraphNeo4jStorageParams struct {
	URL      string
	Username string
	Password string
	Database string
}

// NewGraphNeo4jStorage connects to Neo4j and verifies connectivity.
func NewGraphNeo4jStorage(ctx context.Context, params NewGraphNeo4jStorageParams) (*GraphNeo4jStorage, error) {
	driver, err := neo4j.NewDriverWithContext(params.URL, neo4j.BasicAuth(params.Username, params.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", params.URL, err)
	}
	return NewGraphNeo4jStorageWithDriver(driver, params.Database), nil
}

// NewGraphNeo4jStorageWithDriver wraps an existing driver. The storage takes
// ownership and closes it on Close.
func NewGraphNeo4jStorageWithDriver(driver neo4j.DriverWithContext, database string) *GraphNeo4jStorage {
	return &GraphNeo4jStorage{driver: driver, database: database}
}

func (s *GraphNeo4jStorage) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *GraphNeo4jStorage) write(ctx context.Context, query string, params map[string]any) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

func (s *GraphNeo4jStorage) Reset(ctx context.Context) error {
	if err := s.write(ctx, resetQuery, nil); err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	return nil
}

func (s *GraphNeo4jStorage) SaveFragment(ctx context.Context, fragment common.Fragment, includeSource bool) error {
	query, params := buildFragmentQuery(fragment, includeSource)
	if query == "" {
		return nil
	}
	if err := s.write(ctx, query, params); err != nil {
		return fmt.Errorf("failed to save fragment %s: %w", fragment.ID, err)
	}
	logger.Debug("[Store] Saved fragment", "fragment", fragment.ID, "nodes", len(fragment.Nodes), "relationships", len(fragment.Relationships))
	return nil
}

func (s *GraphNeo4jStorage) GetStatistics(ctx context.Context) (common.Statistics, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	res, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var st common.Statistics

		nodes, err := single(ctx, tx, countNodesQuery, nil)
		if err != nil {
			return nil, err
		}
		st.Nodes = getInt64FromRecord(nodes, "node_count")

		rels, err := single(ctx, tx, countRelsQuery, nil)
		if err != nil {
			return nil, err
		}
		st.Relationships = getInt64FromRecord(rels, "relationship_count")

		if st.NodeTypes, err = collectStrings(ctx, tx, nodeLabelsQuery, "label"); err != nil {
			return nil, err
		}
		if st.RelationshipTypes, err = collectStrings(ctx, tx, relTypesQuery, "type"); err != nil {
			return nil, err
		}
		return st, nil
	})
	if err != nil {
		return common.Statistics{}, fmt.Errorf("failed to read statistics: %w", err)
	}
	return res.(common.Statistics), nil
}

func (s *GraphNeo4jStorage) GetEdges(ctx context.Context, limit int) ([]common.Edge, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	res, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query, params := buildEdgesQuery(limit)
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]common.Edge, 0, len(records))
		for _, record := range records {
			edge, ok := edgeFromRecord(record)
			if ok {
				edges = append(edges, edge)
			}
		}
		return edges, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	return res.([]common.Edge), nil
}

func (s *GraphNeo4jStorage) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func single(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (*neo4j.Record, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Single(ctx)
}

func collectStrings(ctx context.Context, tx neo4j.ManagedTransaction, query, key string) ([]string, error) {
	result, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for result.Next(ctx) {
		if v := getStringFromRecord(result.Record(), key); v != "" {
			out = append(out, v)
		}
	}
	return out, result.Err()
}
