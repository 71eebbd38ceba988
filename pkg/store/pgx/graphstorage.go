// Package pgx implements GraphStorage on PostgreSQL. Nodes and
// relationships live in the kg_nodes and kg_relationships tables with their
// properties as jsonb.
package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/kgraph/internal/util"
	"github.com/OFFIS-RIT/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
	"github.com/OFFIS-RIT/kgraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements the GraphStorage interface on PostgreSQL. Writes
// of one fragment run in a single transaction.
type GraphDBStorage struct {
	conn pgxIConn
	pool *pgxpool.Pool
}

type GraphDBStorageOption func(*GraphDBStorage)

// WithOwnedPool makes Close release the given pool.
func WithOwnedPool(pool *pgxpool.Pool) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		s.pool = pool
	}
}

// NewGraphDBStorageWithConnection creates a new GraphDBStorage using an
// existing connection or pool. The schema must already be migrated.
func NewGraphDBStorageWithConnection(conn pgxIConn, opts ...GraphDBStorageOption) *GraphDBStorage {
	s := &GraphDBStorage{conn: conn}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// NewGraphDBStorage migrates the schema at databaseURL and connects a pool
// to it. The returned storage owns the pool.
func NewGraphDBStorage(ctx context.Context, databaseURL string) (*GraphDBStorage, error) {
	if err := Migrate(databaseURL); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewGraphDBStorageWithConnection(pool, WithOwnedPool(pool)), nil
}

func (s *GraphDBStorage) Reset(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, resetSQL); err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	return nil
}

// nodeBatch queues one insert per planned node. ids receives the generated
// row ids once the batch results are read.
func nodeBatch(plan store.FragmentPlan, ids []int64) (*pgxv5.Batch, error) {
	b := &pgxv5.Batch{}
	for i, n := range plan.Nodes {
		props, err := encodeProperties(n.Properties)
		if err != nil {
			return nil, err
		}
		b.Queue(insertNodeSQL, util.SanitizePostgresText(n.Label), props).QueryRow(func(row pgxv5.Row) error {
			return row.Scan(&ids[i])
		})
	}
	return b, nil
}

func relationshipBatch(plan store.FragmentPlan, ids []int64) (*pgxv5.Batch, error) {
	b := &pgxv5.Batch{}
	for _, r := range plan.Relationships {
		props, err := encodeProperties(r.Properties)
		if err != nil {
			return nil, err
		}
		b.Queue(insertRelationshipSQL, ids[r.Source], ids[r.Target], util.SanitizePostgresText(r.Type), props)
	}
	return b, nil
}

func (s *GraphDBStorage) SaveFragment(ctx context.Context, fragment common.Fragment, includeSource bool) error {
	plan := store.PlanFragment(fragment, includeSource)
	if len(plan.Nodes) == 0 {
		return nil
	}

	ids := make([]int64, len(plan.Nodes))
	nodes, err := nodeBatch(plan, ids)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, nodes).Close(); err != nil {
		return fmt.Errorf("failed to insert nodes of fragment %s: %w", fragment.ID, err)
	}

	if len(plan.Relationships) > 0 {
		rels, err := relationshipBatch(plan, ids)
		if err != nil {
			return err
		}
		if err := tx.SendBatch(ctx, rels).Close(); err != nil {
			return fmt.Errorf("failed to insert relationships of fragment %s: %w", fragment.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit fragment %s: %w", fragment.ID, err)
	}
	logger.Debug("[Store] Saved fragment", "fragment", fragment.ID, "nodes", len(plan.Nodes), "relationships", len(plan.Relationships))
	return nil
}

func (s *GraphDBStorage) GetStatistics(ctx context.Context) (common.Statistics, error) {
	var st common.Statistics
	if err := s.conn.QueryRow(ctx, countNodesSQL).Scan(&st.Nodes); err != nil {
		return common.Statistics{}, fmt.Errorf("failed to count nodes: %w", err)
	}
	if err := s.conn.QueryRow(ctx, countRelationshipsSQL).Scan(&st.Relationships); err != nil {
		return common.Statistics{}, fmt.Errorf("failed to count relationships: %w", err)
	}

	var err error
	if st.NodeTypes, err = s.collectStrings(ctx, nodeLabelsSQL); err != nil {
		return common.Statistics{}, fmt.Errorf("failed to read node labels: %w", err)
	}
	if st.RelationshipTypes, err = s.collectStrings(ctx, relationshipTypesSQL); err != nil {
		return common.Statistics{}, fmt.Errorf("failed to read relationship types: %w", err)
	}
	return st, nil
}

func (s *GraphDBStorage) collectStrings(ctx context.Context, sql string) ([]string, error) {
	rows, err := s.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return store.DistinctSorted(out), rows.Err()
}

func toNode(label string, data []byte) (common.Node, error) {
	props, err := decodeProperties(data)
	if err != nil {
		return common.Node{}, err
	}
	name, _ := props["name"].(string)
	delete(props, "name")
	return common.Node{ID: name, Type: label, Properties: props}, nil
}

func (s *GraphDBStorage) GetEdges(ctx context.Context, limit int) ([]common.Edge, error) {
	var lim any
	if limit >= 0 {
		lim = int64(limit)
	}
	rows, err := s.conn.Query(ctx, edgesSQL, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	defer rows.Close()

	edges := []common.Edge{}
	for rows.Next() {
		var (
			srcLabel, relType, dstLabel string
			srcProps, relProps, dstProps []byte
		)
		if err := rows.Scan(&srcLabel, &srcProps, &relType, &relProps, &dstLabel, &dstProps); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		src, err := toNode(srcLabel, srcProps)
		if err != nil {
			return nil, err
		}
		dst, err := toNode(dstLabel, dstProps)
		if err != nil {
			return nil, err
		}
		props, err := decodeProperties(relProps)
		if err != nil {
			return nil, err
		}
		edges = append(edges, common.Edge{Source: src, Type: relType, Properties: props, Target: dst})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	return edges, nil
}

// Pool returns the owned pool, or nil when the storage was created on a
// caller's connection.
func (s *GraphDBStorage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *GraphDBStorage) Close(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
