package index

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type PGVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// PGVectorIndex implements VectorIndex on top of pgvector, for deployments
// that want the index to outlive a single request. Distances are L2, so
// ordering matches the flat index even though the raw values differ from
// squared L2.
type PGVectorIndex struct {
	config PGVectorConfig
	pool   *pgxpool.Pool
}

func NewPGVectorIndex(config PGVectorConfig) (*PGVectorIndex, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	idx := &PGVectorIndex{
		config: config,
		pool:   pool,
	}

	if err := idx.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *PGVectorIndex) initialize() error {
	ctx := context.Background()

	_, err := idx.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			embedding vector(%d)
		)`, idx.config.TableName, idx.config.VectorDim)

	_, err = idx.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_l2_ops)
		WITH (lists = 100)`,
		idx.config.TableName, idx.config.TableName)

	_, err = idx.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Build replaces the table contents with the given vectors, id of vector i
// being i.
func (idx *PGVectorIndex) Build(ctx context.Context, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != idx.config.VectorDim {
			return fmt.Errorf("vector %d has dimension %d, index expects %d: %w",
				i, len(v), idx.config.VectorDim, ErrDimensionMismatch)
		}
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE %s", idx.config.TableName)); err != nil {
		return fmt.Errorf("failed to truncate table: %v", err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, embedding) VALUES ($1, $2)`, idx.config.TableName)
	for i, v := range vectors {
		if _, err := tx.Exec(ctx, stmt, i, pgvector.NewVector(v)); err != nil {
			return fmt.Errorf("failed to insert vector: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Search returns the ids and distances of the k nearest vectors, padded
// with -1 / +Inf when the table holds fewer than k rows.
func (idx *PGVectorIndex) Search(ctx context.Context, query []float32, k int) ([]int, []float32, error) {
	if len(query) != idx.config.VectorDim {
		return nil, nil, fmt.Errorf("query has dimension %d, index expects %d: %w",
			len(query), idx.config.VectorDim, ErrDimensionMismatch)
	}

	sql := fmt.Sprintf(`
		SELECT id, embedding <-> $1 AS distance
		FROM %s
		ORDER BY distance
		LIMIT $2`, idx.config.TableName)

	rows, err := idx.pool.Query(ctx, sql, pgvector.NewVector(query), k)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query index: %v", err)
	}
	defer rows.Close()

	ids := make([]int, 0, k)
	dists := make([]float32, 0, k)
	for rows.Next() {
		var id int
		var dist float64
		if err := rows.Scan(&id, &dist); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %v", err)
		}
		ids = append(ids, id)
		dists = append(dists, float32(dist))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %v", err)
	}

	for len(ids) < k {
		ids = append(ids, NotFoundID)
		dists = append(dists, float32(math.Inf(1)))
	}

	return ids, dists, nil
}

// Save is a no-op: rows are already durable in Postgres.
func (idx *PGVectorIndex) Save(string) error { return nil }

// Load is a no-op: the table is attached at construction time.
func (idx *PGVectorIndex) Load(string) error { return nil }

func (idx *PGVectorIndex) Close() {
	if idx.pool != nil {
		idx.pool.Close()
	}
}
