package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// PgVectorIndex implements port.VectorIndex on Postgres with the
// pgvector extension. Useful for self-hosted deployments where no
// managed index is available.
type PgVectorIndex struct {
	db        *sql.DB
	dimension int
}

// NewPgVectorIndex opens a pooled connection and returns the index.
func NewPgVectorIndex(databaseURL string, dimension int) (*PgVectorIndex, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PgVectorIndex{db: db, dimension: dimension}, nil
}

// Close closes the database connection.
func (p *PgVectorIndex) Close() error {
	return p.db.Close()
}

// EnsureIndex creates the pgvector extension and entity table if absent.
func (p *PgVectorIndex) EnsureIndex(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS travel_entities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			vector vector(%d)
		)`, p.dimension),
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}

// Query performs a cosine similarity search over stored entities.
func (p *PgVectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	vectorStr := vectorToString(vector)
	query := `SELECT id, name, type, city,
	                 1 - (vector <=> $1::vector) AS similarity
	          FROM travel_entities
	          ORDER BY vector <=> $1::vector
	          LIMIT $2`

	rows, err := p.db.QueryContext(ctx, query, vectorStr, topK)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var id, name, entityType, city string
		var similarity float64
		if err := rows.Scan(&id, &name, &entityType, &city, &similarity); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		matches = append(matches, domain.VectorMatch{
			ID:    id,
			Score: similarity,
			Metadata: map[string]any{
				"name": name,
				"type": entityType,
				"city": city,
			},
		})
	}
	return matches, rows.Err()
}

// Upsert writes entity vectors, replacing existing ids.
func (p *PgVectorIndex) Upsert(ctx context.Context, records []port.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO travel_entities (id, name, type, city, description, vector)
		 VALUES ($1, $2, $3, $4, $5, $6::vector)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			city = EXCLUDED.city,
			description = EXCLUDED.description,
			vector = EXCLUDED.vector`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID,
			metaString(r.Metadata, "name"),
			metaString(r.Metadata, "type"),
			metaString(r.Metadata, "city"),
			metaString(r.Metadata, "description"),
			vectorToString(r.Values),
		); err != nil {
			return fmt.Errorf("insert entity: %w", err)
		}
	}

	return tx.Commit()
}

func metaString(md map[string]any, key string) string {
	if md == nil {
		return ""
	}
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
