package embeddings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepo persists chunk embeddings.
//
// Expected schema:
//
//	CREATE TABLE call_chunk_embeddings (
//	    id          UUID PRIMARY KEY,
//	    call_id     UUID NOT NULL,
//	    sequence    INT NOT NULL,
//	    chunk_text  TEXT NOT NULL,
//	    vector      JSONB NOT NULL,
//	    model_name  TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    UNIQUE (call_id, sequence)
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, e *ChunkEmbedding) error {
	if e == nil || e.CallID == "" {
		return ErrInvalidArgument
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	vec, err := json.Marshal(e.Vector)
	if err != nil {
		return fmt.Errorf("embeddings: encode vector: %w", err)
	}

	const q = `
        INSERT INTO call_chunk_embeddings (id, call_id, sequence, chunk_text, vector, model_name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.ExecContext(ctx, q, e.ID, e.CallID, e.Sequence, e.ChunkText, vec, e.ModelName, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("embeddings: insert chunk: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListByCall(ctx context.Context, callID string) ([]ChunkEmbedding, error) {
	const q = `
        SELECT id, call_id, sequence, chunk_text, vector, model_name, created_at
        FROM call_chunk_embeddings
        WHERE call_id = $1
        ORDER BY sequence ASC`
	rows, err := r.db.QueryContext(ctx, q, callID)
	if err != nil {
		return nil, fmt.Errorf("embeddings: list by call: %w", err)
	}
	defer rows.Close()

	var out []ChunkEmbedding
	for rows.Next() {
		var e ChunkEmbedding
		var vec []byte
		if err := rows.Scan(&e.ID, &e.CallID, &e.Sequence, &e.ChunkText, &vec, &e.ModelName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("embeddings: scan chunk: %w", err)
		}
		if err := json.Unmarshal(vec, &e.Vector); err != nil {
			return nil, fmt.Errorf("embeddings: decode vector: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DeleteByCall(ctx context.Context, callID string) error {
	const q = `DELETE FROM call_chunk_embeddings WHERE call_id = $1`
	if _, err := r.db.ExecContext(ctx, q, callID); err != nil {
		return fmt.Errorf("embeddings: delete by call: %w", err)
	}
	return nil
}
