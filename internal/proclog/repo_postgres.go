package proclog

import (
	"context"
	"database/sql"
)

// PostgresRepo appends to the processing_log table.
//
// Assumed schema:
//   processing_log (
//     id UUID PRIMARY KEY,
//     call_id UUID NOT NULL,
//     severity TEXT NOT NULL,
//     message TEXT NOT NULL,
//     created_at TIMESTAMPTZ NOT NULL
//   )
// INSERT-only; no UPDATE/DELETE statements exist in this package.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO processing_log (id, call_id, severity, message, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.CallID, string(e.Severity), e.Message, e.CreatedAt)
	return err
}

func (r *PostgresRepo) ListByCall(ctx context.Context, callID string) ([]Entry, error) {
	const q = `
SELECT id, call_id, severity, message, created_at
FROM processing_log
WHERE call_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var sev string
		if err := rows.Scan(&e.ID, &e.CallID, &sev, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Severity = Severity(sev)
		out = append(out, e)
	}
	return out, rows.Err()
}
