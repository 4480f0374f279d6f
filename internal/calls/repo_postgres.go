package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo persists CallRecords in the call_records table.
//
// Assumed schema:
//   call_records (
//     id UUID PRIMARY KEY,
//     recording_ref TEXT NOT NULL UNIQUE,
//     status TEXT NOT NULL,
//     start_time TIMESTAMPTZ, end_time TIMESTAMPTZ,
//     duration_seconds INT NOT NULL DEFAULT 0,
//     recording_blob_key TEXT, transcript_blob_key TEXT,
//     agent_id UUID, company_id UUID, analysis_id UUID,
//     processing_metadata JSONB,
//     created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL
//   )

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const uniqueViolation = "23505"

func (r *PostgresRepo) Create(ctx context.Context, rec *CallRecord) error {
	const q = `
INSERT INTO call_records
  (id, recording_ref, status, start_time, end_time, duration_seconds,
   recording_blob_key, transcript_blob_key, agent_id, company_id, analysis_id,
   processing_metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),NULLIF($10,''),NULLIF($11,''),$12,$13,$14)
`
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	meta, err := encodeMetadata(rec.ProcessingMetadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		rec.ID,
		rec.RecordingRef,
		string(rec.Status),
		rec.StartTime,
		rec.EndTime,
		rec.DurationSeconds,
		rec.RecordingBlobKey,
		rec.TranscriptBlobKey,
		rec.AgentID,
		rec.CompanyID,
		rec.AnalysisID,
		meta,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateRef
	}
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, rec *CallRecord) error {
	const q = `
UPDATE call_records SET
  status = $2, start_time = $3, end_time = $4, duration_seconds = $5,
  recording_blob_key = $6, transcript_blob_key = $7,
  agent_id = NULLIF($8,''), company_id = NULLIF($9,''), analysis_id = NULLIF($10,''),
  processing_metadata = $11, updated_at = $12
WHERE id = $1
`
	rec.UpdatedAt = time.Now().UTC()
	meta, err := encodeMetadata(rec.ProcessingMetadata)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q,
		rec.ID,
		string(rec.Status),
		rec.StartTime,
		rec.EndTime,
		rec.DurationSeconds,
		rec.RecordingBlobKey,
		rec.TranscriptBlobKey,
		rec.AgentID,
		rec.CompanyID,
		rec.AnalysisID,
		meta,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `
SELECT id, recording_ref, status, start_time, end_time, duration_seconds,
       COALESCE(recording_blob_key,''), COALESCE(transcript_blob_key,''),
       COALESCE(agent_id::text,''), COALESCE(company_id::text,''), COALESCE(analysis_id::text,''),
       COALESCE(processing_metadata::text,''), created_at, updated_at
FROM call_records
`

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (CallRecord, error) {
	return r.getOne(ctx, selectColumns+`WHERE id = $1`, id)
}

func (r *PostgresRepo) GetByRecordingRef(ctx context.Context, ref string) (CallRecord, error) {
	return r.getOne(ctx, selectColumns+`WHERE recording_ref = $1`, ref)
}

func (r *PostgresRepo) getOne(ctx context.Context, q string, arg any) (CallRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return CallRecord{}, ErrNotFound
	}
	return rec, err
}

func (r *PostgresRepo) List(ctx context.Context, filter ListFilter) ([]CallRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	q := selectColumns
	args := []any{}
	if filter.Status != "" {
		q += `WHERE status = $1 `
		args = append(args, string(filter.Status))
	}
	q += `ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (CallRecord, error) {
	var rec CallRecord
	var status, meta string
	var start, end sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.RecordingRef,
		&status,
		&start,
		&end,
		&rec.DurationSeconds,
		&rec.RecordingBlobKey,
		&rec.TranscriptBlobKey,
		&rec.AgentID,
		&rec.CompanyID,
		&rec.AnalysisID,
		&meta,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return CallRecord{}, err
	}
	rec.Status = CallStatus(status)
	rec.StartTime = start.Time
	rec.EndTime = end.Time
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &rec.ProcessingMetadata); err != nil {
			return CallRecord{}, err
		}
	}
	return rec, nil
}

func encodeMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

