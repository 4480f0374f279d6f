package directory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"call-insights/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres repositories for agents and companies.
//
// Assumed schema:
//   agents (
//     id UUID PRIMARY KEY,
//     display_name TEXT NOT NULL,
//     extension TEXT UNIQUE,
//     user_id UUID,
//     created_at TIMESTAMPTZ NOT NULL
//   )
//   companies (
//     id UUID PRIMARY KEY,
//     external_id TEXT NOT NULL UNIQUE,
//     name TEXT NOT NULL,
//     created_at TIMESTAMPTZ NOT NULL
//   )
//
// Find-or-create runs find-then-insert inside a transaction; the UNIQUE
// constraint is the backstop when two workers race, and the loser of the
// race re-reads the winner's row.

const uniqueViolation = "23505"

type PostgresAgentRepo struct {
	db *sql.DB
}

func NewPostgresAgentRepo(db *sql.DB) *PostgresAgentRepo { return &PostgresAgentRepo{db: db} }

func (r *PostgresAgentRepo) FindOrCreateByExtension(ctx context.Context, extension, displayName string) (Agent, error) {
	if extension == "" {
		return Agent{}, ErrInvalidArgument
	}
	if displayName == "" {
		displayName = "Extension " + extension
	}

	var out Agent
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const find = `
SELECT id, display_name, COALESCE(extension,''), COALESCE(user_id::text,''), created_at
FROM agents
WHERE extension = $1
`
		err := tx.QueryRowContext(ctx, find, extension).Scan(
			&out.ID, &out.DisplayName, &out.Extension, &out.UserID, &out.CreatedAt,
		)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		out = Agent{
			ID:          uuid.NewString(),
			DisplayName: displayName,
			Extension:   extension,
			CreatedAt:   time.Now().UTC(),
		}
		const insert = `
INSERT INTO agents (id, display_name, extension, created_at)
VALUES ($1, $2, $3, $4)
`
		_, err = tx.ExecContext(ctx, insert, out.ID, out.DisplayName, out.Extension, out.CreatedAt)
		return err
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// Lost the race; the row exists now.
		return r.findByExtension(ctx, extension)
	}
	if err != nil {
		return Agent{}, err
	}
	return out, nil
}

func (r *PostgresAgentRepo) findByExtension(ctx context.Context, extension string) (Agent, error) {
	const q = `
SELECT id, display_name, COALESCE(extension,''), COALESCE(user_id::text,''), created_at
FROM agents
WHERE extension = $1
`
	var a Agent
	err := r.db.QueryRowContext(ctx, q, extension).Scan(
		&a.ID, &a.DisplayName, &a.Extension, &a.UserID, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresAgentRepo) FindByNameFold(ctx context.Context, name string) (Agent, error) {
	if name == "" {
		return Agent{}, ErrInvalidArgument
	}
	const q = `
SELECT id, display_name, COALESCE(extension,''), COALESCE(user_id::text,''), created_at
FROM agents
WHERE lower(display_name) = lower($1)
LIMIT 1
`
	var a Agent
	err := r.db.QueryRowContext(ctx, q, name).Scan(
		&a.ID, &a.DisplayName, &a.Extension, &a.UserID, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresAgentRepo) GetByID(ctx context.Context, id string) (Agent, error) {
	const q = `
SELECT id, display_name, COALESCE(extension,''), COALESCE(user_id::text,''), created_at
FROM agents
WHERE id = $1
`
	var a Agent
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.DisplayName, &a.Extension, &a.UserID, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return a, err
}

type PostgresCompanyRepo struct {
	db *sql.DB
}

func NewPostgresCompanyRepo(db *sql.DB) *PostgresCompanyRepo { return &PostgresCompanyRepo{db: db} }

func (r *PostgresCompanyRepo) FindOrCreateByExternalID(ctx context.Context, externalID, name string) (Company, error) {
	if externalID == "" {
		return Company{}, ErrInvalidArgument
	}

	var out Company
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const find = `
SELECT id, external_id, name, created_at
FROM companies
WHERE external_id = $1
`
		err := tx.QueryRowContext(ctx, find, externalID).Scan(
			&out.ID, &out.ExternalID, &out.Name, &out.CreatedAt,
		)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		out = Company{
			ID:         uuid.NewString(),
			ExternalID: externalID,
			Name:       name,
			CreatedAt:  time.Now().UTC(),
		}
		const insert = `
INSERT INTO companies (id, external_id, name, created_at)
VALUES ($1, $2, $3, $4)
`
		_, err = tx.ExecContext(ctx, insert, out.ID, out.ExternalID, out.Name, out.CreatedAt)
		return err
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return r.findByExternalID(ctx, externalID)
	}
	if err != nil {
		return Company{}, err
	}
	return out, nil
}

func (r *PostgresCompanyRepo) findByExternalID(ctx context.Context, externalID string) (Company, error) {
	const q = `
SELECT id, external_id, name, created_at
FROM companies
WHERE external_id = $1
`
	var c Company
	err := r.db.QueryRowContext(ctx, q, externalID).Scan(
		&c.ID, &c.ExternalID, &c.Name, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresCompanyRepo) GetByID(ctx context.Context, id string) (Company, error) {
	const q = `
SELECT id, external_id, name, created_at
FROM companies
WHERE id = $1
`
	var c Company
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.ExternalID, &c.Name, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	return c, err
}
