package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepo persists analysis results.
//
// Expected schema:
//
//	CREATE TABLE call_analysis_results (
//	    id                  UUID PRIMARY KEY,
//	    call_id             UUID NOT NULL UNIQUE,
//	    sentiment           TEXT NOT NULL,
//	    mood                TEXT NOT NULL,
//	    frustration_level   TEXT NOT NULL,
//	    clarity             TEXT NOT NULL,
//	    helpfulness         TEXT NOT NULL,
//	    upsell_opportunity  BOOLEAN NOT NULL,
//	    confidence          DOUBLE PRECISION NOT NULL,
//	    agent_name          TEXT NOT NULL DEFAULT '',
//	    customer_name       TEXT NOT NULL DEFAULT '',
//	    summary             TEXT NOT NULL DEFAULT '',
//	    prompt_template_id  TEXT NOT NULL DEFAULT '',
//	    model_id            TEXT NOT NULL DEFAULT '',
//	    created_at          TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, res *Result) error {
	if res == nil || res.CallID == "" {
		return ErrInvalidArgument
	}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}

	const q = `
        INSERT INTO call_analysis_results
            (id, call_id, sentiment, mood, frustration_level, clarity, helpfulness,
             upsell_opportunity, confidence, agent_name, customer_name, summary,
             prompt_template_id, model_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.CallID, res.Sentiment, res.Mood, res.FrustrationLevel,
		res.Clarity, res.Helpfulness, res.UpsellOpportunity, res.Confidence,
		res.AgentName, res.CustomerName, res.Summary,
		res.PromptTemplateID, res.ModelID, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("analysis: insert result: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetByCall(ctx context.Context, callID string) (*Result, error) {
	const q = `
        SELECT id, call_id, sentiment, mood, frustration_level, clarity, helpfulness,
               upsell_opportunity, confidence, agent_name, customer_name, summary,
               prompt_template_id, model_id, created_at
        FROM call_analysis_results
        WHERE call_id = $1`
	var res Result
	err := r.db.QueryRowContext(ctx, q, callID).Scan(
		&res.ID, &res.CallID, &res.Sentiment, &res.Mood, &res.FrustrationLevel,
		&res.Clarity, &res.Helpfulness, &res.UpsellOpportunity, &res.Confidence,
		&res.AgentName, &res.CustomerName, &res.Summary,
		&res.PromptTemplateID, &res.ModelID, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("analysis: get by call: %w", err)
	}
	return &res, nil
}

func (r *PostgresRepo) DeleteByCall(ctx context.Context, callID string) error {
	const q = `DELETE FROM call_analysis_results WHERE call_id = $1`
	if _, err := r.db.ExecContext(ctx, q, callID); err != nil {
		return fmt.Errorf("analysis: delete by call: %w", err)
	}
	return nil
}
