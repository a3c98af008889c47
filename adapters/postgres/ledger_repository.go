package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"venturi/domain/core"
	"venturi/domain/optimize"
	apperrors "venturi/internal/errors"
	"venturi/ports"
)

// DeploymentLedgerRepository implements the deployment ledger on PostgreSQL.
// Strictly append-only: rollbacks insert new rows, nothing is updated.
type DeploymentLedgerRepository struct {
	db *sqlx.DB
}

// NewDeploymentLedgerRepository creates a PostgreSQL-backed ledger
func NewDeploymentLedgerRepository(db *sqlx.DB) ports.DeploymentLedger {
	return &DeploymentLedgerRepository{db: db}
}

// EnsureSchema creates the ledger table if it does not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS deployment_records (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			candidate JSONB NOT NULL,
			previous_value DOUBLE PRECISION NOT NULL,
			deployed_at TIMESTAMPTZ NOT NULL,
			rollback_at TIMESTAMPTZ,
			observed_effectiveness DOUBLE PRECISION NOT NULL,
			outcome TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_deployment_records_session
			ON deployment_records (session_id, deployed_at);
	`)
	if err != nil {
		return apperrors.LedgerError("failed to ensure ledger schema", err)
	}
	return nil
}

type deploymentRow struct {
	ID                    string          `db:"id"`
	SessionID             string          `db:"session_id"`
	Candidate             json.RawMessage `db:"candidate"`
	PreviousValue         float64         `db:"previous_value"`
	DeployedAt            time.Time       `db:"deployed_at"`
	RollbackAt            sql.NullTime    `db:"rollback_at"`
	ObservedEffectiveness float64         `db:"observed_effectiveness"`
	Outcome               string          `db:"outcome"`
}

// Append inserts one immutable ledger row
func (r *DeploymentLedgerRepository) Append(ctx context.Context, rec optimize.DeploymentRecord) error {
	candidate, err := json.Marshal(rec.Candidate)
	if err != nil {
		return apperrors.LedgerError("failed to encode candidate", err)
	}

	var rollbackAt sql.NullTime
	if rec.RollbackAt != nil {
		rollbackAt = sql.NullTime{Time: rec.RollbackAt.Time(), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO deployment_records
			(id, session_id, candidate, previous_value, deployed_at, rollback_at, observed_effectiveness, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID.String(), rec.SessionID.String(), candidate, rec.PreviousValue,
		rec.DeployedAt.Time(), rollbackAt, rec.ObservedEffectiveness, string(rec.Outcome))
	if err != nil {
		return apperrors.LedgerError("failed to append deployment record", err)
	}
	return nil
}

// ListBySession returns a session's records ordered by deployment time
func (r *DeploymentLedgerRepository) ListBySession(ctx context.Context, sessionID core.SessionID) ([]optimize.DeploymentRecord, error) {
	var rows []deploymentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, session_id, candidate, previous_value, deployed_at, rollback_at, observed_effectiveness, outcome
		FROM deployment_records
		WHERE session_id = $1
		ORDER BY deployed_at ASC
	`, sessionID.String())
	if err != nil {
		return nil, apperrors.LedgerError("failed to list deployment records", err)
	}

	out := make([]optimize.DeploymentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record by id
func (r *DeploymentLedgerRepository) Get(ctx context.Context, id core.DeploymentID) (*optimize.DeploymentRecord, error) {
	var row deploymentRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, session_id, candidate, previous_value, deployed_at, rollback_at, observed_effectiveness, outcome
		FROM deployment_records
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrDeploymentNotFound
	}
	if err != nil {
		return nil, apperrors.LedgerError("failed to get deployment record", err)
	}
	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (row deploymentRow) toDomain() (optimize.DeploymentRecord, error) {
	var candidate optimize.Candidate
	if err := json.Unmarshal(row.Candidate, &candidate); err != nil {
		return optimize.DeploymentRecord{}, apperrors.LedgerError("failed to decode candidate", err)
	}
	rec := optimize.DeploymentRecord{
		ID:                    core.DeploymentID(row.ID),
		SessionID:             core.SessionID(row.SessionID),
		Candidate:             candidate,
		PreviousValue:         row.PreviousValue,
		DeployedAt:            core.NewTimestamp(row.DeployedAt),
		ObservedEffectiveness: row.ObservedEffectiveness,
		Outcome:               optimize.Outcome(row.Outcome),
	}
	if row.RollbackAt.Valid {
		ts := core.NewTimestamp(row.RollbackAt.Time)
		rec.RollbackAt = &ts
	}
	return rec, nil
}
