package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Aashish23092/loan-intake-verification/config"
	"github.com/Aashish23092/loan-intake-verification/dto"
)

const createDecisionsTable = `
CREATE TABLE IF NOT EXISTS loan_decisions (
	id               TEXT PRIMARY KEY,
	applicant_id     TEXT NOT NULL,
	status           TEXT NOT NULL,
	title            TEXT NOT NULL,
	reason           TEXT NOT NULL,
	loan_amount      NUMERIC(14,2) NOT NULL,
	period_months    INTEGER NOT NULL,
	monthly_income   NUMERIC(14,2),
	max_loan_amount  NUMERIC(14,2),
	emi              NUMERIC(14,2),
	decided_at       TIMESTAMPTZ NOT NULL
)`

const insertDecision = `
INSERT INTO loan_decisions
	(id, applicant_id, status, title, reason, loan_amount, period_months,
	 monthly_income, max_loan_amount, emi, decided_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// NewPostgres opens a PostgreSQL connection pool
func NewPostgres(cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// DecisionRepository keeps an audit trail of every eligibility decision.
type DecisionRepository struct {
	db *sql.DB
}

func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

func (r *DecisionRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDecisionsTable); err != nil {
		return fmt.Errorf("failed to create loan_decisions table: %w", err)
	}
	return nil
}

// Record inserts one decision row, keyed by the id of the decision's activity.
func (r *DecisionRepository) Record(ctx context.Context, profile dto.UserProfile, result dto.EligibilityResult) error {
	_, err := r.db.ExecContext(ctx, insertDecision,
		result.Activity.ID,
		profile.ApplicantID,
		string(result.Status),
		result.Activity.Title,
		result.Activity.Description,
		profile.LoanAmount,
		profile.LoanPeriodMonths,
		nullableAmount(result.MonthlyIncome),
		nullableAmount(result.MaxLoanAmount),
		nullableAmount(result.EMI),
		result.Activity.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan decision: %w", err)
	}
	return nil
}

func nullableAmount(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v > 0}
}
