package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"skeptical-attorney-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist or is not visible to the caller
var ErrNotFound = errors.New("record not found")

// CaseRepository handles database operations for cases.
// Every query is filtered by owner.
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

const caseColumns = `
	id, user_id, case_name, COALESCE(case_number, ''), case_type, client,
	to_char(trial_date, 'YYYY-MM-DD'), to_char(msc_date, 'YYYY-MM-DD'),
	court, court_county, COALESCE(deadlines, '[]'::jsonb),
	jsonb_array_length(COALESCE(plaintiffs, '[]'::jsonb)),
	jsonb_array_length(COALESCE(defendants, '[]'::jsonb)),
	created_at, updated_at`

func scanCase(row pgx.Row) (*models.Case, error) {
	c := &models.Case{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CaseName,
		&c.CaseNumber,
		&c.CaseType,
		&c.Client,
		&c.TrialDate,
		&c.MSCDate,
		&c.Court,
		&c.CourtCounty,
		&c.Deadlines,
		&c.PlaintiffCount,
		&c.DefendantCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Deadlines == nil {
		c.Deadlines = make(models.Deadlines, 0)
	}
	return c, nil
}

// GetForOwner retrieves a case by ID if it belongs to ownerID.
// A case owned by someone else is reported as ErrNotFound.
func (r *CaseRepository) GetForOwner(ctx context.Context, ownerID, caseID uuid.UUID) (*models.Case, error) {
	query := `SELECT ` + caseColumns + `
		FROM cases
		WHERE id = $1 AND user_id = $2`

	c, err := scanCase(r.db.QueryRow(ctx, query, caseID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// ListByOwner retrieves all cases for a user, most recently updated first
func (r *CaseRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Case, error) {
	query := `SELECT ` + caseColumns + `
		FROM cases
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// AppendDeadline adds a deadline to a case in a single statement, so
// concurrent appends to the same case are all kept.
func (r *CaseRepository) AppendDeadline(ctx context.Context, ownerID, caseID uuid.UUID, deadline models.Deadline) error {
	payload, err := json.Marshal(deadline)
	if err != nil {
		return fmt.Errorf("failed to marshal deadline: %w", err)
	}

	query := `
		UPDATE cases
		SET deadlines = COALESCE(deadlines, '[]'::jsonb) || jsonb_build_array($3::jsonb),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, caseID, ownerID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to append deadline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserts a new case
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (
			user_id, case_name, case_number, case_type, client,
			trial_date, msc_date, court, court_county, deadlines
		) VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		c.UserID,
		c.CaseName,
		c.CaseNumber,
		c.CaseType,
		c.Client,
		c.TrialDate,
		c.MSCDate,
		c.Court,
		c.CourtCounty,
		c.Deadlines,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}
