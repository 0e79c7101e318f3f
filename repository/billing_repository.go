package repository

import (
	"context"
	"fmt"

	"skeptical-attorney-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BillingRepository handles database operations for billing entries
type BillingRepository struct {
	db *pgxpool.Pool
}

// NewBillingRepository creates a new billing repository
func NewBillingRepository(db *pgxpool.Pool) *BillingRepository {
	return &BillingRepository{db: db}
}

// Create inserts a billing entry and fills in its ID and creation time
func (r *BillingRepository) Create(ctx context.Context, entry *models.BillingEntry) error {
	query := `
		INSERT INTO billing_entries (
			user_id, case_id, case_name, description, hours, rate, amount,
			billing_date, is_ai_generated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		entry.UserID,
		entry.CaseID,
		entry.CaseName,
		entry.Description,
		entry.Hours,
		entry.Rate,
		entry.Amount,
		entry.BillingDate,
		entry.IsAIGenerated,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create billing entry: %w", err)
	}
	return nil
}

// ListByOwner retrieves a user's entries with billing dates in [from, to]
func (r *BillingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to string) ([]*models.BillingEntry, error) {
	query := `
		SELECT id, user_id, case_id, COALESCE(case_name, ''), description,
			hours::float8, rate::float8, amount::float8,
			to_char(billing_date, 'YYYY-MM-DD'), is_ai_generated, created_at
		FROM billing_entries
		WHERE user_id = $1 AND billing_date BETWEEN $2::date AND $3::date
		ORDER BY billing_date DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.BillingEntry
	for rows.Next() {
		e := &models.BillingEntry{}
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.CaseID,
			&e.CaseName,
			&e.Description,
			&e.Hours,
			&e.Rate,
			&e.Amount,
			&e.BillingDate,
			&e.IsAIGenerated,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan billing entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
