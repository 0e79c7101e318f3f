package repository

import (
	"context"
	"errors"
	"fmt"

	"skeptical-attorney-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository handles database operations for API tokens
type TokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a new token; SecretHash must already be hashed
func (r *TokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	query := `
		INSERT INTO api_tokens (user_id, secret_hash, label, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		token.UserID,
		token.SecretHash,
		token.Label,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

// GetWithOwner retrieves a token together with the user it belongs to
func (r *TokenRepository) GetWithOwner(ctx context.Context, id uuid.UUID) (*models.APIToken, error) {
	token := &models.APIToken{Owner: &models.User{}}
	query := `
		SELECT t.id, t.user_id, t.secret_hash, COALESCE(t.label, ''), t.expires_at,
			t.revoked_at, t.created_at,
			u.id, u.email, u.name, u.firm_name, u.billing_goal
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&token.ID,
		&token.UserID,
		&token.SecretHash,
		&token.Label,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
		&token.Owner.ID,
		&token.Owner.Email,
		&token.Owner.Name,
		&token.Owner.FirmName,
		&token.Owner.BillingGoal,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// TouchLastUsed records that a token authenticated a request
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}
