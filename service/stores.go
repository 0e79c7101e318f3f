package service

import (
	"context"

	"skeptical-attorney-backend/models"

	"github.com/google/uuid"
)

// CaseStore is the owner-scoped case persistence used by the assistant.
// Lookups for a case the owner cannot see return repository.ErrNotFound.
type CaseStore interface {
	GetForOwner(ctx context.Context, ownerID, caseID uuid.UUID) (*models.Case, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Case, error)
	AppendDeadline(ctx context.Context, ownerID, caseID uuid.UUID, deadline models.Deadline) error
}

// BillingStore is the owner-scoped billing persistence used by the assistant
type BillingStore interface {
	Create(ctx context.Context, entry *models.BillingEntry) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, from, to string) ([]*models.BillingEntry, error)
}
