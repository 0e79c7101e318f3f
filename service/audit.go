package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditRecord describes one assistant exchange without its message text
type AuditRecord struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Mode       models.Mode   `json:"mode"`
	CaseID     *uuid.UUID    `json:"case_id,omitempty"`
	Provider   string        `json:"provider"`
	Terminal   TerminalState `json:"terminal"`
	Tools      []AuditTool   `json:"tools"`
	Actions    []string      `json:"actions"`
	DurationMS int64         `json:"duration_ms"`
	CreatedAt  time.Time     `json:"created_at"`
}

// AuditTool is the outcome of one tool invocation
type AuditTool struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
}

// AuditRecorder writes audit records to blob storage. A nil recorder
// records nothing.
type AuditRecorder struct {
	store  storage.Storage
	logger *zap.Logger
}

// NewAuditRecorder creates a new audit recorder
func NewAuditRecorder(store storage.Storage, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{store: store, logger: logger}
}

// AuditKey returns the storage key for rec
func AuditKey(rec *AuditRecord) string {
	return fmt.Sprintf("audit/%s/%s/%s.json", rec.UserID, rec.CreatedAt.UTC().Format("2006-01-02"), rec.ID)
}

// Record stores rec. Failures are logged and never returned.
func (r *AuditRecorder) Record(ctx context.Context, rec *AuditRecord) {
	if r == nil || r.store == nil {
		return
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Warn("failed to encode audit record", zap.Error(err))
		return
	}
	key := AuditKey(rec)
	if err := r.store.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		r.logger.Warn("failed to write audit record", zap.String("key", key), zap.Error(err))
	}
}

func newAuditRecord(ac *models.AssistantContext, result *ChatResult, provider string, elapsed time.Duration) *AuditRecord {
	rec := &AuditRecord{
		UserID:     ac.Principal.UserID,
		Mode:       ac.Mode,
		Provider:   provider,
		Terminal:   result.Terminal,
		Tools:      make([]AuditTool, 0, len(result.Results)),
		Actions:    make([]string, 0, len(result.Actions)),
		DurationMS: elapsed.Milliseconds(),
	}
	if id := ac.CaseID(); id != uuid.Nil {
		rec.CaseID = &id
	}
	for _, res := range result.Results {
		rec.Tools = append(rec.Tools, AuditTool{Name: res.ToolName, Success: res.Success})
	}
	for _, a := range result.Actions {
		rec.Actions = append(rec.Actions, string(a.Type()))
	}
	return rec
}
