package handlers

import (
	"context"
	"errors"
	"net/http"

	"skeptical-attorney-backend/middleware"
	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Assistant is the part of service.AssistantService the handler drives
type Assistant interface {
	Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResult, error)
	Opening(ctx context.Context, principal models.Principal, mode models.Mode, caseID string) (string, *models.AssistantContext, error)
}

// AssistantHandler handles HTTP requests for the legal assistant
type AssistantHandler struct {
	assistant Assistant
	logger    *zap.Logger
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant Assistant, logger *zap.Logger) *AssistantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHandler{assistant: assistant, logger: logger}
}

// RegisterRoutes mounts the assistant routes on an authenticated group
func (h *AssistantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/assistant", h.Chat)
	rg.GET("/assistant/opening", h.Opening)
}

// ChatRequest represents the request body for one assistant turn
type ChatRequest struct {
	Message             string               `json:"message"`
	Mode                string               `json:"mode"`
	CaseID              string               `json:"caseId"`
	ConversationHistory []models.ChatMessage `json:"conversationHistory"`
}

// ContextInfo tells the client which scope answered
type ContextInfo struct {
	Mode     models.Mode `json:"mode"`
	CaseID   string      `json:"caseId,omitempty"`
	CaseName string      `json:"caseName,omitempty"`
}

// ChatResponse represents the assistant's reply
type ChatResponse struct {
	Message string          `json:"message"`
	Actions []models.Action `json:"actions"`
	Context ContextInfo     `json:"context"`
}

// Chat handles POST /api/assistant
func (h *AssistantHandler) Chat(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	mode, err := service.ResolveMode(req.Mode, req.CaseID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.assistant.Chat(c.Request.Context(), service.ChatRequest{
		Principal: principal,
		Message:   req.Message,
		Mode:      mode,
		CaseID:    req.CaseID,
		History:   req.ConversationHistory,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	actions := result.Actions
	if actions == nil {
		actions = []models.Action{}
	}
	c.JSON(http.StatusOK, ChatResponse{
		Message: result.Message,
		Actions: actions,
		Context: contextInfo(result.Context),
	})
}

// Opening handles GET /api/assistant/opening
func (h *AssistantHandler) Opening(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	caseID := c.Query("caseId")
	mode, err := service.ResolveMode(c.Query("mode"), caseID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	message, ac, err := h.assistant.Opening(c.Request.Context(), principal, mode, caseID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Message: message,
		Actions: []models.Action{},
		Context: contextInfo(ac),
	})
}

func (h *AssistantHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMessageRequired):
		respondError(c, http.StatusBadRequest, "MESSAGE_REQUIRED", "Message is required")
	case errors.Is(err, service.ErrInvalidMode):
		respondError(c, http.StatusBadRequest, "INVALID_MODE", "Mode must be \"case\" or \"dashboard\"")
	case errors.Is(err, service.ErrCaseNotFound):
		respondError(c, http.StatusNotFound, "CASE_NOT_FOUND", "Case not found or access denied")
	case errors.Is(err, service.ErrModelNotConfigured):
		respondError(c, http.StatusInternalServerError, "NOT_CONFIGURED", "AI assistant is not configured")
	case errors.Is(err, service.ErrUpstreamModel), errors.Is(err, service.ErrEmptyResponse):
		respondError(c, http.StatusInternalServerError, "MODEL_ERROR", "No response generated")
	default:
		h.logger.Error("assistant request failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}

func contextInfo(ac *models.AssistantContext) ContextInfo {
	if ac == nil {
		return ContextInfo{Mode: models.ModeDashboard}
	}
	info := ContextInfo{Mode: ac.Mode}
	if ac.Case != nil && ac.Case.Case != nil {
		info.CaseID = ac.Case.Case.ID.String()
		info.CaseName = ac.Case.Case.CaseName
	}
	return info
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
