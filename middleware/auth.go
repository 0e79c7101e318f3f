// Package middleware holds the gin middleware shared by the API routes.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const principalKey = "principal"

// ErrUnauthorized is returned for a missing, malformed, unknown, revoked or
// expired token
var ErrUnauthorized = errors.New("unauthorized")

// TokenStore loads API tokens together with their owner
type TokenStore interface {
	GetWithOwner(ctx context.Context, id uuid.UUID) (*models.APIToken, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

// Authenticator resolves bearer tokens of the form "<token id>.<secret>"
type Authenticator struct {
	tokens TokenStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(tokens TokenStore, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, logger: logger, now: time.Now}
}

// Require rejects requests without a valid token and stores the
// principal on the gin context
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if errors.Is(err, ErrUnauthorized) {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			return
		}
		if err != nil {
			a.logger.Error("token lookup failed", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication is temporarily unavailable")
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// Authenticate checks an Authorization header value
func (a *Authenticator) Authenticate(ctx context.Context, header string) (models.Principal, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return models.Principal{}, ErrUnauthorized
	}
	id, secret, err := ParseToken(strings.TrimSpace(token))
	if err != nil {
		return models.Principal{}, ErrUnauthorized
	}

	stored, err := a.tokens.GetWithOwner(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Principal{}, ErrUnauthorized
	}
	if err != nil {
		return models.Principal{}, err
	}
	if !stored.Usable(a.now()) || stored.Owner == nil {
		return models.Principal{}, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.SecretHash), []byte(secret)) != nil {
		return models.Principal{}, ErrUnauthorized
	}

	if err := a.tokens.TouchLastUsed(ctx, id); err != nil {
		a.logger.Warn("failed to record token use", zap.String("token_id", id.String()), zap.Error(err))
	}

	owner := stored.Owner
	return models.Principal{
		UserID:      owner.ID,
		Email:       owner.Email,
		Name:        owner.Name,
		FirmName:    models.Str(owner.FirmName),
		BillingGoal: models.Str(owner.BillingGoal),
	}, nil
}

// PrincipalFrom returns the principal stored by Require
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// SetPrincipal stores p the way Require does
func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
}

// ParseToken splits a presented token into its id and secret
func ParseToken(token string) (uuid.UUID, string, error) {
	rawID, secret, found := strings.Cut(token, ".")
	if !found || secret == "" {
		return uuid.Nil, "", errors.New("malformed token")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("malformed token id: %w", err)
	}
	return id, secret, nil
}

// NewTokenSecret returns a random secret and its bcrypt hash
func NewTokenSecret() (secret, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate secret: %w", err)
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return secret, string(hashed), nil
}

// FormatToken renders the value a client sends after "Bearer "
func FormatToken(id uuid.UUID, secret string) string {
	return id.String() + "." + secret
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
