package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTokens struct {
	tokens  map[uuid.UUID]*models.APIToken
	err     error
	touched int
}

func (f *fakeTokens) GetWithOwner(_ context.Context, id uuid.UUID) (*models.APIToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tokens[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokens) TouchLastUsed(context.Context, uuid.UUID) error {
	f.touched++
	return nil
}

const testSecret = "correct-horse-battery-staple"

func newToken(t *testing.T) *models.APIToken {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testSecret), bcrypt.MinCost)
	require.NoError(t, err)
	firm := "Counsel LLP"
	return &models.APIToken{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		SecretHash: string(hash),
		Owner:      &models.User{ID: uuid.New(), Email: "jane@example.com", Name: "Jane Counsel", FirmName: &firm},
	}
}

func serveAuth(a *Authenticator, header string) (*httptest.ResponseRecorder, *models.Principal) {
	var seen *models.Principal
	r := gin.New()
	r.GET("/", a.Require(), func(c *gin.Context) {
		if p, ok := PrincipalFrom(c); ok {
			seen = &p
		}
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestRequire_ValidToken(t *testing.T) {
	tok := newToken(t)
	store := &fakeTokens{tokens: map[uuid.UUID]*models.APIToken{tok.ID: tok}}

	w, p := serveAuth(NewAuthenticator(store, nil), "Bearer "+FormatToken(tok.ID, testSecret))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, p)
	assert.Equal(t, tok.Owner.ID, p.UserID)
	assert.Equal(t, "Jane Counsel", p.Name)
	assert.Equal(t, "Counsel LLP", p.FirmName)
	assert.Empty(t, p.BillingGoal)
	assert.Equal(t, 1, store.touched)
}

func TestRequire_Rejects(t *testing.T) {
	tok := newToken(t)
	past := time.Now().Add(-time.Hour)
	revoked := newToken(t)
	revoked.RevokedAt = &past
	expired := newToken(t)
	expired.ExpiresAt = &past
	store := &fakeTokens{tokens: map[uuid.UUID]*models.APIToken{
		tok.ID: tok, revoked.ID: revoked, expired.ID: expired,
	}}
	a := NewAuthenticator(store, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + FormatToken(tok.ID, testSecret)},
		{"no secret", "Bearer " + tok.ID.String()},
		{"malformed id", "Bearer not-a-uuid." + testSecret},
		{"unknown token", "Bearer " + FormatToken(uuid.New(), testSecret)},
		{"wrong secret", "Bearer " + FormatToken(tok.ID, "guess")},
		{"revoked", "Bearer " + FormatToken(revoked.ID, testSecret)},
		{"expired", "Bearer " + FormatToken(expired.ID, testSecret)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, p := serveAuth(a, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
			assert.Nil(t, p)
		})
	}
	assert.Zero(t, store.touched)
}

func TestRequire_StoreFailure(t *testing.T) {
	tok := newToken(t)
	store := &fakeTokens{err: errors.New("connection refused")}

	w, _ := serveAuth(NewAuthenticator(store, nil), "Bearer "+FormatToken(tok.ID, testSecret))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

func TestNewTokenSecret(t *testing.T) {
	secret, hash, err := NewTokenSecret()
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)))
	assert.NotContains(t, secret, ".")

	id := uuid.New()
	gotID, gotSecret, err := ParseToken(FormatToken(id, secret))
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, secret, gotSecret)
}
