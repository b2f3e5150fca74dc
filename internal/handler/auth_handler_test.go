package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/camp-ops/dashboard-api/internal/middleware"
	"github.com/camp-ops/dashboard-api/internal/models"
	"github.com/camp-ops/dashboard-api/internal/service"
)

type stubAuthRepo struct {
	users map[string]*models.UserAccount
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*models.UserAccount, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *stubAuthRepo) UpdatePassword(_ context.Context, username, hash string, _ time.Time) error {
	r.users[username].PasswordHash = hash
	return nil
}

func newAuthTestHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubAuthRepo{users: map[string]*models.UserAccount{
		"director": {Username: "director", PasswordHash: string(hash), Role: models.RoleAdmin},
	}}
	svc := service.NewAuthService(repo, nil, nil, service.AuthConfig{AccessTokenSecret: "test-secret"})
	return NewAuthHandler(svc)
}

func postJSON(t *testing.T, rec *httptest.ResponseRecorder, target string, payload interface{}) *gin.Context {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	c := postJSON(t, rec, "/auth/login", models.LoginRequest{Username: "director", Password: "hunter22"})

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.NotEmpty(t, envelope.Data["access_token"])
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	c := postJSON(t, rec, "/auth/login", models.LoginRequest{Username: "director", Password: "nope-nope"})

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLoginMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthTestHandler(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "director", Role: models.RoleAdmin})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "director", envelope.Data["username"])
}
