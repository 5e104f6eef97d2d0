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
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/service"
)

type authRepoStub struct {
	admin *models.Admin
}

func (s authRepoStub) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if s.admin == nil || s.admin.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.admin, nil
}

func (s authRepoStub) FindByResetToken(ctx context.Context, token string) (*models.Admin, error) {
	return nil, sql.ErrNoRows
}

func (s authRepoStub) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	return nil
}

func (s authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	schoolID := "school-1"
	repo := authRepoStub{admin: &models.Admin{
		ID:           "admin-1",
		SchoolID:     &schoolID,
		Email:        "registrar@riverside.edu",
		Name:         "Dana Holt",
		PasswordHash: string(hash),
		Role:         models.RoleRegistrar,
	}}
	svc := service.NewAuthService(repo, nil, validator.New(), zap.NewNop(), service.AuthConfig{TokenSecret: "test-secret"})
	return NewAuthHandler(svc)
}

func TestAuthLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.LoginRequest{Email: "registrar@riverside.edu", Password: "hunter22"})
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "admin-1", envelope.Data.Admin.ID)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.LoginRequest{Email: "registrar@riverside.edu", Password: "wrong"})
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthLoginInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandler(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Request = req

	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
