package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clae-hq/admissions-api/internal/models"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
	"github.com/clae-hq/admissions-api/pkg/mailer"
)

type mockAuthRepo struct {
	adminByEmail *models.Admin
	adminByToken *models.Admin
	findErr      error
	resetToken   string
	resetExpiry  time.Time
	passwordHash string
	setTokenErr  error
	updatePwdErr error
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.adminByEmail == nil || m.adminByEmail.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.adminByEmail, nil
}

func (m *mockAuthRepo) FindByResetToken(ctx context.Context, token string) (*models.Admin, error) {
	if m.adminByToken == nil {
		return nil, sql.ErrNoRows
	}
	return m.adminByToken, nil
}

func (m *mockAuthRepo) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	if m.setTokenErr != nil {
		return m.setTokenErr
	}
	m.resetToken = token
	m.resetExpiry = expiry
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.updatePwdErr != nil {
		return m.updatePwdErr
	}
	m.passwordHash = passwordHash
	return nil
}

type mockMailer struct {
	sent    []mailer.Message
	sendErr error
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testAuthService(repo *mockAuthRepo, mail *mockMailer) *AuthService {
	return NewAuthService(repo, mail, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret:  "secret",
		TokenExpiry:  15 * time.Minute,
		Issuer:       "admissions-api",
		ResetURLBase: "http://localhost:3000",
	})
}

func registrarAdmin(t *testing.T, password string) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	schoolID := "school-1"
	return &models.Admin{
		ID:           "admin-1",
		SchoolID:     &schoolID,
		Email:        "registrar@riverside.edu",
		Name:         "Dana Holt",
		PasswordHash: string(hash),
		Role:         models.RoleRegistrar,
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{adminByEmail: registrarAdmin(t, "password")}
	svc := testAuthService(repo, &mockMailer{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "registrar@riverside.edu", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleRegistrar, res.Admin.Role)
	assert.InDelta(t, int64((15 * time.Minute).Seconds()), res.ExpiresIn, 2)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{adminByEmail: registrarAdmin(t, "password")}
	svc := testAuthService(repo, &mockMailer{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "registrar@riverside.edu", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := testAuthService(&mockAuthRepo{}, &mockMailer{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@riverside.edu", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateToken(t *testing.T) {
	repo := &mockAuthRepo{adminByEmail: registrarAdmin(t, "password")}
	svc := testAuthService(repo, &mockMailer{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "registrar@riverside.edu", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, models.RoleRegistrar, claims.Role)
	require.NotNil(t, claims.SchoolID)
	assert.Equal(t, "school-1", *claims.SchoolID)
	assert.True(t, claims.Scoped())
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(&mockAuthRepo{}, &mockMailer{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestForgotPasswordStoresTokenAndSendsMail(t *testing.T) {
	repo := &mockAuthRepo{adminByEmail: registrarAdmin(t, "password")}
	mail := &mockMailer{}
	svc := testAuthService(repo, mail)

	err := svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "registrar@riverside.edu"})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.resetToken)
	assert.True(t, repo.resetExpiry.After(time.Now()))
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Body, repo.resetToken)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	mail := &mockMailer{}
	svc := testAuthService(&mockAuthRepo{}, mail)

	err := svc.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "ghost@riverside.edu"})
	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}

func TestResetPasswordSuccess(t *testing.T) {
	admin := registrarAdmin(t, "old-password")
	expiry := time.Now().UTC().Add(time.Hour)
	admin.ResetTokenExpiry = &expiry
	repo := &mockAuthRepo{adminByToken: admin}
	svc := testAuthService(repo, &mockMailer{})

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: "tok", Password: "new-password"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordHash), []byte("new-password")))
}

func TestResetPasswordExpiredToken(t *testing.T) {
	admin := registrarAdmin(t, "old-password")
	expiry := time.Now().UTC().Add(-time.Minute)
	admin.ResetTokenExpiry = &expiry
	svc := testAuthService(&mockAuthRepo{adminByToken: admin}, &mockMailer{})

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: "tok", Password: "new-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
