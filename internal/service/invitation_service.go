package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/repository"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type invitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	ListActive(ctx context.Context) ([]models.Invitation, error)
	FindByCode(ctx context.Context, code string) (*models.Invitation, error)
	Redeem(ctx context.Context, invitationID string, admin *models.Admin) error
}

type invitationSchoolRepository interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

// CreateInvitationRequest mints a single-use staff invitation.
type CreateInvitationRequest struct {
	SchoolID string `json:"school_id" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// RedeemInvitationRequest consumes an invitation and creates the account.
type RedeemInvitationRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

const invitationTTL = 7 * 24 * time.Hour

// InvitationService mints and redeems single-use staff invitations.
type InvitationService struct {
	invitations invitationRepository
	schools     invitationSchoolRepository
	validator   *validator.Validate
	logger      *zap.Logger
	cost        int
}

// NewInvitationService constructs an InvitationService instance.
func NewInvitationService(invitations invitationRepository, schools invitationSchoolRepository, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *InvitationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost <= 0 {
		bcryptCost = 12
	}
	return &InvitationService{invitations: invitations, schools: schools, validator: validate, logger: logger, cost: bcryptCost}
}

// Create mints an invitation bound to a school and role, valid for seven
// days. Super admin invitations cannot be minted this way.
func (s *InvitationService) Create(ctx context.Context, req CreateInvitationRequest) (*models.Invitation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}
	role := models.AdminRole(req.Role)
	if role != models.RoleRegistrar && role != models.RoleViewer {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be registrar or viewer")
	}

	school, err := s.schools.FindByID(ctx, req.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch school")
	}

	code, err := generateInvitationCode()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invitation code")
	}

	invitation := &models.Invitation{
		SchoolID:   school.ID,
		Role:       role,
		Code:       code,
		ExpiresAt:  time.Now().UTC().Add(invitationTTL),
		SchoolName: school.Name,
	}
	if err := s.invitations.Create(ctx, invitation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invitation")
	}

	s.logger.Info("invitation created",
		zap.String("invitation_id", invitation.ID),
		zap.String("school_id", invitation.SchoolID),
		zap.String("role", string(invitation.Role)))
	return invitation, nil
}

// ListActive returns unused, unexpired invitations.
func (s *InvitationService) ListActive(ctx context.Context) ([]models.Invitation, error) {
	invitations, err := s.invitations.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invitations")
	}
	return invitations, nil
}

// Redeem consumes an invitation exactly once and creates the staff account
// bound to the invitation's school and role. A concurrent redemption of the
// same code loses the race and gets a conflict.
func (s *InvitationService) Redeem(ctx context.Context, req RedeemInvitationRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	invitation, err := s.invitations.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invitation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch invitation")
	}
	if !invitation.Redeemable(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "invitation already used or expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Admin{
		SchoolID:     &invitation.SchoolID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         invitation.Role,
	}

	if err := s.invitations.Redeem(ctx, invitation.ID, admin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "invitation already used or expired")
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with that email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem invitation")
	}

	s.logger.Info("invitation redeemed",
		zap.String("invitation_id", invitation.ID),
		zap.String("admin_id", admin.ID))
	return admin, nil
}

func generateInvitationCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
