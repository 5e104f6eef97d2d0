package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/repository"
	appErrors "github.com/clae-hq/admissions-api/pkg/errors"
)

type personnelAdminRepository interface {
	List(ctx context.Context, schoolID string) ([]models.Admin, error)
	FindByID(ctx context.Context, id string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, id string) error
}

// CreateAdminRequest adds a staff account directly, bypassing invitations.
// Reserved for the super admin console.
type CreateAdminRequest struct {
	SchoolID string `json:"school_id"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

// PersonnelService manages staff accounts.
type PersonnelService struct {
	repo      personnelAdminRepository
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

// NewPersonnelService constructs a PersonnelService instance.
func NewPersonnelService(repo personnelAdminRepository, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *PersonnelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost <= 0 {
		bcryptCost = 12
	}
	return &PersonnelService{repo: repo, validator: validate, logger: logger, cost: bcryptCost}
}

// List returns staff accounts visible to the caller. Super admins see all
// accounts; everyone else sees only their own school.
func (s *PersonnelService) List(ctx context.Context, claims *models.SessionClaims) ([]models.Admin, error) {
	schoolID := ""
	if claims.Scoped() {
		id, err := requireSchool(claims)
		if err != nil {
			return nil, err
		}
		schoolID = id
	}
	admins, err := s.repo.List(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	return admins, nil
}

// Create adds a staff account with a hashed password.
func (s *PersonnelService) Create(ctx context.Context, req CreateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	role := models.AdminRole(req.Role)
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if role != models.RoleSuperAdmin && req.SchoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school_id is required for school-scoped roles")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Admin{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         role,
	}
	if req.SchoolID != "" {
		admin.SchoolID = &req.SchoolID
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with that email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}

	s.logger.Info("admin created", zap.String("admin_id", admin.ID), zap.String("role", string(admin.Role)))
	return admin, nil
}

// Delete removes a staff account. Callers cannot delete themselves and
// scoped callers cannot reach outside their school.
func (s *PersonnelService) Delete(ctx context.Context, claims *models.SessionClaims, id string) error {
	if claims.AdminID == id {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}

	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}
	if claims.Scoped() {
		schoolID, err := requireSchool(claims)
		if err != nil {
			return err
		}
		if admin.SchoolID == nil || *admin.SchoolID != schoolID {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
	}

	if err := s.repo.Delete(ctx, admin.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete admin")
	}
	return nil
}
