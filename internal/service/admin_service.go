package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type adminRepository interface {
	FindByID(ctx context.Context, id string) (*models.AdminUser, error)
	List(ctx context.Context, filter models.AdminFilter) ([]models.AdminUser, int, error)
	Create(ctx context.Context, admin *models.AdminUser) error
	Update(ctx context.Context, admin *models.AdminUser) error
	Deactivate(ctx context.Context, id string) error
	FindRoleByCode(ctx context.Context, code string) (*models.AdminRole, error)
	ListRoles(ctx context.Context) ([]models.AdminRole, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]string, error)
}

// CreateAdminRequest is the payload for adding an admin account.
type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// UpdateAdminRequest edits an admin account. Nil fields are left unchanged.
type UpdateAdminRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Role     *string `json:"role" validate:"omitempty,min=1"`
	Active   *bool   `json:"active"`
}

// AdminProfile is an admin account with its effective permissions.
type AdminProfile struct {
	models.AdminUser
	Permissions []string `json:"permissions"`
}

// AdminService manages admin accounts and roles.
type AdminService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, validator: validate, logger: logger}
}

// Me returns the calling admin's profile.
func (s *AdminService) Me(ctx context.Context, caller *models.Identity) (*AdminProfile, error) {
	if caller == nil {
		return nil, appErrors.ErrMissingToken
	}
	if !caller.IsAdmin() {
		return nil, appErrors.ErrWrongIdentityType
	}
	return s.Get(ctx, caller.ID)
}

// Get returns an admin with permissions.
func (s *AdminService) Get(ctx context.Context, id string) (*AdminProfile, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "admin not found", "failed to load admin")
	}
	perms, err := s.repo.PermissionsForRole(ctx, admin.RoleID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load permissions")
	}
	if perms == nil {
		perms = []string{}
	}
	return &AdminProfile{AdminUser: *admin, Permissions: perms}, nil
}

// List returns a page of admins.
func (s *AdminService) List(ctx context.Context, filter models.AdminFilter) ([]models.AdminUser, *models.Pagination, error) {
	admins, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Store(err, "failed to list admins")
	}
	if admins == nil {
		admins = []models.AdminUser{}
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return admins, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create adds an admin. Only a super admin may grant the super admin role.
func (s *AdminService) Create(ctx context.Context, caller *models.Identity, req CreateAdminRequest) (*models.AdminUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid admin payload")
	}
	role, err := s.assignableRole(ctx, caller, req.Role)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	admin := &models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		RoleID:       role.ID,
		RoleCode:     role.Code,
		Active:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, writeError(err, "email already registered", "failed to create admin")
	}
	s.logger.Info("admin created", zap.String("admin_id", admin.ID), zap.String("role", role.Code))
	return admin, nil
}

// Update edits an admin. Admins cannot deactivate or change the role of
// their own account.
func (s *AdminService) Update(ctx context.Context, caller *models.Identity, id string, req UpdateAdminRequest) (*models.AdminUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid admin payload")
	}
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "admin not found", "failed to load admin")
	}
	self := caller != nil && caller.ID == id

	if req.Role != nil && *req.Role != admin.RoleCode {
		if self {
			return nil, appErrors.Clone(appErrors.ErrAccessDenied, "cannot change your own role")
		}
		if admin.RoleCode == models.RoleSuperAdmin && !caller.HasRole(models.RoleSuperAdmin) {
			return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only a super admin can change a super admin")
		}
		role, err := s.assignableRole(ctx, caller, *req.Role)
		if err != nil {
			return nil, err
		}
		admin.RoleID, admin.RoleCode = role.ID, role.Code
	}
	if req.Active != nil && !*req.Active && self {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "cannot deactivate your own account")
	}
	if req.Active != nil {
		admin.Active = *req.Active
	}
	if req.FullName != nil {
		admin.FullName = strings.TrimSpace(*req.FullName)
	}
	admin.PasswordHash = ""
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		admin.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, writeError(err, "admin conflicts with another account", "failed to update admin")
	}
	return admin, nil
}

// Deactivate soft-deletes an admin.
func (s *AdminService) Deactivate(ctx context.Context, caller *models.Identity, id string) error {
	if caller != nil && caller.ID == id {
		return appErrors.Clone(appErrors.ErrAccessDenied, "cannot deactivate your own account")
	}
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "admin not found", "failed to load admin")
	}
	if admin.RoleCode == models.RoleSuperAdmin && !caller.HasRole(models.RoleSuperAdmin) {
		return appErrors.Clone(appErrors.ErrAccessDenied, "only a super admin can deactivate a super admin")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "admin not found", "failed to deactivate admin")
	}
	s.logger.Info("admin deactivated", zap.String("admin_id", id))
	return nil
}

// Roles lists roles with their permission codes.
func (s *AdminService) Roles(ctx context.Context) ([]models.AdminRole, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list roles")
	}
	if roles == nil {
		roles = []models.AdminRole{}
	}
	return roles, nil
}

func (s *AdminService) assignableRole(ctx context.Context, caller *models.Identity, code string) (*models.AdminRole, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == models.RoleSuperAdmin && !caller.HasRole(models.RoleSuperAdmin) {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only a super admin can grant the super admin role")
	}
	role, err := s.repo.FindRoleByCode(ctx, code)
	if err != nil {
		return nil, lookupError(err, "role not found", "failed to load role")
	}
	return role, nil
}

var _ adminRepository = (*repository.AdminRepository)(nil)
