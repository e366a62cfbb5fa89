package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

const (
	loginSuccess  = "success"
	loginFailed   = "failed"
	loginLocked   = "locked"
	loginInactive = "inactive"
)

type authStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

type authAdminRepository interface {
	FindByID(ctx context.Context, id string) (*models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, admin *models.AdminUser) error
	FindRoleByCode(ctx context.Context, code string) (*models.AdminRole, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]string, error)
	RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil, now time.Time) (*models.LoginFailure, error)
	ResetLoginFailures(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret            string
	TokenExpiry       time.Duration
	Issuer            string
	MaxFailedLogins   int
	LockoutDuration   time.Duration
	BootstrapPasscode string
}

// AuthService issues and verifies student and admin tokens.
type AuthService struct {
	students  authStudentRepository
	admins    authAdminRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(students authStudentRepository, admins authAdminRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TokenExpiry <= 0 {
		config.TokenExpiry = 24 * time.Hour
	}
	if config.MaxFailedLogins <= 0 {
		config.MaxFailedLogins = 5
	}
	if config.LockoutDuration <= 0 {
		config.LockoutDuration = 30 * time.Minute
	}
	return &AuthService{
		students:  students,
		admins:    admins,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source used for lockout windows.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Signup registers a student and signs them in.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid signup payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		RollNumber:   strings.TrimSpace(req.RollNumber),
		Degree:       req.Degree,
		Branch:       req.Branch,
		Division:     req.Division,
		Active:       true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, writeError(err, "email or roll number already registered", "failed to create student")
	}

	s.logger.Info("student registered", zap.String("student_id", student.ID))
	return s.issue(models.Identity{ID: student.ID, Type: models.IdentityStudent, Email: student.Email})
}

// Login authenticates a student.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	student, err := s.students.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordLogin(models.IdentityStudent, loginFailed)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Store(err, "failed to fetch student")
	}
	if !student.Active {
		s.metrics.RecordLogin(models.IdentityStudent, loginInactive)
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLogin(models.IdentityStudent, loginFailed)
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := s.students.UpdateLastLogin(ctx, student.ID, s.now()); err != nil {
		s.logger.Warn("failed to update student last login", zap.Error(err))
	}
	s.metrics.RecordLogin(models.IdentityStudent, loginSuccess)
	return s.issue(models.Identity{ID: student.ID, Type: models.IdentityStudent, Email: student.Email})
}

// AdminLogin authenticates an admin. The lock is checked before the password,
// so a locked account is refused even with correct credentials. Each wrong
// password increments the failure counter; reaching MaxFailedLogins locks the
// account for LockoutDuration. A lapsed lock starts a fresh count.
func (s *AuthService) AdminLogin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordLogin(models.IdentityAdmin, loginFailed)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Store(err, "failed to fetch admin")
	}
	if !admin.Active {
		s.metrics.RecordLogin(models.IdentityAdmin, loginInactive)
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	now := s.now()
	if admin.IsLocked(now) {
		s.metrics.RecordLogin(models.IdentityAdmin, loginLocked)
		return nil, appErrors.Clone(appErrors.ErrAccountLocked, fmt.Sprintf("account is locked until %s", admin.LockedUntil.UTC().Format(time.RFC3339)))
	}
	if admin.LockExpired(now) {
		if err := s.admins.ResetLoginFailures(ctx, admin.ID); err != nil {
			return nil, appErrors.Store(err, "failed to reset login failures")
		}
		admin.FailedLoginAttempts = 0
		admin.LockedUntil = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.recordAdminFailure(ctx, admin, req, now)
	}

	if admin.FailedLoginAttempts > 0 {
		if err := s.admins.ResetLoginFailures(ctx, admin.ID); err != nil {
			return nil, appErrors.Store(err, "failed to reset login failures")
		}
	}
	perms, err := s.admins.PermissionsForRole(ctx, admin.RoleID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load permissions")
	}
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn("failed to update admin last login", zap.Error(err))
	}
	s.audit(ctx, admin.ID, models.AuditActionLogin, req, map[string]interface{}{"status": loginSuccess})
	s.metrics.RecordLogin(models.IdentityAdmin, loginSuccess)

	return s.issue(models.Identity{
		ID:          admin.ID,
		Type:        models.IdentityAdmin,
		Email:       admin.Email,
		Role:        admin.RoleCode,
		Permissions: perms,
	})
}

func (s *AuthService) recordAdminFailure(ctx context.Context, admin *models.AdminUser, req models.LoginRequest, now time.Time) error {
	failure, err := s.admins.RecordFailedLogin(ctx, admin.ID, s.config.MaxFailedLogins, now.Add(s.config.LockoutDuration), now)
	if err != nil {
		return appErrors.Store(err, "failed to record login failure")
	}
	s.metrics.RecordLogin(models.IdentityAdmin, loginFailed)
	s.audit(ctx, admin.ID, models.AuditActionLoginFailed, req, map[string]interface{}{"attempts": failure.Attempts})

	if failure.Attempts >= s.config.MaxFailedLogins && failure.LockedUntil != nil {
		s.metrics.RecordLockout()
		s.audit(ctx, admin.ID, models.AuditActionAccountLocked, req, map[string]interface{}{"locked_until": failure.LockedUntil})
		s.logger.Warn("admin account locked",
			zap.String("admin_id", admin.ID),
			zap.Int("attempts", failure.Attempts),
			zap.Time("locked_until", *failure.LockedUntil),
		)
	}
	return appErrors.ErrInvalidCredentials
}

// Bootstrap creates the first super admin. It is refused once any admin exists.
func (s *AuthService) Bootstrap(ctx context.Context, req models.BootstrapRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid bootstrap payload")
	}
	if s.config.BootstrapPasscode == "" || subtle.ConstantTimeCompare([]byte(req.Passcode), []byte(s.config.BootstrapPasscode)) != 1 {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "invalid bootstrap passcode")
	}

	count, err := s.admins.Count(ctx)
	if err != nil {
		return nil, appErrors.Store(err, "failed to count admins")
	}
	if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "an admin account already exists")
	}

	role, err := s.admins.FindRoleByCode(ctx, models.RoleSuperAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "super admin role is not configured")
		}
		return nil, appErrors.Store(err, "failed to load role")
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
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, writeError(err, "email already registered", "failed to create admin")
	}
	s.audit(ctx, admin.ID, models.AuditActionBootstrap, models.LoginRequest{}, map[string]interface{}{"email": admin.Email})
	s.logger.Info("super admin bootstrapped", zap.String("admin_id", admin.ID))

	return s.issue(models.Identity{ID: admin.ID, Type: models.IdentityAdmin, Email: admin.Email, Role: role.Code})
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.ErrInvalidToken
	}
	if claims.Type != models.IdentityStudent && claims.Type != models.IdentityAdmin {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "unknown identity type")
	}
	return claims, nil
}

// ResolveCaller verifies token and returns the caller identity. An empty
// expected type accepts either kind. The account is reloaded on every call so
// deactivation takes effect immediately, and admin role and permissions come
// from the store rather than the token.
func (s *AuthService) ResolveCaller(ctx context.Context, token string, expected models.IdentityType) (*models.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.ErrMissingToken
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if expected != "" && claims.Type != expected {
		return nil, appErrors.Clone(appErrors.ErrWrongIdentityType, fmt.Sprintf("%s token required", expected))
	}

	identity := models.IdentityFromClaims(claims)
	if identity.IsAdmin() {
		return s.refreshAdmin(ctx, identity)
	}
	student, err := s.students.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, resolveLookupError(err, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	return identity, nil
}

func (s *AuthService) refreshAdmin(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	admin, err := s.admins.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, resolveLookupError(err, "failed to load admin")
	}
	if !admin.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	perms, err := s.admins.PermissionsForRole(ctx, admin.RoleID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load permissions")
	}
	identity.Role = admin.RoleCode
	identity.Permissions = perms
	return identity, nil
}

// resolveLookupError reports a deleted account as an invalid token.
func resolveLookupError(err error, failure string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidToken, "account no longer exists")
	}
	return appErrors.Store(err, failure)
}

// TokenTTL returns the configured access token lifetime.
func (s *AuthService) TokenTTL() time.Duration {
	return s.config.TokenExpiry
}

func (s *AuthService) issue(identity models.Identity) (*models.LoginResponse, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.JWTClaims{
		UserID:      identity.ID,
		Type:        identity.Type,
		Email:       identity.Email,
		Role:        identity.Role,
		Permissions: identity.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.LoginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		ExpiresAt:   expiresAt,
		Identity:    identity,
	}, nil
}

func (s *AuthService) audit(ctx context.Context, adminID, action string, req models.LoginRequest, payload map[string]interface{}) {
	body, _ := json.Marshal(payload)
	id := adminID
	if err := s.admins.CreateAuditLog(ctx, &models.AuditLog{
		AdminID:    &id,
		Action:     action,
		Resource:   "auth",
		ResourceID: &id,
		Payload:    body,
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}

var _ authAdminRepository = (*repository.AdminRepository)(nil)
var _ authStudentRepository = (*repository.StudentRepository)(nil)
