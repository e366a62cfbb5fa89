package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/database"
)

const adminSelect = `SELECT a.id, a.email, a.password_hash, a.full_name, a.role_id, r.code AS role_code, a.active, a.failed_login_attempts, a.locked_until, a.last_login, a.created_at, a.updated_at
FROM admins a
JOIN admin_roles r ON r.id = a.role_id`

// AdminRepository provides database access for admin accounts, roles and audit logs.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail returns an admin with its role code.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.GetContext(ctx, &admin, adminSelect+" WHERE LOWER(a.email) = LOWER($1) LIMIT 1", email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &admin, nil
}

// FindByID returns an admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.GetContext(ctx, &admin, adminSelect+" WHERE a.id = $1 LIMIT 1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// Count returns the number of admin accounts.
func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM admins`); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// List returns admins matching the filter with the total count.
func (r *AdminRepository) List(ctx context.Context, filter models.AdminFilter) ([]models.AdminUser, int, error) {
	where := " WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.email) LIKE $%d OR LOWER(a.full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.RoleCode != "" {
		conditions = append(conditions, fmt.Sprintf("r.code = $%d", len(args)+1))
		args = append(args, filter.RoleCode)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("a.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("%s%s ORDER BY a.created_at DESC LIMIT %d OFFSET %d", adminSelect, where, pageSize, offset)
	var admins []models.AdminUser
	if err := r.db.SelectContext(ctx, &admins, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list admins: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM admins a JOIN admin_roles r ON r.id = a.role_id" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count admins: %w", err)
	}
	return admins, total, nil
}

// Create inserts a new admin account.
func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	const query = `INSERT INTO admins (id, email, password_hash, full_name, role_id, active, failed_login_attempts, created_at, updated_at)
VALUES (:id, :email, :password_hash, :full_name, :role_id, :active, 0, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create admin: %w", ErrDuplicate)
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Update writes mutable admin fields. An empty password hash keeps the stored one.
func (r *AdminRepository) Update(ctx context.Context, admin *models.AdminUser) error {
	admin.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admins SET full_name = :full_name, role_id = :role_id, active = :active,
password_hash = COALESCE(NULLIF(:password_hash, ''), password_hash), updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, admin)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	return requireAffected(res, "update admin")
}

// Deactivate performs a soft delete.
func (r *AdminRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admins SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate admin: %w", err)
	}
	return requireAffected(res, "deactivate admin")
}

// RecordFailedLogin increments the failure counter in a single statement and
// sets locked_until once the counter reaches threshold.
func (r *AdminRepository) RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil, now time.Time) (*models.LoginFailure, error) {
	const query = `UPDATE admins SET failed_login_attempts = failed_login_attempts + 1,
locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
updated_at = $4
WHERE id = $1
RETURNING failed_login_attempts, locked_until`
	var failure models.LoginFailure
	if err := r.db.GetContext(ctx, &failure, query, id, threshold, lockUntil, now); err != nil {
		return nil, fmt.Errorf("record failed login: %w", err)
	}
	return &failure, nil
}

// ResetLoginFailures zeroes the failure counter and clears any lock.
func (r *AdminRepository) ResetLoginFailures(ctx context.Context, id string) error {
	const query = `UPDATE admins SET failed_login_attempts = 0, locked_until = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last_login timestamp.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE admins SET last_login = $2, updated_at = $3 WHERE id = $1`, id, ts, ts); err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return nil
}

// FindRoleByCode returns a role by its code.
func (r *AdminRepository) FindRoleByCode(ctx context.Context, code string) (*models.AdminRole, error) {
	var role models.AdminRole
	if err := r.db.GetContext(ctx, &role, `SELECT id, code, name FROM admin_roles WHERE code = $1`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &role, nil
}

// ListRoles returns every role with its permission codes.
func (r *AdminRepository) ListRoles(ctx context.Context) ([]models.AdminRole, error) {
	var roles []models.AdminRole
	if err := r.db.SelectContext(ctx, &roles, `SELECT id, code, name FROM admin_roles ORDER BY code ASC`); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	var grants []struct {
		RoleID string `db:"role_id"`
		Code   string `db:"code"`
	}
	const grantsQuery = `SELECT rp.role_id, p.code FROM admin_role_permissions rp JOIN admin_permissions p ON p.id = rp.permission_id ORDER BY p.code ASC`
	if err := r.db.SelectContext(ctx, &grants, grantsQuery); err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	byRole := make(map[string][]string, len(roles))
	for _, g := range grants {
		byRole[g.RoleID] = append(byRole[g.RoleID], g.Code)
	}
	for i := range roles {
		roles[i].Permissions = byRole[roles[i].ID]
		if roles[i].Permissions == nil {
			roles[i].Permissions = []string{}
		}
	}
	return roles, nil
}

// PermissionsForRole returns the permission codes granted to a role.
func (r *AdminRepository) PermissionsForRole(ctx context.Context, roleID string) ([]string, error) {
	const query = `SELECT p.code FROM admin_role_permissions rp JOIN admin_permissions p ON p.id = rp.permission_id WHERE rp.role_id = $1 ORDER BY p.code ASC`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, roleID); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return codes, nil
}

// CreateAuditLog persists an audit trail entry.
func (r *AdminRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, admin_id, action, resource, resource_id, payload, ip_address, user_agent, created_at) VALUES (:id, :admin_id, :action, :resource, :resource_id, :payload, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
