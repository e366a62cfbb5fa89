package models

import "time"

// Built-in role codes.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleViewer     = "VIEWER"
)

// Permission codes checked by admin routes.
const (
	PermCoursesManage  = "courses.manage"
	PermStudentsManage = "students.manage"
	PermAdminsManage   = "admins.manage"
	PermProgramManage  = "program.manage"
	PermReportsView    = "reports.view"
)

// AdminUser is an administrator account stored in the admins table.
type AdminUser struct {
	ID                  string     `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FullName            string     `db:"full_name" json:"full_name"`
	RoleID              string     `db:"role_id" json:"role_id"`
	RoleCode            string     `db:"role_code" json:"role"`
	Active              bool       `db:"active" json:"active"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"locked_until,omitempty"`
	LastLogin           *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLocked reports whether the account lock is still in force at now.
func (a *AdminUser) IsLocked(now time.Time) bool {
	return a != nil && a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// LockExpired reports whether a lock was set and has lapsed at now.
func (a *AdminUser) LockExpired(now time.Time) bool {
	return a != nil && a.LockedUntil != nil && !now.Before(*a.LockedUntil)
}

// LoginFailure is the counter state after a failed admin login.
type LoginFailure struct {
	Attempts    int        `db:"failed_login_attempts"`
	LockedUntil *time.Time `db:"locked_until"`
}

// AdminRole groups permissions.
type AdminRole struct {
	ID          string   `db:"id" json:"id"`
	Code        string   `db:"code" json:"code"`
	Name        string   `db:"name" json:"name"`
	Permissions []string `db:"-" json:"permissions"`
}

// AdminPermission is a single grantable capability.
type AdminPermission struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
}

// AdminFilter captures filtering criteria for listing admins.
type AdminFilter struct {
	Search   string
	RoleCode string
	Active   *bool
	Page     int
	PageSize int
}
