package models

import "time"

// AuditAction constants represent admin actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLoginFailed    = "LOGIN_FAILED"
	AuditActionAccountLocked  = "ACCOUNT_LOCKED"
	AuditActionBootstrap      = "BOOTSTRAP"
	AuditActionCourseCreate   = "COURSE_CREATE"
	AuditActionCourseUpdate   = "COURSE_UPDATE"
	AuditActionCourseDelete   = "COURSE_DELETE"
	AuditActionStudentCreate  = "STUDENT_CREATE"
	AuditActionStudentUpdate  = "STUDENT_UPDATE"
	AuditActionStudentDelete  = "STUDENT_DELETE"
	AuditActionAdminCreate    = "ADMIN_CREATE"
	AuditActionAdminUpdate    = "ADMIN_UPDATE"
	AuditActionAdminDelete    = "ADMIN_DELETE"
	AuditActionProgramUpdate  = "PROGRAM_UPDATE"
	AuditActionCompletionEdit = "COMPLETION_EDIT"
)

// AuditLog represents an audit trail record of an admin action.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	AdminID    *string   `db:"admin_id" json:"admin_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
