package dto

import (
	"time"

	"github.com/noah-isme/credit-tracker-api/internal/models"
)

// DashboardCounts holds headline counts loaded in one query.
type DashboardCounts struct {
	TotalStudents    int     `db:"total_students" json:"total_students"`
	ActiveStudents   int     `db:"active_students" json:"active_students"`
	TotalCourses     int     `db:"total_courses" json:"total_courses"`
	TotalCompletions int     `db:"total_completions" json:"total_completions"`
	CreditsAwarded   float64 `db:"credits_awarded" json:"credits_awarded"`
	ActiveAdmins     int     `db:"active_admins" json:"active_admins"`
}

// SemesterHeadcount counts students enrolled in a semester.
type SemesterHeadcount struct {
	Semester int `db:"semester" json:"semester"`
	Students int `db:"students" json:"students"`
}

// VerticalCredits sums credits awarded per vertical.
type VerticalCredits struct {
	VerticalID     string  `db:"vertical_id" json:"vertical_id"`
	Vertical       string  `db:"vertical_name" json:"vertical"`
	CreditsAwarded float64 `db:"credits_awarded" json:"credits_awarded"`
	Completions    int     `db:"completions" json:"completions"`
}

// AdminDashboardResponse is the admin summary payload.
type AdminDashboardResponse struct {
	Counts             DashboardCounts      `json:"counts"`
	StudentsBySemester []SemesterHeadcount  `json:"students_by_semester"`
	CreditsByVertical  []VerticalCredits    `json:"credits_by_vertical"`
	System             models.SystemMetrics `json:"system"`
	GeneratedAt        time.Time            `json:"generated_at"`
}
