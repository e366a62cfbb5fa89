package dto

import (
	"time"

	"github.com/noah-isme/credit-tracker-api/internal/models"
)

// Progress compares completed credits against a recommended total.
// Percentage is nil when nothing is required.
type Progress struct {
	VerticalID string  `json:"vertical_id"`
	Vertical   string  `json:"vertical"`
	BasketID   string  `json:"basket_id,omitempty"`
	Basket     string  `json:"basket,omitempty"`
	Semester   int     `json:"semester,omitempty"`
	Completed  float64 `json:"completed"`
	Required   float64 `json:"required"`
	Percentage *int    `json:"percentage"`
}

// CreditSummary is the per-student credit aggregate.
type CreditSummary struct {
	StudentID         string             `json:"student_id"`
	CurrentSemester   *int               `json:"current_semester"`
	TotalCredits      float64            `json:"total_credits"`
	CreditsByVertical map[string]float64 `json:"credits_by_vertical"`
	CreditsByBasket   map[string]float64 `json:"credits_by_basket"`
	CreditsBySemester map[int]float64    `json:"credits_by_semester"`
	VerticalProgress  []Progress         `json:"vertical_progress"`
	BasketProgress    []Progress         `json:"basket_progress"`
	SemesterProgress  []Progress         `json:"semester_progress"`
	Student           *models.Student    `json:"student,omitempty"`
}

// ExportFile is a rendered credit statement.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportLink is a signed download token for a credit statement. URL is
// relative to the API base path.
type ExportLink struct {
	Token     string    `json:"token"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StudentCourse is a catalog course annotated with the caller's completion state.
type StudentCourse struct {
	models.Course
	Completed bool `json:"completed"`
}

// CompletionToggleRequest backs PATCH /courses/completion. StudentID defaults
// to the calling student.
type CompletionToggleRequest struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id" validate:"required"`
	Completed *bool  `json:"completed" validate:"required"`
}

// CompletionToggleResult reports the ledger state after a toggle.
type CompletionToggleResult struct {
	StudentID  string                  `json:"student_id"`
	CourseID   string                  `json:"course_id"`
	Completed  bool                    `json:"completed"`
	Completion *models.CompletedCourse `json:"completion,omitempty"`
}
