package models

import "time"

// Student represents a student account stored in the students table.
type Student struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	RollNumber   string     `db:"roll_number" json:"roll_number"`
	Degree       string     `db:"degree" json:"degree"`
	Branch       string     `db:"branch" json:"branch"`
	Division     string     `db:"division" json:"division"`
	Semester     *int       `db:"semester" json:"semester"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CurrentSemester returns the selected semester or 0 when none has been chosen.
func (s *Student) CurrentSemester() int {
	if s == nil || s.Semester == nil {
		return 0
	}
	return *s.Semester
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Search    string
	Degree    string
	Branch    string
	Semester  *int
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
