package models

import "time"

// CourseType distinguishes theory and practical courses.
type CourseType string

const (
	CourseTypeTheory    CourseType = "Theory"
	CourseTypePractical CourseType = "Practical"
)

// Valid reports whether the type is one of the known course types.
func (t CourseType) Valid() bool {
	return t == CourseTypeTheory || t == CourseTypePractical
}

// Suffix returns the single letter used at the end of generated course codes.
func (t CourseType) Suffix() string {
	if t == CourseTypePractical {
		return "P"
	}
	return "T"
}

const (
	MinSemester = 1
	MaxSemester = 8
)

// Course is a catalog entry. Vertical and basket names are joined for display.
type Course struct {
	ID           string     `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	Title        string     `db:"title" json:"title"`
	Type         CourseType `db:"type" json:"type"`
	Credits      float64    `db:"credits" json:"credits"`
	Semester     int        `db:"semester" json:"semester"`
	VerticalID   string     `db:"vertical_id" json:"vertical_id"`
	VerticalName string     `db:"vertical_name" json:"vertical"`
	BasketID     string     `db:"basket_id" json:"basket_id"`
	BasketName   string     `db:"basket_name" json:"basket"`
	Degree       string     `db:"degree" json:"degree"`
	Branch       string     `db:"branch" json:"branch"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures catalog filters. Zero values are ignored.
type CourseFilter struct {
	Search     string
	Semester   *int
	Type       CourseType
	VerticalID string
	BasketID   string
	Degree     string
	Branch     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// HasFilters reports whether any narrowing criteria is set. Pagination and
// sorting are not filters.
func (f CourseFilter) HasFilters() bool {
	return f.Search != "" || f.Semester != nil || f.Type != "" || f.VerticalID != "" ||
		f.BasketID != "" || f.Degree != "" || f.Branch != ""
}
