package models

import "time"

// CompletedCourse records that a student completed a course. CreditAwarded and
// Semester are captured from the course when the record is inserted and do not
// follow later catalog edits.
type CompletedCourse struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	CreditAwarded float64   `db:"credit_awarded" json:"credit_awarded"`
	Semester      int       `db:"semester" json:"semester"`
	CompletedAt   time.Time `db:"completed_at" json:"completed_at"`
}

// CompletionDetail is a completion joined with the current course taxonomy.
type CompletionDetail struct {
	CompletedCourse
	CourseCode   string     `db:"course_code" json:"course_code"`
	CourseTitle  string     `db:"course_title" json:"course_title"`
	CourseType   CourseType `db:"course_type" json:"course_type"`
	VerticalID   string     `db:"vertical_id" json:"vertical_id"`
	VerticalName string     `db:"vertical_name" json:"vertical"`
	BasketID     string     `db:"basket_id" json:"basket_id"`
	BasketName   string     `db:"basket_name" json:"basket"`
}
