package dto

// BasketCreditRow is the offered credit total for one (vertical, basket) pair.
type BasketCreditRow struct {
	VerticalID      string  `db:"vertical_id" json:"vertical_id"`
	Vertical        string  `db:"vertical_name" json:"vertical"`
	BasketID        string  `db:"basket_id" json:"basket_id"`
	Basket          string  `db:"basket_name" json:"basket"`
	TotalCredits    float64 `db:"total_credits" json:"total_credits"`
	CourseCount     int     `db:"course_count" json:"course_count"`
	RequiredCredits float64 `db:"-" json:"required_credits"`
	Percentage      *int    `db:"-" json:"percentage"`
}

// BasketCreditResponse wraps the overview with the path that produced it.
type BasketCreditResponse struct {
	Rows         []BasketCreditRow `json:"rows"`
	TotalCredits float64           `json:"total_credits"`
	Filtered     bool              `json:"filtered"`
}
