package models

// Vertical is a top-level academic category.
type Vertical struct {
	ID           string   `db:"id" json:"id"`
	Code         string   `db:"code" json:"code"`
	Name         string   `db:"name" json:"name"`
	DisplayOrder int      `db:"display_order" json:"display_order"`
	Baskets      []Basket `db:"-" json:"baskets"`
}

// Basket is a sub-category inside a vertical.
type Basket struct {
	ID         string `db:"id" json:"id"`
	VerticalID string `db:"vertical_id" json:"vertical_id"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
}

// ProgramRequirement is a recommended credit count. A nil BasketID marks a
// vertical-level row.
type ProgramRequirement struct {
	ID              string  `db:"id" json:"id"`
	VerticalID      string  `db:"vertical_id" json:"vertical_id"`
	BasketID        *string `db:"basket_id" json:"basket_id"`
	Semester        int     `db:"semester" json:"semester"`
	RequiredCredits float64 `db:"required_credits" json:"required_credits"`
}

// IsVerticalLevel reports whether the row applies to the vertical as a whole.
func (r ProgramRequirement) IsVerticalLevel() bool {
	return r.BasketID == nil || *r.BasketID == ""
}

// RequirementFilter narrows requirement listings.
type RequirementFilter struct {
	VerticalID string
	Semester   *int
}
