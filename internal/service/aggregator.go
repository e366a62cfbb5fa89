package service

import (
	"math"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
)

// percentage returns round(completed/required*100), or nil when nothing is
// required.
func percentage(completed, required float64) *int {
	if required <= 0 {
		return nil
	}
	pct := int(math.Round(completed / required * 100))
	return &pct
}

// requirementIndex sums requirement rows by vertical and basket.
type requirementIndex struct {
	verticalLevel map[string]float64
	basketLevel   map[string]float64
	byBasket      map[string]float64
	hasVertical   map[string]bool
}

func indexRequirements(rows []models.ProgramRequirement, semester *int) requirementIndex {
	idx := requirementIndex{
		verticalLevel: make(map[string]float64),
		basketLevel:   make(map[string]float64),
		byBasket:      make(map[string]float64),
		hasVertical:   make(map[string]bool),
	}
	for _, row := range rows {
		if semester != nil && row.Semester != *semester {
			continue
		}
		if row.IsVerticalLevel() {
			idx.verticalLevel[row.VerticalID] += row.RequiredCredits
			idx.hasVertical[row.VerticalID] = true
			continue
		}
		idx.basketLevel[row.VerticalID] += row.RequiredCredits
		idx.byBasket[*row.BasketID] += row.RequiredCredits
	}
	return idx
}

// vertical prefers vertical-level rows and falls back to the sum of the
// vertical's basket rows.
func (idx requirementIndex) vertical(id string) float64 {
	if idx.hasVertical[id] {
		return idx.verticalLevel[id]
	}
	return idx.basketLevel[id]
}

// Aggregate reduces a student's completions into totals and progress against
// the program requirements. It reads credit_awarded only and never touches
// the store.
func Aggregate(studentID string, currentSemester *int, completions []models.CompletionDetail, verticals []models.Vertical, requirements []models.ProgramRequirement) dto.CreditSummary {
	summary := dto.CreditSummary{
		StudentID:         studentID,
		CurrentSemester:   currentSemester,
		CreditsByVertical: make(map[string]float64, len(verticals)),
		CreditsByBasket:   make(map[string]float64),
		CreditsBySemester: make(map[int]float64),
		VerticalProgress:  []dto.Progress{},
		BasketProgress:    []dto.Progress{},
		SemesterProgress:  []dto.Progress{},
	}

	type basketRef struct{ verticalID, verticalName, id, name string }
	knownVerticals := make(map[string]bool, len(verticals))
	knownBaskets := make(map[string]bool)
	orderedVerticals := make([]models.Vertical, 0, len(verticals))
	orderedBaskets := make([]basketRef, 0)
	for _, v := range verticals {
		knownVerticals[v.ID] = true
		orderedVerticals = append(orderedVerticals, v)
		summary.CreditsByVertical[v.Name] = 0
		for _, b := range v.Baskets {
			knownBaskets[b.ID] = true
			orderedBaskets = append(orderedBaskets, basketRef{v.ID, v.Name, b.ID, b.Name})
			summary.CreditsByBasket[b.Name] = 0
		}
	}

	byVertical := make(map[string]float64)
	byBasket := make(map[string]float64)
	semesterByVertical := make(map[string]float64)
	for _, c := range completions {
		summary.TotalCredits += c.CreditAwarded
		summary.CreditsByVertical[c.VerticalName] += c.CreditAwarded
		summary.CreditsBySemester[c.Semester] += c.CreditAwarded
		byVertical[c.VerticalID] += c.CreditAwarded
		if c.BasketID != "" {
			summary.CreditsByBasket[c.BasketName] += c.CreditAwarded
			byBasket[c.BasketID] += c.CreditAwarded
		}
		if currentSemester != nil && c.Semester == *currentSemester {
			semesterByVertical[c.VerticalID] += c.CreditAwarded
		}

		if !knownVerticals[c.VerticalID] {
			knownVerticals[c.VerticalID] = true
			orderedVerticals = append(orderedVerticals, models.Vertical{ID: c.VerticalID, Name: c.VerticalName})
		}
		if c.BasketID != "" && !knownBaskets[c.BasketID] {
			knownBaskets[c.BasketID] = true
			orderedBaskets = append(orderedBaskets, basketRef{c.VerticalID, c.VerticalName, c.BasketID, c.BasketName})
		}
	}

	all := indexRequirements(requirements, nil)
	for _, v := range orderedVerticals {
		required := all.vertical(v.ID)
		summary.VerticalProgress = append(summary.VerticalProgress, dto.Progress{
			VerticalID: v.ID,
			Vertical:   v.Name,
			Completed:  byVertical[v.ID],
			Required:   required,
			Percentage: percentage(byVertical[v.ID], required),
		})
	}
	for _, b := range orderedBaskets {
		required := all.byBasket[b.id]
		summary.BasketProgress = append(summary.BasketProgress, dto.Progress{
			VerticalID: b.verticalID,
			Vertical:   b.verticalName,
			BasketID:   b.id,
			Basket:     b.name,
			Completed:  byBasket[b.id],
			Required:   required,
			Percentage: percentage(byBasket[b.id], required),
		})
	}

	if currentSemester != nil {
		current := indexRequirements(requirements, currentSemester)
		for _, v := range orderedVerticals {
			required := current.vertical(v.ID)
			summary.SemesterProgress = append(summary.SemesterProgress, dto.Progress{
				VerticalID: v.ID,
				Vertical:   v.Name,
				Semester:   *currentSemester,
				Completed:  semesterByVertical[v.ID],
				Required:   required,
				Percentage: percentage(semesterByVertical[v.ID], required),
			})
		}
	}

	return summary
}
