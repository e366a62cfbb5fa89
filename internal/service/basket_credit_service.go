package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type basketCreditTotals interface {
	Totals(ctx context.Context) ([]dto.BasketCreditRow, error)
}

type basketCourseLister interface {
	FindAll(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type basketRequirementReader interface {
	Requirements(ctx context.Context, filter models.RequirementFilter) ([]models.ProgramRequirement, error)
}

// BasketCreditService reports catalog credit totals per (vertical, basket).
type BasketCreditService struct {
	totals       basketCreditTotals
	courses      basketCourseLister
	requirements basketRequirementReader
	cache        *CacheService
	ttl          time.Duration
	logger       *zap.Logger
}

// NewBasketCreditService constructs a BasketCreditService.
func NewBasketCreditService(totals basketCreditTotals, courses basketCourseLister, requirements basketRequirementReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *BasketCreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BasketCreditService{
		totals:       totals,
		courses:      courses,
		requirements: requirements,
		cache:        cache,
		ttl:          ttl,
		logger:       logger,
	}
}

// Overview returns Σ course credits grouped by (vertical, basket). A filter
// reduces the matching courses in process; no filter reads the precomputed
// view. Both paths yield the same rows for the same catalog.
func (s *BasketCreditService) Overview(ctx context.Context, filter models.CourseFilter) (*dto.BasketCreditResponse, error) {
	filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder = 0, 0, "", ""
	filtered := filter.HasFilters()

	if !filtered {
		var cached dto.BasketCreditResponse
		if s.cache.Get(ctx, basketAllKey, &cached) {
			return &cached, nil
		}
	}

	var rows []dto.BasketCreditRow
	if filtered {
		courses, err := s.courses.FindAll(ctx, filter)
		if err != nil {
			return nil, appErrors.Store(err, "failed to load courses")
		}
		rows = reduceCourses(courses)
	} else {
		totals, err := s.totals.Totals(ctx)
		if err != nil {
			return nil, appErrors.Store(err, "failed to load basket credit totals")
		}
		rows = totals
	}
	sortBasketRows(rows)

	requirements, err := s.requirements.Requirements(ctx, models.RequirementFilter{Semester: filter.Semester})
	if err != nil {
		return nil, err
	}
	required := indexRequirements(requirements, filter.Semester).byBasket

	resp := &dto.BasketCreditResponse{Rows: make([]dto.BasketCreditRow, 0, len(rows)), Filtered: filtered}
	for _, row := range rows {
		row.RequiredCredits = required[row.BasketID]
		row.Percentage = percentage(row.TotalCredits, row.RequiredCredits)
		resp.TotalCredits += row.TotalCredits
		resp.Rows = append(resp.Rows, row)
	}

	if !filtered {
		s.cache.Set(ctx, basketAllKey, resp, s.ttl)
	}
	return resp, nil
}

// reduceCourses groups courses by (vertical, basket), summing credits.
func reduceCourses(courses []models.Course) []dto.BasketCreditRow {
	type key struct{ vertical, basket string }
	index := make(map[key]int)
	rows := make([]dto.BasketCreditRow, 0)
	for _, c := range courses {
		k := key{c.VerticalID, c.BasketID}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, dto.BasketCreditRow{
				VerticalID: c.VerticalID,
				Vertical:   c.VerticalName,
				BasketID:   c.BasketID,
				Basket:     c.BasketName,
			})
		}
		rows[i].TotalCredits += c.Credits
		rows[i].CourseCount++
	}
	return rows
}

func sortBasketRows(rows []dto.BasketCreditRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Vertical != rows[j].Vertical {
			return rows[i].Vertical < rows[j].Vertical
		}
		if rows[i].Basket != rows[j].Basket {
			return rows[i].Basket < rows[j].Basket
		}
		return rows[i].BasketID < rows[j].BasketID
	})
}
