package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type programRepository interface {
	ListVerticals(ctx context.Context) ([]models.Vertical, error)
	ListBaskets(ctx context.Context) ([]models.Basket, error)
	FindVertical(ctx context.Context, id string) (*models.Vertical, error)
	FindBasket(ctx context.Context, id string) (*models.Basket, error)
	CreateVertical(ctx context.Context, vertical *models.Vertical) error
	CreateBasket(ctx context.Context, basket *models.Basket) error
	ListRequirements(ctx context.Context, filter models.RequirementFilter) ([]models.ProgramRequirement, error)
	UpsertRequirement(ctx context.Context, req *models.ProgramRequirement) error
}

// CreateVerticalRequest is the payload for adding a vertical.
type CreateVerticalRequest struct {
	Code         string `json:"code" validate:"required,max=8"`
	Name         string `json:"name" validate:"required,max=120"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// CreateBasketRequest is the payload for adding a basket to a vertical.
type CreateBasketRequest struct {
	VerticalID string `json:"vertical_id" validate:"required"`
	Code       string `json:"code" validate:"required,max=16"`
	Name       string `json:"name" validate:"required,max=120"`
}

// UpsertRequirementRequest sets the recommended credits for a program slot.
// Omit basket_id for a vertical-level requirement.
type UpsertRequirementRequest struct {
	VerticalID      string  `json:"vertical_id" validate:"required"`
	BasketID        *string `json:"basket_id"`
	Semester        int     `json:"semester" validate:"required,min=1,max=8"`
	RequiredCredits float64 `json:"required_credits" validate:"gte=0"`
}

// ProgramService serves the vertical/basket taxonomy and credit requirements
// through the cache.
type ProgramService struct {
	repo      programRepository
	cache     *CacheService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs a ProgramService. ttl bounds how long cached
// program data may be served after a change made outside this process.
func NewProgramService(repo programRepository, cache *CacheService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProgramService{repo: repo, cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// Verticals returns every vertical with its baskets nested.
func (s *ProgramService) Verticals(ctx context.Context) ([]models.Vertical, error) {
	var cached []models.Vertical
	if s.cache.Get(ctx, programAllKey, &cached) {
		return cached, nil
	}

	verticals, err := s.repo.ListVerticals(ctx)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load verticals")
	}
	baskets, err := s.repo.ListBaskets(ctx)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load baskets")
	}

	byVertical := make(map[string][]models.Basket, len(verticals))
	for _, b := range baskets {
		byVertical[b.VerticalID] = append(byVertical[b.VerticalID], b)
	}
	for i := range verticals {
		verticals[i].Baskets = byVertical[verticals[i].ID]
		if verticals[i].Baskets == nil {
			verticals[i].Baskets = []models.Basket{}
		}
	}
	if verticals == nil {
		verticals = []models.Vertical{}
	}

	s.cache.Set(ctx, programAllKey, verticals, s.ttl)
	return verticals, nil
}

// Requirements returns requirement rows for the filter.
func (s *ProgramService) Requirements(ctx context.Context, filter models.RequirementFilter) ([]models.ProgramRequirement, error) {
	key := requirementCacheKey(filter.VerticalID, filter.Semester)
	var cached []models.ProgramRequirement
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.repo.ListRequirements(ctx, filter)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load program requirements")
	}
	if rows == nil {
		rows = []models.ProgramRequirement{}
	}
	s.cache.Set(ctx, key, rows, s.ttl)
	return rows, nil
}

// CreateVertical adds a vertical.
func (s *ProgramService) CreateVertical(ctx context.Context, req CreateVerticalRequest) (*models.Vertical, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid vertical payload")
	}
	vertical := &models.Vertical{Code: req.Code, Name: req.Name, DisplayOrder: req.DisplayOrder, Baskets: []models.Basket{}}
	if err := s.repo.CreateVertical(ctx, vertical); err != nil {
		return nil, writeError(err, "vertical code already exists", "failed to create vertical")
	}
	s.invalidate(ctx)
	return vertical, nil
}

// CreateBasket adds a basket under an existing vertical.
func (s *ProgramService) CreateBasket(ctx context.Context, req CreateBasketRequest) (*models.Basket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid basket payload")
	}
	if _, err := s.repo.FindVertical(ctx, req.VerticalID); err != nil {
		return nil, lookupError(err, "vertical not found", "failed to load vertical")
	}
	basket := &models.Basket{VerticalID: req.VerticalID, Code: req.Code, Name: req.Name}
	if err := s.repo.CreateBasket(ctx, basket); err != nil {
		return nil, writeError(err, "basket code already exists in vertical", "failed to create basket")
	}
	s.invalidate(ctx)
	return basket, nil
}

// UpsertRequirement writes the recommended credits for (vertical, basket, semester).
func (s *ProgramService) UpsertRequirement(ctx context.Context, req UpsertRequirementRequest) (*models.ProgramRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid requirement payload")
	}
	if _, err := s.repo.FindVertical(ctx, req.VerticalID); err != nil {
		return nil, lookupError(err, "vertical not found", "failed to load vertical")
	}
	basketID := req.BasketID
	if basketID != nil && *basketID == "" {
		basketID = nil
	}
	if basketID != nil {
		basket, err := s.repo.FindBasket(ctx, *basketID)
		if err != nil {
			return nil, lookupError(err, "basket not found", "failed to load basket")
		}
		if basket.VerticalID != req.VerticalID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "basket does not belong to vertical")
		}
	}

	row := &models.ProgramRequirement{
		VerticalID:      req.VerticalID,
		BasketID:        basketID,
		Semester:        req.Semester,
		RequiredCredits: req.RequiredCredits,
	}
	if err := s.repo.UpsertRequirement(ctx, row); err != nil {
		return nil, appErrors.Store(err, "failed to save requirement")
	}
	s.invalidate(ctx)
	s.logger.Info("program requirement updated",
		zap.String("vertical_id", row.VerticalID),
		zap.Int("semester", row.Semester),
		zap.Float64("required_credits", row.RequiredCredits),
	)
	return row, nil
}

func (s *ProgramService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, programCachePattern, basketCachePattern)
}
