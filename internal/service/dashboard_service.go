package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type dashboardRepository interface {
	Counts(ctx context.Context) (*dto.DashboardCounts, error)
	StudentsBySemester(ctx context.Context) ([]dto.SemesterHeadcount, error)
	CreditsByVertical(ctx context.Context) ([]dto.VerticalCredits, error)
}

// DashboardService builds the admin dashboard summary.
type DashboardService struct {
	repo    dashboardRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		ttl:     ttl,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Admin returns the dashboard summary and whether it was served from cache.
// System metrics are always live.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	var cached dto.AdminDashboardResponse
	if s.cache.Get(ctx, dashboardCacheKey, &cached) {
		cached.System = s.metrics.Snapshot()
		return &cached, true, nil
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, false, appErrors.Store(err, "failed to load dashboard counts")
	}
	bySemester, err := s.repo.StudentsBySemester(ctx)
	if err != nil {
		return nil, false, appErrors.Store(err, "failed to load semester headcount")
	}
	byVertical, err := s.repo.CreditsByVertical(ctx)
	if err != nil {
		return nil, false, appErrors.Store(err, "failed to load vertical credits")
	}
	if bySemester == nil {
		bySemester = []dto.SemesterHeadcount{}
	}
	if byVertical == nil {
		byVertical = []dto.VerticalCredits{}
	}

	resp := &dto.AdminDashboardResponse{
		Counts:             *counts,
		StudentsBySemester: bySemester,
		CreditsByVertical:  byVertical,
		GeneratedAt:        s.now(),
	}
	s.cache.Set(ctx, dashboardCacheKey, resp, s.ttl)
	resp.System = s.metrics.Snapshot()
	return resp, false, nil
}
