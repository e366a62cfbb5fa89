package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/pkg/cache"
)

type mockDashboardRepo struct {
	calls int
}

func (m *mockDashboardRepo) Counts(ctx context.Context) (*dto.DashboardCounts, error) {
	m.calls++
	return &dto.DashboardCounts{TotalStudents: 40, ActiveStudents: 38, TotalCourses: 12, TotalCompletions: 90, CreditsAwarded: 310.5, ActiveAdmins: 2}, nil
}

func (m *mockDashboardRepo) StudentsBySemester(ctx context.Context) ([]dto.SemesterHeadcount, error) {
	return []dto.SemesterHeadcount{{Semester: 3, Students: 20}, {Semester: 5, Students: 18}}, nil
}

func (m *mockDashboardRepo) CreditsByVertical(ctx context.Context) ([]dto.VerticalCredits, error) {
	return nil, nil
}

func TestDashboardAdminCachesSummary(t *testing.T) {
	repo := &mockDashboardRepo{}
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(cache.NewMemoryStore(), metrics, time.Minute, zap.NewNop())
	svc := NewDashboardService(repo, cacheSvc, metrics, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, hit, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 40, first.Counts.TotalStudents)
	assert.NotNil(t, first.CreditsByVertical)

	second, hit, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, uint64(1), second.System.CacheHits)

	cacheSvc.Invalidate(ctx, dashboardCacheKey)
	_, hit, err = svc.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)
}
