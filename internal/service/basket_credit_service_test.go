package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/cache"
)

// precomputedTotals mirrors what the basket_credit_totals view returns for
// sampleCourses, computed by hand.
func precomputedTotals() *fakeBasketTotals {
	return &fakeBasketTotals{rows: []dto.BasketCreditRow{
		{VerticalID: "v-pc", Vertical: "Program Core", BasketID: "b-pc-lab", Basket: "Labs", TotalCredits: 1.5, CourseCount: 1},
		{VerticalID: "v-bs", Vertical: "Basic Science", BasketID: "b-bs-math", Basket: "Mathematics", TotalCredits: 3, CourseCount: 1},
		{VerticalID: "v-pc", Vertical: "Program Core", BasketID: "b-pc-core", Basket: "Core", TotalCredits: 8, CourseCount: 2},
	}}
}

func newBasketFixture(cacheSvc *CacheService) (*BasketCreditService, *fakeBasketTotals) {
	totals := precomputedTotals()
	program := NewProgramService(sampleProgram(), nil, 0, validator.New(), zap.NewNop())
	return NewBasketCreditService(totals, sampleCourses(), program, cacheSvc, time.Minute, zap.NewNop()), totals
}

func TestBasketCreditsUnfilteredReadsView(t *testing.T) {
	svc, totals := newBasketFixture(nil)

	resp, err := svc.Overview(context.Background(), models.CourseFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, resp.Filtered)
	assert.Equal(t, 1, totals.calls)
	assert.Equal(t, 12.5, resp.TotalCredits)
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, "Basic Science", resp.Rows[0].Vertical)
	assert.Equal(t, "Core", resp.Rows[1].Basket)
	assert.Equal(t, "Labs", resp.Rows[2].Basket)

	assert.Equal(t, 6.0, resp.Rows[1].RequiredCredits)
	require.NotNil(t, resp.Rows[1].Percentage)
	assert.Equal(t, 133, *resp.Rows[1].Percentage)
	assert.Nil(t, resp.Rows[0].Percentage)
}

func TestBasketCreditsFilteredMatchesPrecomputed(t *testing.T) {
	svc, totals := newBasketFixture(nil)
	ctx := context.Background()

	unfiltered, err := svc.Overview(ctx, models.CourseFilter{})
	require.NoError(t, err)

	// A filter that matches every course exercises the in-process path over
	// the same catalog.
	filtered, err := svc.Overview(ctx, models.CourseFilter{Degree: "B.Tech"})
	require.NoError(t, err)
	assert.True(t, filtered.Filtered)
	assert.Equal(t, 1, totals.calls)

	assert.Equal(t, unfiltered.Rows, filtered.Rows)
	assert.Equal(t, unfiltered.TotalCredits, filtered.TotalCredits)
}

func TestBasketCreditsFilteredBySemester(t *testing.T) {
	svc, _ := newBasketFixture(nil)

	resp, err := svc.Overview(context.Background(), models.CourseFilter{Semester: intPtr(3)})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Core", resp.Rows[0].Basket)
	assert.Equal(t, 4.0, resp.Rows[0].TotalCredits)
	assert.Equal(t, 1, resp.Rows[0].CourseCount)
	assert.Equal(t, 6.0, resp.Rows[0].RequiredCredits)
	assert.Equal(t, 67, *resp.Rows[0].Percentage)
	assert.Equal(t, 5.5, resp.TotalCredits)
}

func TestBasketCreditsUnfilteredIsCached(t *testing.T) {
	cacheSvc := NewCacheService(cache.NewMemoryStore(), NewMetricsService(), time.Minute, zap.NewNop())
	svc, totals := newBasketFixture(cacheSvc)
	ctx := context.Background()

	first, err := svc.Overview(ctx, models.CourseFilter{})
	require.NoError(t, err)
	second, err := svc.Overview(ctx, models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, totals.calls)
	assert.Equal(t, first.Rows, second.Rows)

	cacheSvc.Invalidate(ctx, basketCachePattern)
	_, err = svc.Overview(ctx, models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, totals.calls)
}

func TestReduceCoursesEmpty(t *testing.T) {
	rows := reduceCourses(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
