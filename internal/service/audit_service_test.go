package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/jobs"
)

type recordingAuditStore struct {
	mu       sync.Mutex
	logs     []*models.AuditLog
	failures int
}

func (r *recordingAuditStore) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("db unavailable")
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *recordingAuditStore) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

func TestAuditServiceFlushesOnStop(t *testing.T) {
	store := &recordingAuditStore{failures: 1}
	svc := NewAuditService(store, jobs.Config{Workers: 2, RetryDelay: time.Millisecond}, zap.NewNop())
	svc.Start(context.Background())

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionCourseCreate, Resource: "course"}))
	}
	svc.Stop()

	assert.Equal(t, 4, store.count())
	for _, log := range store.logs {
		assert.False(t, log.CreatedAt.IsZero())
	}
}

func TestAuditServiceWritesInlineWhenStopped(t *testing.T) {
	store := &recordingAuditStore{}
	svc := NewAuditService(store, jobs.Config{}, nil)

	require.NoError(t, svc.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionAdminCreate}))
	assert.Equal(t, 1, store.count())

	store.failures = 1
	assert.Error(t, svc.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionAdminCreate}))
}
