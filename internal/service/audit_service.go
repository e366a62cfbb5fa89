package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/jobs"
)

const auditWriteTimeout = 5 * time.Second

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditService persists audit entries off the request path. When the queue
// cannot accept an entry it is written synchronously.
type AuditService struct {
	store  auditStore
	queue  *jobs.Queue[*models.AuditLog]
	logger *zap.Logger
}

// NewAuditService constructs an AuditService backed by a worker queue.
func NewAuditService(store auditStore, cfg jobs.Config, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{store: store, logger: logger}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.queue = jobs.New("audit", s.write, cfg)
	return s
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes pending entries.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// CreateAuditLog enqueues the entry.
func (s *AuditService) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	err := s.queue.Submit(log)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jobs.ErrQueueFull) && !errors.Is(err, jobs.ErrNotRunning) {
		return err
	}
	s.logger.Debug("audit queue unavailable, writing inline", zap.Error(err))
	return s.store.CreateAuditLog(ctx, log)
}

func (s *AuditService) write(ctx context.Context, log *models.AuditLog) error {
	writeCtx, cancel := context.WithTimeout(ctx, auditWriteTimeout)
	defer cancel()
	return s.store.CreateAuditLog(writeCtx, log)
}
