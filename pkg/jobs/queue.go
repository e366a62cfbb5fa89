package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Submit when the buffer has no free slot.
	ErrQueueFull = errors.New("queue full")
	// ErrNotRunning is returned by Submit before Start or after Stop.
	ErrNotRunning = errors.New("queue not running")
)

// Handler processes one queued item.
type Handler[T any] func(context.Context, T) error

// Config configures worker pool behaviour.
type Config struct {
	Workers     int
	BufferSize  int
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *zap.Logger
}

// Queue is an in-memory worker pool. Items still buffered when Stop is called
// are processed before Stop returns.
type Queue[T any] struct {
	name    string
	handler Handler[T]

	workers     int
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger

	items   chan T
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	stopped bool
}

// New builds a queue with the provided handler.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:        name,
		handler:     handler,
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      cfg.Logger.With(zap.String("queue", name)),
		items:       make(chan T, cfg.BufferSize),
	}
}

// Start launches the workers. A queue can be started once.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.stopped {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop refuses new items, drains the buffer and waits for the workers.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.stopped = true
	close(q.items)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
	q.logger.Info("queue stopped")
}

// Submit buffers item without blocking.
func (q *Queue[T]) Submit(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrNotRunning
	}
	select {
	case q.items <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for item := range q.items {
		q.process(item)
	}
}

func (q *Queue[T]) process(item T) {
	for attempt := 1; ; attempt++ {
		err := q.handler(q.ctx, item)
		if err == nil {
			return
		}
		if attempt >= q.maxAttempts {
			q.logger.Error("item dropped after retries", zap.Int("attempts", attempt), zap.Error(err))
			return
		}
		q.logger.Warn("item failed, retrying", zap.Int("attempt", attempt), zap.Error(err))

		timer := time.NewTimer(q.retryDelay)
		select {
		case <-q.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
