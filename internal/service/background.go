package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"postpulse/internal/metrics"
	"postpulse/pkg/logger"
)

// Background runs fire-and-forget tasks after the response has been built.
// Tasks are best-effort: each gets its own timeout, failures are logged and
// counted, nothing is retried.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewBackground creates a task runner whose tasks are bounded by timeout
func NewBackground(timeout time.Duration, logger *logger.Logger, m *metrics.Metrics) *Background {
	return &Background{timeout: timeout, logger: logger, metrics: m}
}

// Go starts fn in a tracked goroutine detached from any request context
func (b *Background) Go(name string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := boundedCtx(context.Background(), b.timeout)
		defer cancel()

		err := b.run(ctx, fn)
		b.metrics.BackgroundTask(name, err)
		if err != nil {
			b.logger.WithError(err).WithField("task", name).Error("Background task failed")
		}
	}()
}

func (b *Background) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started task has finished or ctx is done
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}
