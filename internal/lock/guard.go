package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const releaseTimeout = 2 * time.Second

// Guard runs functions while holding a lock and always releases it afterwards.
type Guard struct {
	coordinator Coordinator
	ttl         time.Duration
	failOpen    bool
	logger      *zap.Logger
}

// NewGuard creates a Guard. With failOpen set, a coordinator error other than
// ErrBusy is logged and fn runs unguarded; callers must then rely on their own
// storage-level locking for correctness.
func NewGuard(coordinator Coordinator, ttl time.Duration, failOpen bool, logger *zap.Logger) *Guard {
	return &Guard{
		coordinator: coordinator,
		ttl:         effectiveTTL(ttl),
		failOpen:    failOpen,
		logger:      logger,
	}
}

// Run acquires key, calls fn, and releases key on every exit path including panics.
// ErrBusy is returned unwrapped when the key is held.
func (g *Guard) Run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token, err := g.coordinator.Acquire(ctx, key, g.ttl)
	switch {
	case errors.Is(err, ErrBusy):
		acquisitions.WithLabelValues("busy").Inc()
		return ErrBusy
	case err != nil && g.failOpen:
		acquisitions.WithLabelValues("unavailable").Inc()
		g.logger.Warn("lock coordinator unavailable, proceeding without lock",
			zap.String("key", key),
			zap.Error(err),
		)
		return fn(ctx)
	case err != nil:
		acquisitions.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	acquisitions.WithLabelValues("acquired").Inc()
	acquiredAt := time.Now()
	defer func() {
		holdDuration.Observe(time.Since(acquiredAt).Seconds())
		g.release(ctx, key, token)
	}()

	return fn(ctx)
}

// release runs on a context detached from the caller so a cancelled request still unlocks.
func (g *Guard) release(ctx context.Context, key string, token Token) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := g.coordinator.Release(releaseCtx, key, token); err != nil {
		releaseFailures.Inc()
		g.logger.Warn("failed to release lock",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
