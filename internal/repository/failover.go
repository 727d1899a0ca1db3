package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"restobar/internal/domain"

	"github.com/rs/zerolog"
)

const failoverRetryAfter = time.Minute

// FailoverSlotLocker takes locks from the primary and falls back to the
// secondary while the primary is failing. A held lock is not a failure.
type FailoverSlotLocker struct {
	primary   domain.SlotLocker
	fallback  domain.SlotLocker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSlotLocker(primary, fallback domain.SlotLocker, logger *zerolog.Logger) *FailoverSlotLocker {
	return &FailoverSlotLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverSlotLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if !f.isDown.Load() || f.shouldRetry() {
		release, err := f.primary.Acquire(ctx, key, ttl)
		if err == nil || errors.Is(err, domain.ErrSlotLocked) {
			if f.isDown.Swap(false) {
				f.logger.Info().Msg("primary slot locker recovered")
			}
			return release, err
		}
		f.logger.Error().Err(err).Str("slot", key).Msg("primary slot locker failed, falling back to memory")
		f.markDown()
	}

	return f.fallback.Acquire(ctx, key, ttl)
}

func (f *FailoverSlotLocker) markDown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isDown.Store(true)
	f.lastCheck = time.Now()
}

func (f *FailoverSlotLocker) shouldRetry() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Since(f.lastCheck) > failoverRetryAfter
}
