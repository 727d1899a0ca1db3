package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"restobar/internal/domain"
)

// LockRetry is how long a writer keeps asking for a slot lock that another
// writer holds. The zero value tries once.
type LockRetry struct {
	Attempts int           // extra tries after the first
	Delay    time.Duration // first wait, doubled for every further try
	MaxDelay time.Duration
	// Jitter spreads each wait by up to this fraction so that writers
	// contending for one slot do not wake together.
	Jitter float64
}

// wait returns the pause before retry n (1-based).
func (r LockRetry) wait(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := r.Delay
	if d <= 0 {
		d = 50 * time.Millisecond
	}
	for i := 1; i < n && (r.MaxDelay <= 0 || d < r.MaxDelay); i++ {
		d *= 2
	}
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}

	if r.Jitter > 0 {
		spread := time.Duration(float64(d) * min(r.Jitter, 1))
		if spread > 0 {
			d += time.Duration(rand.Int63n(int64(2*spread)+1)) - spread
		}
	}
	return d
}

// acquire takes the lock on key. Only ErrSlotLocked is retried; any other
// error and context cancellation end the wait. tries counts Acquire calls.
func (r LockRetry) acquire(ctx context.Context, locker domain.SlotLocker, key string, ttl time.Duration) (release func(), tries int, err error) {
	for {
		tries++
		release, err = locker.Acquire(ctx, key, ttl)
		if err == nil || !errors.Is(err, domain.ErrSlotLocked) || tries > r.Attempts {
			return release, tries, err
		}

		timer := time.NewTimer(r.wait(tries))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, tries, ctx.Err()
		case <-timer.C:
		}
	}
}
