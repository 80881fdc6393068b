// Package lease implements the per-address lease-lock primitive of
// spec.md §4.1: a mutex with at most one holder, a monotonically
// increasing lock tag bumped on both acquire and release, and an
// optional timer-driven auto-release for bounded leases.
//
// Fairness is not guaranteed (barging is acceptable, §4.1); the only
// guarantee is that a waiter is eventually woken when the lock frees.
package lease

import (
	"sync"
	"time"

	"distshm/internal/metrics"
)

// Lock is one address's lease-lock. The zero value is not usable; use New.
type Lock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	held  bool
	ltag  uint64
	timer *time.Timer
}

// New creates a Lock with its tag initialized to startTag. memstore.New
// seeds wtag and ltag from the wall clock's nanosecond reading
// (time.Now().UnixNano()) at startup, not from a monotonic clock.
func New(startTag uint64) *Lock {
	l := &Lock{ltag: startTag}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Acquire blocks until the lock is free, then takes it and bumps ltag.
// It returns the post-increment ltag. If lease is non-zero, a background
// timer fires at that deadline identifying itself by the freshly
// incremented ltag; if the lock is still held under that same tag when
// the timer fires, it is force-released.
func (l *Lock) Acquire(lease time.Duration) uint64 {
	start := time.Now()

	l.mu.Lock()
	for l.held {
		l.cond.Wait()
	}
	l.held = true
	l.ltag++
	tag := l.ltag

	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if lease > 0 {
		l.timer = time.AfterFunc(lease, func() { l.expire(tag) })
	}
	l.mu.Unlock()

	metrics.LockWaitSeconds.Observe(time.Since(start).Seconds())
	return tag
}

// expire force-releases the lock if it is still held under tag. A lease
// that fired after the holder already released (tag advanced) is a no-op:
// the tag mismatch means a later acquirer, not this timer, now owns the
// lock state.
func (l *Lock) expire(tag uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held || l.ltag != tag {
		return
	}
	l.ltag++
	l.held = false
	l.timer = nil
	l.cond.Signal()
	metrics.LeaseExpirationsFired.Inc()
}

// Release succeeds only if the current ltag equals expected. On success
// it bumps ltag, releases the mutex, and wakes one waiter. On mismatch it
// is a no-op: some other releaser (the original holder's own release, or
// a lease timer) already advanced the tag, and this call is treated as
// "already released" rather than an error (§4.1, §8 invariant 5).
func (l *Lock) Release(expected uint64) (ok bool, ltag uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held || l.ltag != expected {
		return false, l.ltag
	}

	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.ltag++
	l.held = false
	l.cond.Signal()
	return true, l.ltag
}

// Tag returns the current ltag without acquiring the lock.
func (l *Lock) Tag() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ltag
}
