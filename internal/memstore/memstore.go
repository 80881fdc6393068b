// Package memstore implements the owned-address storage of spec.md §3 and
// §4.1: per-address data, MESI-like status, write-tag, lease-lock, and
// copy-holder list. Layout follows §9's guidance — a preallocated slice
// of structs indexed by address, each guarded by its own mutex, rather
// than a map keyed by address.
package memstore

import (
	"fmt"
	"sync"
	"time"

	"distshm/internal/lease"
	"distshm/internal/wire"
)

// item is the in-memory state of one owned address: data, MESI-like
// status, write tag, lease-lock, and the ordered copy-holder list. mu
// guards everything except lock, which has its own internal mutex
// (acquiring/releasing the lease-lock never requires holding mu).
type item struct {
	mu      sync.Mutex
	data    any
	status  string
	wtag    uint64
	holders []wire.Endpoint
	lock    *lease.Lock
}

// Snapshot is a read-only view of one address's memory state, safe to
// hand to callers after the guarding lock has been released.
type Snapshot struct {
	Data    any
	Status  string
	WTag    uint64
	Holders []wire.Endpoint
}

// Store holds every address this member owns: the contiguous range
// [Low, High) assigned to it by the cluster topology.
type Store struct {
	Low  int
	High int

	items []*item
}

// New allocates a Store covering [low, high). Each address's wtag and
// ltag are seeded from the wall clock at construction time, per §3: "tags
// from different runs of the same address do not collide within a run."
func New(low, high int) *Store {
	n := high - low
	items := make([]*item, n)
	for i := range items {
		seed := uint64(time.Now().UnixNano())
		items[i] = &item{
			status: wire.StatusE,
			wtag:   seed,
			lock:   lease.New(seed),
		}
	}
	return &Store{Low: low, High: high, items: items}
}

// InRange reports whether addr is owned by this store.
func (s *Store) InRange(addr int) bool {
	return addr >= s.Low && addr < s.High
}

func (s *Store) at(addr int) (*item, error) {
	if !s.InRange(addr) {
		return nil, fmt.Errorf("address %d not owned by this store (range [%d,%d))", addr, s.Low, s.High)
	}
	return s.items[addr-s.Low], nil
}

// Read returns a snapshot of the address's current state.
func (s *Store) Read(addr int) (Snapshot, error) {
	it, err := s.at(addr)
	if err != nil {
		return Snapshot{}, err
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	return snapshot(it), nil
}

// Write stores data at addr and bumps wtag, per §3's write-monotonicity
// invariant. It returns the resulting snapshot.
func (s *Store) Write(addr int, data any) (Snapshot, error) {
	it, err := s.at(addr)
	if err != nil {
		return Snapshot{}, err
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	it.data = data
	it.wtag++
	return snapshot(it), nil
}

// AcquireLock acquires addr's lease-lock, applying lease as the
// auto-release timeout if non-zero (§4.1). It returns whether the lock
// was acquired, the resulting ltag, and the address's current wtag.
func (s *Store) AcquireLock(addr int, leaseDuration time.Duration) (ok bool, ltag, wtag uint64, err error) {
	it, err := s.at(addr)
	if err != nil {
		return false, 0, 0, err
	}
	tag := it.lock.Acquire(leaseDuration)

	it.mu.Lock()
	w := it.wtag
	it.mu.Unlock()

	return true, tag, w, nil
}

// ReleaseLock releases addr's lease-lock if expectedLtag matches the
// current ltag (§4.1). It returns whether the release succeeded, the
// resulting ltag, and the address's current wtag, regardless of outcome.
func (s *Store) ReleaseLock(addr int, expectedLtag uint64) (ok bool, ltag, wtag uint64, err error) {
	it, err := s.at(addr)
	if err != nil {
		return false, 0, 0, err
	}

	it.mu.Lock()
	w := it.wtag
	it.mu.Unlock()

	ok, tag := it.lock.Release(expectedLtag)
	return ok, tag, w, nil
}

// SetStatus forces addr's status, bypassing the copy-holder bookkeeping
// that AddHolder/RemoveHoldersFrom normally perform. This mirrors the
// reference implementation's escape hatch (used internally only; it is
// not exposed as a wire operation) and should be reserved for situations
// that legitimately bypass the S ⇔ non-empty-holders invariant derivation,
// such as test setup.
func (s *Store) SetStatus(addr int, status string) error {
	it, err := s.at(addr)
	if err != nil {
		return err
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	it.status = status
	return nil
}

func snapshot(it *item) Snapshot {
	return Snapshot{
		Data:    it.data,
		Status:  it.status,
		WTag:    it.wtag,
		Holders: append([]wire.Endpoint(nil), it.holders...),
	}
}
