// Package strikes contains StrikeStore implementations. Every store applies
// the same contract: per-actor atomic increment, record removal on ban, and
// an optional decay window after which untouched records expire.
package strikes

import (
	"context"
	"sync"
	"time"
)

// DefaultLimit is the number of strikes that triggers a ban.
const DefaultLimit = 3

type memoryRecord struct {
	count   int
	firstAt time.Time
}

// MemoryStore is an in-memory strike store. State lives for the process
// lifetime unless a decay window is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
	limit   int
	window  time.Duration
	now     func() time.Time
}

// MemoryOptions configures the store.
type MemoryOptions struct {
	// Limit is the strike count that triggers a ban. Defaults to 3.
	Limit int
	// Window, when positive, expires an actor's record this long after its
	// first strike. Zero disables decay.
	Window time.Duration
}

// NewMemoryStore creates a memory strike store.
func NewMemoryStore(opt MemoryOptions) *MemoryStore {
	limit := opt.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &MemoryStore{
		records: make(map[string]*memoryRecord),
		limit:   limit,
		window:  opt.Window,
		now:     time.Now,
	}
	if s.window > 0 {
		go s.janitor()
	}
	return s
}

// Increment records one strike. When the post-increment count reaches the
// limit the record is removed and banned is true.
func (s *MemoryStore) Increment(_ context.Context, actor string) (int, bool, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[actor]
	if ok && s.expired(rec, now) {
		delete(s.records, actor)
		ok = false
	}
	if !ok {
		rec = &memoryRecord{firstAt: now}
		s.records[actor] = rec
	}
	rec.count++
	if rec.count >= s.limit {
		delete(s.records, actor)
		return rec.count, true, nil
	}
	return rec.count, false, nil
}

// Reset removes an actor's record.
func (s *MemoryStore) Reset(_ context.Context, actor string) error {
	s.mu.Lock()
	delete(s.records, actor)
	s.mu.Unlock()
	return nil
}

// Count returns the current strike count without mutating state.
func (s *MemoryStore) Count(actor string) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[actor]
	if !ok || s.expired(rec, now) {
		return 0
	}
	return rec.count
}

func (s *MemoryStore) expired(rec *memoryRecord, now time.Time) bool {
	return s.window > 0 && now.Sub(rec.firstAt) > s.window
}

func (s *MemoryStore) janitor() {
	interval := s.window / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		now := s.now()
		s.mu.Lock()
		for actor, rec := range s.records {
			if s.expired(rec, now) {
				delete(s.records, actor)
			}
		}
		s.mu.Unlock()
	}
}
