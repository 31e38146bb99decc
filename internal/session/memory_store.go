package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values  map[string]string
	touched time.Time
}

// MemoryStore keeps sessions in process memory with an idle expiry.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memoryEntry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store whose sessions expire after ttl of inactivity.
// A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.liveLocked(sid)
	if entry == nil {
		return "", false, nil
	}
	entry.touched = s.now()
	value, ok := entry.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.liveLocked(sid)
	if entry == nil {
		entry = &memoryEntry{values: make(map[string]string)}
		s.sessions[sid] = entry
	}
	entry.values[key] = value
	entry.touched = s.now()
	s.sweepLocked()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sid string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(keys) == 0 {
		delete(s.sessions, sid)
		return nil
	}
	if entry, ok := s.sessions[sid]; ok {
		for _, key := range keys {
			delete(entry.values, key)
		}
	}
	return nil
}

func (s *MemoryStore) liveLocked(sid string) *memoryEntry {
	entry, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	if s.expiredLocked(entry) {
		delete(s.sessions, sid)
		return nil
	}
	return entry
}

func (s *MemoryStore) expiredLocked(entry *memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(entry.touched) > s.ttl
}

func (s *MemoryStore) sweepLocked() {
	for sid, entry := range s.sessions {
		if s.expiredLocked(entry) {
			delete(s.sessions, sid)
		}
	}
}
