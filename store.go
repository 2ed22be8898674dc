// store.go: concurrent TTL-aware key-value store with uniform sampling
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package bader

import (
	"sync"
	"sync/atomic"
	"time"
)

// entry is a stored value with its optional expiry and the slot it occupies
// in the dense key slice. expireAt == 0 means the entry never expires.
// value and expireAt change only together, under the store lock, and the
// byte slices themselves are never written in place; readers always observe
// a consistent (value, expiry) pair.
type entry struct {
	value    []byte
	expireAt int64 // nanoseconds, 0 = no expiration
	slot     int   // index into kvStore.keys
}

// kvStore implements Store with a single mutex guarding a map plus a dense
// slice of keys. The slice is what makes Sample uniform and O(1): every key
// occupies exactly one slot, deletion swap-removes the last key into the
// vacated slot, and a random index into the slice is a uniform draw over
// the live keyset.
//
// Critical sections are short and never block on IO, so a plain mutex holds
// up fine under the connection-per-goroutine load the RESP server produces.
type kvStore struct {
	// Configuration (immutable after creation)
	timeProvider     TimeProvider
	metricsCollector MetricsCollector

	mu      sync.Mutex
	entries map[string]*entry
	keys    []string

	// xorshift64 state for sampling; only touched under mu
	rngState uint64

	// Atomic statistics counters
	hits        int64
	misses      int64
	sets        int64
	deletes     int64
	expirations int64
	evictions   int64
	size        int64
}

// NewStore creates a new empty store. The store only depends on the
// injectable collaborators, which Validate always normalizes; evictor
// parameter errors are surfaced by NewEvictor instead.
func NewStore(config Config) Store {
	_ = config.Validate()

	seed := config.TimeProvider.Now()
	if seed == 0 {
		seed = 1 // xorshift64 must not be seeded with zero
	}

	return &kvStore{
		timeProvider:     config.TimeProvider,
		metricsCollector: config.MetricsCollector,
		entries:          make(map[string]*entry),
		rngState:         uint64(seed),
	}
}

// fastRand generates a pseudo-random uint64 using the xorshift64 algorithm.
// Caller must hold s.mu.
func (s *kvStore) fastRand() uint64 {
	x := s.rngState
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.rngState = x
	return x
}

// Set inserts or atomically replaces an entry. Value and expiry change
// together inside one critical section; no reader can observe the old value
// with the new expiry or vice versa.
func (s *kvStore) Set(key string, value []byte, ttl time.Duration) bool {
	var now int64
	if ttl > 0 || s.metricsCollector != nil {
		now = s.timeProvider.Now()
	}

	var expireAt int64
	if ttl > 0 {
		expireAt = now + int64(ttl)
	}

	s.mu.Lock()
	if e, exists := s.entries[key]; exists {
		e.value = value
		e.expireAt = expireAt
	} else {
		s.entries[key] = &entry{
			value:    value,
			expireAt: expireAt,
			slot:     len(s.keys),
		}
		s.keys = append(s.keys, key)
		atomic.AddInt64(&s.size, 1)
	}
	s.mu.Unlock()

	atomic.AddInt64(&s.sets, 1)
	if s.metricsCollector != nil {
		s.metricsCollector.RecordSet(s.timeProvider.Now() - now)
	}
	return true
}

// Get retrieves a value. An expired entry behaves as absent and is reaped
// in the same critical section, which keeps the map small between evictor
// ticks.
func (s *kvStore) Get(key string) ([]byte, bool) {
	now := s.timeProvider.Now()

	s.mu.Lock()
	e, exists := s.entries[key]
	if !exists {
		s.mu.Unlock()
		atomic.AddInt64(&s.misses, 1)
		if s.metricsCollector != nil {
			s.metricsCollector.RecordGet(s.timeProvider.Now()-now, false)
		}
		return nil, false
	}

	if e.expireAt > 0 && e.expireAt <= now {
		s.removeLocked(key, e)
		s.mu.Unlock()
		atomic.AddInt64(&s.expirations, 1)
		atomic.AddInt64(&s.misses, 1)
		if s.metricsCollector != nil {
			s.metricsCollector.RecordExpiration()
			s.metricsCollector.RecordGet(s.timeProvider.Now()-now, false)
		}
		return nil, false
	}

	value := e.value
	s.mu.Unlock()

	atomic.AddInt64(&s.hits, 1)
	if s.metricsCollector != nil {
		s.metricsCollector.RecordGet(s.timeProvider.Now()-now, true)
	}
	return value, true
}

// Delete removes an entry. Returns true if it was present.
func (s *kvStore) Delete(key string) bool {
	var now int64
	if s.metricsCollector != nil {
		now = s.timeProvider.Now()
	}

	s.mu.Lock()
	e, exists := s.entries[key]
	if exists {
		s.removeLocked(key, e)
	}
	s.mu.Unlock()

	if !exists {
		return false
	}

	atomic.AddInt64(&s.deletes, 1)
	if s.metricsCollector != nil {
		s.metricsCollector.RecordDelete(s.timeProvider.Now() - now)
	}
	return true
}

// Has reports whether a key exists and has not expired. Expired entries are
// reaped exactly as in Get.
func (s *kvStore) Has(key string) bool {
	now := s.timeProvider.Now()

	s.mu.Lock()
	e, exists := s.entries[key]
	if !exists {
		s.mu.Unlock()
		atomic.AddInt64(&s.misses, 1)
		return false
	}

	if e.expireAt > 0 && e.expireAt <= now {
		s.removeLocked(key, e)
		s.mu.Unlock()
		atomic.AddInt64(&s.expirations, 1)
		atomic.AddInt64(&s.misses, 1)
		if s.metricsCollector != nil {
			s.metricsCollector.RecordExpiration()
		}
		return false
	}

	s.mu.Unlock()
	atomic.AddInt64(&s.hits, 1)
	return true
}

// Sample draws one entry uniformly at random from the stored keyset.
// Logically expired entries are eligible draws; the evictor needs to see
// them to purge them.
func (s *kvStore) Sample() (string, []byte, int64, bool) {
	s.mu.Lock()
	n := len(s.keys)
	if n == 0 {
		s.mu.Unlock()
		return "", nil, 0, false
	}

	key := s.keys[s.fastRand()%uint64(n)]
	e := s.entries[key]
	value, expireAt := e.value, e.expireAt
	s.mu.Unlock()

	return key, value, expireAt, true
}

// CompareAndDelete removes an entry only if its expiry still equals
// expireAt. Between the evictor sampling a key and deleting it, a client
// SET may have replaced the entry with a fresh value or extended its TTL;
// the changed expiry makes this a no-op and the SET wins.
func (s *kvStore) CompareAndDelete(key string, expireAt int64) bool {
	s.mu.Lock()
	e, exists := s.entries[key]
	if !exists || e.expireAt != expireAt {
		s.mu.Unlock()
		return false
	}
	s.removeLocked(key, e)
	s.mu.Unlock()

	atomic.AddInt64(&s.evictions, 1)
	if s.metricsCollector != nil {
		s.metricsCollector.RecordEviction()
	}
	return true
}

// Len returns the current number of entries, including logically expired
// entries not yet reaped.
func (s *kvStore) Len() int {
	return int(atomic.LoadInt64(&s.size))
}

// Clear removes all entries.
func (s *kvStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.keys = nil
	s.mu.Unlock()

	atomic.StoreInt64(&s.size, 0)
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.sets, 0)
	atomic.StoreInt64(&s.deletes, 0)
	atomic.StoreInt64(&s.expirations, 0)
	atomic.StoreInt64(&s.evictions, 0)
}

// Stats returns store statistics.
func (s *kvStore) Stats() StoreStats {
	return StoreStats{
		Hits:        uint64(atomic.LoadInt64(&s.hits)),        // #nosec G115 - stats counters are always positive
		Misses:      uint64(atomic.LoadInt64(&s.misses)),      // #nosec G115 - stats counters are always positive
		Sets:        uint64(atomic.LoadInt64(&s.sets)),        // #nosec G115 - stats counters are always positive
		Deletes:     uint64(atomic.LoadInt64(&s.deletes)),     // #nosec G115 - stats counters are always positive
		Expirations: uint64(atomic.LoadInt64(&s.expirations)), // #nosec G115 - stats counters are always positive
		Evictions:   uint64(atomic.LoadInt64(&s.evictions)),   // #nosec G115 - stats counters are always positive
		Size:        int(atomic.LoadInt64(&s.size)),
	}
}

// Close gracefully shuts down the store.
func (s *kvStore) Close() error {
	s.Clear()
	return nil
}

// removeLocked deletes an entry and keeps the key slice dense by moving the
// last key into the vacated slot. Caller must hold s.mu and must have
// looked e up under the same lock.
func (s *kvStore) removeLocked(key string, e *entry) {
	last := len(s.keys) - 1
	if e.slot != last {
		moved := s.keys[last]
		s.keys[e.slot] = moved
		s.entries[moved].slot = e.slot
	}
	s.keys = s.keys[:last]
	delete(s.entries, key)
	atomic.AddInt64(&s.size, -1)
}
