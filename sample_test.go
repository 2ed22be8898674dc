// sample_test.go: uniformity and conditional-delete tests for the store
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bader

import (
	"strconv"
	"testing"
	"time"
)

func TestStore_Sample_Empty(t *testing.T) {
	store := NewStore(Config{})

	if _, _, _, ok := store.Sample(); ok {
		t.Error("expected no sample from an empty store")
	}
}

func TestStore_Sample_SingleKey(t *testing.T) {
	store := NewStore(Config{})
	store.Set("only", []byte("v"), 0)

	key, value, expireAt, ok := store.Sample()
	if !ok {
		t.Fatal("expected a sample")
	}
	if key != "only" || string(value) != "v" || expireAt != 0 {
		t.Errorf("unexpected sample: %q %q %d", key, value, expireAt)
	}
}

func TestStore_Sample_IncludesExpired(t *testing.T) {
	mockTime := &MockTimeProvider{currentTime: 1000000000}
	store := NewStore(Config{TimeProvider: mockTime})

	store.Set("dead", []byte("v"), 10*time.Millisecond)
	mockTime.Advance(20 * time.Millisecond)

	// Sampling must still see the logically expired entry; the evictor
	// depends on drawing dead keys in order to purge them.
	key, _, expireAt, ok := store.Sample()
	if !ok {
		t.Fatal("expected to sample the expired entry")
	}
	if key != "dead" {
		t.Errorf("expected 'dead', got %q", key)
	}
	if expireAt == 0 || expireAt > mockTime.Now() {
		t.Errorf("expected an elapsed expiry, got %d (now %d)", expireAt, mockTime.Now())
	}
}

// TestStore_Sample_Uniformity draws many samples from a fixed keyset and
// checks the empirical distribution with a chi-square statistic. With
// n = 50 keys and M = 100000 draws the statistic has 49 degrees of
// freedom; 85 lies at roughly its 99.9th percentile, so a correct sampler
// fails this about once in a thousand runs while a skewed one (e.g. biased
// by deletion order) blows past it.
func TestStore_Sample_Uniformity(t *testing.T) {
	const (
		numKeys   = 50
		numDraws  = 100000
		chiSquare = 85.0
	)

	store := NewStore(Config{})
	for i := 0; i < numKeys; i++ {
		store.Set("key"+strconv.Itoa(i), []byte("v"), 0)
	}

	// Churn the keyset so the dense slice has seen swap-removes; sampling
	// must stay uniform over whatever layout deletion produced.
	for i := 0; i < numKeys; i += 7 {
		store.Delete("key" + strconv.Itoa(i))
		store.Set("key"+strconv.Itoa(i), []byte("v"), 0)
	}

	counts := make(map[string]int, numKeys)
	for i := 0; i < numDraws; i++ {
		key, _, _, ok := store.Sample()
		if !ok {
			t.Fatal("expected a sample from a populated store")
		}
		counts[key]++
	}

	if len(counts) != numKeys {
		t.Fatalf("expected all %d keys sampled, got %d", numKeys, len(counts))
	}

	expected := float64(numDraws) / float64(numKeys)
	var stat float64
	for _, c := range counts {
		diff := float64(c) - expected
		stat += diff * diff / expected
	}

	if stat > chiSquare {
		t.Errorf("sampling not uniform: chi-square %.2f exceeds %.2f", stat, chiSquare)
	}
}

func TestStore_CompareAndDelete_Matches(t *testing.T) {
	mockTime := &MockTimeProvider{currentTime: 1000000000}
	store := NewStore(Config{TimeProvider: mockTime})

	store.Set("key", []byte("v"), 10*time.Millisecond)

	_, _, expireAt, ok := store.Sample()
	if !ok {
		t.Fatal("expected a sample")
	}

	if !store.CompareAndDelete("key", expireAt) {
		t.Error("expected conditional delete with matching expiry to succeed")
	}
	if store.Len() != 0 {
		t.Errorf("expected size 0, got %d", store.Len())
	}

	stats := store.Stats()
	if stats.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestStore_CompareAndDelete_SetWins(t *testing.T) {
	mockTime := &MockTimeProvider{currentTime: 1000000000}
	store := NewStore(Config{TimeProvider: mockTime})

	store.Set("key", []byte("v1"), 10*time.Millisecond)

	_, _, sampledExpiry, ok := store.Sample()
	if !ok {
		t.Fatal("expected a sample")
	}

	// A SET lands between sample and delete: the entry's expiry changes,
	// so the conditional delete must back off and the fresh entry survives.
	store.Set("key", []byte("v2"), 0)

	if store.CompareAndDelete("key", sampledExpiry) {
		t.Error("expected conditional delete to lose against the newer SET")
	}

	value, found := store.Get("key")
	if !found || string(value) != "v2" {
		t.Errorf("expected fresh entry to survive, got %q (found=%v)", value, found)
	}
}

func TestStore_CompareAndDelete_MissingKey(t *testing.T) {
	store := NewStore(Config{})

	if store.CompareAndDelete("ghost", 123) {
		t.Error("expected conditional delete of a missing key to fail")
	}
}
