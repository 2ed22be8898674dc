// evictor.go: probabilistic background expiration
//
// The evictor runs the Redis-style active-expire cycle: every Frequency it
// draws up to SampleSize keys from the store (with replacement), deletes
// the ones whose expiry has passed, and keeps drawing fresh rounds while
// the expired fraction of a round exceeds Threshold. A cold keyspace costs
// one round per tick; a keyspace full of due entries is purged until the
// fraction drops below the threshold.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package bader

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Evictor periodically purges expired entries from a Store.
// SampleSize and Threshold are tunable on a running evictor; Frequency
// changes take effect at the next tick boundary.
type Evictor struct {
	store        Store
	timeProvider TimeProvider
	logger       Logger

	// Runtime-tunable parameters (see hot-reload.go)
	sampleSize int64  // atomic
	threshold  uint64 // atomic, math.Float64bits
	frequency  int64  // atomic, nanoseconds

	started   int32 // atomic
	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewEvictor creates an evictor for store. The returned evictor is idle
// until Start is called.
func NewEvictor(store Store, config Config) (*Evictor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Evictor{
		store:        store,
		timeProvider: config.TimeProvider,
		logger:       config.Logger,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	atomic.StoreInt64(&e.sampleSize, int64(config.SampleSize))
	atomic.StoreUint64(&e.threshold, math.Float64bits(config.Threshold))
	atomic.StoreInt64(&e.frequency, int64(config.Frequency))
	return e, nil
}

// Start launches the background purge loop. Subsequent calls are no-ops.
func (e *Evictor) Start() {
	e.startOnce.Do(func() {
		atomic.StoreInt32(&e.started, 1)
		go e.run()
	})
}

// Stop terminates the purge loop and waits for it to exit.
// Safe to call more than once.
func (e *Evictor) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
	if atomic.LoadInt32(&e.started) == 1 {
		<-e.done
	}
}

// SampleSize returns the current per-round sample size.
func (e *Evictor) SampleSize() int {
	return int(atomic.LoadInt64(&e.sampleSize))
}

// SetSampleSize adjusts the per-round sample size on a running evictor.
// Values below 1 are ignored.
func (e *Evictor) SetSampleSize(n int) {
	if n < 1 {
		return
	}
	atomic.StoreInt64(&e.sampleSize, int64(n))
}

// Threshold returns the current expired-fraction threshold.
func (e *Evictor) Threshold() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.threshold))
}

// SetThreshold adjusts the expired-fraction threshold on a running evictor.
// Values outside (0, 1) are ignored.
func (e *Evictor) SetThreshold(t float64) {
	if t <= 0 || t >= 1 {
		return
	}
	atomic.StoreUint64(&e.threshold, math.Float64bits(t))
}

// Frequency returns the current outer-loop period.
func (e *Evictor) Frequency() time.Duration {
	return time.Duration(atomic.LoadInt64(&e.frequency))
}

// SetFrequency adjusts the outer-loop period. The running ticker is reset
// at the next tick. Non-positive durations are ignored.
func (e *Evictor) SetFrequency(d time.Duration) {
	if d <= 0 {
		return
	}
	atomic.StoreInt64(&e.frequency, int64(d))
}

func (e *Evictor) run() {
	defer close(e.done)

	period := e.Frequency()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.purge()
			if current := e.Frequency(); current != period {
				period = current
				ticker.Reset(period)
			}
		case <-e.stopChan:
			return
		}
	}
}

// purge executes the inner rounds of one tick: sample, delete expired,
// re-sample while the expired fraction exceeds the threshold and the store
// still has entries.
func (e *Evictor) purge() {
	var totalDrawn, totalDeleted int

	for {
		drawn, deleted := e.purgeRound()
		totalDrawn += drawn
		totalDeleted += deleted

		if drawn == 0 {
			break
		}
		if float64(deleted)/float64(drawn) <= e.Threshold() {
			break
		}
		if e.store.Len() == 0 {
			break
		}
	}

	if totalDeleted > 0 {
		e.logger.Debug("evictor purge", "drawn", totalDrawn, "deleted", totalDeleted)
	}
}

// purgeRound draws up to SampleSize keys and conditionally deletes the
// expired ones. The delete is keyed on the sampled expiry so a SET racing
// in between keeps its fresh entry (see Store.CompareAndDelete).
func (e *Evictor) purgeRound() (drawn, deleted int) {
	samples := e.SampleSize()

	for i := 0; i < samples; i++ {
		key, _, expireAt, ok := e.store.Sample()
		if !ok {
			break
		}
		drawn++

		if expireAt == 0 {
			continue
		}
		if expireAt > e.timeProvider.Now() {
			continue
		}
		if e.store.CompareAndDelete(key, expireAt) {
			deleted++
		}
	}
	return drawn, deleted
}
