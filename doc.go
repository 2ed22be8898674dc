// doc.go: package documentation for Bader
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package bader implements the core of the Bader cache server: a
// concurrent TTL-aware key-value store and the probabilistic background
// evictor that reaps expired entries.
//
// # Architecture
//
//   - Store: a mutex-guarded map paired with a dense key slice, giving
//     O(1) point operations and uniform random sampling over the live
//     keyset. Expired entries behave as absent on every read and are
//     reaped in the same critical section.
//   - Evictor: a periodic task that samples the store, deletes expired
//     entries with a conditional delete keyed on the sampled expiry, and
//     adaptively re-samples while the observed expired fraction exceeds a
//     threshold.
//   - TimeProvider: one clock shared by the read path and the evictor,
//     backed by go-timecache by default.
//
// The RESP wire protocol, per-connection dispatch and TCP bootstrap live
// in the resp subpackage; a Prometheus metrics collector lives in prom.
//
// # Quick Start
//
//	store := bader.NewStore(bader.Config{})
//	evictor, err := bader.NewEvictor(store, bader.Config{
//	    SampleSize: 20,
//	    Threshold:  0.25,
//	    Frequency:  100 * time.Millisecond,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	evictor.Start()
//	defer evictor.Stop()
//
//	store.Set("greeting", []byte("hello"), 0)
//	store.Set("session", []byte("payload"), 30*time.Second)
//
// # Expiry semantics
//
// A TTL is converted to an absolute expiry at Set time using the shared
// TimeProvider. An entry whose expiry has passed is indistinguishable from
// an absent one to Get and Has; Len and Sample still count it until it is
// physically removed, which happens on the read path or when an evictor
// round draws it, whichever comes first. SET always
// replaces value and expiry together, so no observer can see a fresh value
// with a stale TTL or vice versa.
//
// # Hot reload
//
// HotConfig watches a configuration file through Argus and retunes the
// sample size, threshold and frequency of a live evictor without restarts.
package bader
