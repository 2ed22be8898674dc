// Package bader provides a networked in-memory key-value cache speaking
// the RESP wire protocol.
//
// Bader pairs a concurrent TTL-aware store with a probabilistic background
// evictor modeled on Redis's active-expire cycle: a periodic task samples
// the keyspace, deletes what has expired, and keeps purging while the
// observed expired fraction stays above a threshold.
//
// Example usage:
//
//	store := bader.NewStore(bader.Config{})
//	evictor, err := bader.NewEvictor(store, bader.Config{
//		SampleSize: 20,
//		Threshold:  0.25,
//		Frequency:  100 * time.Millisecond,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	evictor.Start()
//
//	store.Set("session:1", []byte("payload"), 30*time.Second)
//	value, found := store.Get("session:1")
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bader

import "time"

const (
	// Version of the Bader cache server
	Version = "v0.1.0-dev"

	// DefaultAddr is the default listen address for the RESP server
	DefaultAddr = ":6379"

	// DefaultSampleSize is the default number of keys the evictor draws per round
	DefaultSampleSize = 20

	// DefaultThreshold is the default expired fraction above which the evictor
	// re-samples within the same tick
	DefaultThreshold = 0.25

	// DefaultFrequency is the default period of the evictor's outer loop
	DefaultFrequency = 100 * time.Millisecond
)
