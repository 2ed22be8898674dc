// config.go: configuration for Bader
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package bader

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Config holds configuration parameters for the store, the evictor and the
// RESP server.
type Config struct {
	// Addr is the listen address for the RESP server (host:port).
	// Default: DefaultAddr.
	Addr string

	// SampleSize is the number of keys the evictor draws per inner round.
	// Must be >= 1. Default: DefaultSampleSize.
	SampleSize int

	// Threshold is the expired fraction that keeps the evictor purging
	// within the same tick. Must be in (0, 1). Default: DefaultThreshold.
	Threshold float64

	// Frequency is the period of the evictor's outer loop.
	// Must be > 0. Default: DefaultFrequency.
	Frequency time.Duration

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used. Default: NoOpLogger.
	Logger Logger

	// TimeProvider provides current time for TTL calculations.
	// If nil, a default implementation is used. Default: cached system time.
	TimeProvider TimeProvider

	// MetricsCollector is used for collecting operation metrics.
	// If nil, NoOpMetricsCollector is used (zero overhead).
	// Use this to integrate with Prometheus or other monitoring systems.
	MetricsCollector MetricsCollector
}

// Validate checks configuration parameters and applies defaults.
//
// Zero values are normalized to defaults; values that are set but outside
// their valid range are rejected with a coded error. This method is called
// automatically by NewStore, NewEvictor and the RESP server, so you
// typically don't need to call it manually.
//
// Default values applied:
//   - Addr: DefaultAddr (":6379") if empty
//   - SampleSize: DefaultSampleSize (20) if 0
//   - Threshold: DefaultThreshold (0.25) if 0
//   - Frequency: DefaultFrequency (100ms) if 0
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: cached system time if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
func (c *Config) Validate() error {
	// Collaborators are normalized before parameter checks so a rejected
	// parameter still leaves the config usable for construction.
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	if c.Addr == "" {
		c.Addr = DefaultAddr
	}

	if c.SampleSize == 0 {
		c.SampleSize = DefaultSampleSize
	} else if c.SampleSize < 0 {
		return NewErrInvalidSampleSize(c.SampleSize)
	}

	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	} else if c.Threshold < 0 || c.Threshold >= 1 {
		return NewErrInvalidThreshold(c.Threshold)
	}

	if c.Frequency == 0 {
		c.Frequency = DefaultFrequency
	} else if c.Frequency < 0 {
		return NewErrInvalidFrequency(c.Frequency)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:             DefaultAddr,
		SampleSize:       DefaultSampleSize,
		Threshold:        DefaultThreshold,
		Frequency:        DefaultFrequency,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
// This provides much faster time access compared to time.Now() with zero
// allocations, at the cost of sub-millisecond staleness, which is well
// within the server's expiry guarantees.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
