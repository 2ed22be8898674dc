// hot-reload.go: dynamic evictor tuning with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package bader

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig provides dynamic evictor tuning using Argus. It watches a
// configuration file and applies parameter changes to the running evictor
// when changes are detected.
type HotConfig struct {
	evictor *Evictor
	watcher *argus.Watcher
	logger  Logger
	mu      sync.RWMutex
	config  Config

	// OnReload is called after configuration is successfully reloaded.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig Config)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldConfig, newConfig Config)

	// Logger for hot reload operations.
	// If nil, NoOpLogger is used.
	Logger Logger
}

// NewHotConfig creates a hot-reloadable configuration for a running
// evictor. It starts watching the configuration file on Start.
//
// Example configuration file (YAML):
//
//	evictor:
//	  sample_size: 20
//	  threshold: 0.25
//	  frequency: "100ms"
//
// Supported configuration keys:
//   - evictor.sample_size (int): keys drawn per purge round
//   - evictor.threshold (float): expired fraction that keeps a tick purging
//   - evictor.frequency (duration string): outer-loop period (e.g. "100ms")
//
// All three parameters apply to the live evictor without disruption;
// frequency takes effect at the next tick boundary.
func NewHotConfig(evictor *Evictor, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &HotConfig{
		evictor:  evictor,
		logger:   opts.Logger,
		OnReload: opts.OnReload,
		config:   DefaultConfig(),
	}

	// Create Argus config with specified PollInterval for fast file change detection
	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	// Check if already running to avoid ARGUS_WATCHER_BUSY error
	if hc.watcher.IsRunning() {
		return nil // Already started
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the most recently loaded configuration (thread-safe).
func (hc *HotConfig) GetConfig() Config {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when configuration changes.
func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := hc.parseConfig(configData)
	hc.config = newConfig
	hc.mu.Unlock()

	hc.applyChanges(oldConfig, newConfig)

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

// parseFloatInRange extracts a float64 within the specified range (min, max).
func parseFloatInRange(value interface{}, min, max float64) (float64, bool) {
	if v, ok := value.(float64); ok {
		if v > min && v < max {
			return v, true
		}
	}
	return 0, false
}

// parseConfig extracts evictor configuration from Argus config data.
func (hc *HotConfig) parseConfig(data map[string]interface{}) Config {
	config := hc.config

	// Extract evictor section - Argus might nest it or provide it directly
	evictorSection, ok := data["evictor"].(map[string]interface{})
	if !ok {
		// Try if the whole data IS the evictor section
		if _, hasSampleSize := data["sample_size"]; hasSampleSize {
			evictorSection = data
		} else {
			return config
		}
	}

	if sampleSize, ok := parsePositiveInt(evictorSection["sample_size"]); ok {
		config.SampleSize = sampleSize
	}

	if threshold, ok := parseFloatInRange(evictorSection["threshold"], 0, 1); ok {
		config.Threshold = threshold
	}

	if frequency, ok := parseDuration(evictorSection["frequency"]); ok && frequency > 0 {
		config.Frequency = frequency
	}

	return config
}

// applyChanges applies configuration changes to the running evictor.
// All evictor parameters are runtime-tunable; the setters reject
// out-of-range values, so a bad file cannot wedge a live evictor.
func (hc *HotConfig) applyChanges(old, new Config) {
	if new.SampleSize != old.SampleSize {
		hc.evictor.SetSampleSize(new.SampleSize)
		hc.logger.Info("evictor sample size reloaded", "old", old.SampleSize, "new", new.SampleSize)
	}
	if new.Threshold != old.Threshold {
		hc.evictor.SetThreshold(new.Threshold)
		hc.logger.Info("evictor threshold reloaded", "old", old.Threshold, "new", new.Threshold)
	}
	if new.Frequency != old.Frequency {
		hc.evictor.SetFrequency(new.Frequency)
		hc.logger.Info("evictor frequency reloaded", "old", old.Frequency.String(), "new", new.Frequency.String())
	}
}
