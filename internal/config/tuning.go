// Package config loads the JSON-backed tuning defaults for the mipmap
// engine, the MQTT live-ingest core, and the geo-spatial merger. No other
// package in this module reads a TuningConfig; those packages use their
// own constants and parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for tuning parameters. Every
// field is a pointer so a partial JSON document only overrides what it
// names; the Get* accessors supply the production default for anything
// left nil.
type TuningConfig struct {
	// Mipmap params
	MipmapMinElements *int `json:"mipmap_min_elements,omitempty"`

	// MQTT live-ingest params
	BrokerProbeDebounce *string `json:"broker_probe_debounce,omitempty"` // duration string like "500ms"
	BrokerProbeTimeout  *string `json:"broker_probe_timeout,omitempty"`  // duration string like "3s"
	TopicDiscoveryWindow *string `json:"topic_discovery_window,omitempty"`
	LiveBufferCapacity  *int    `json:"live_buffer_capacity,omitempty"`

	// Geo-spatial merge params
	MergeToleranceNanos *int64 `json:"merge_tolerance_nanos,omitempty"`

	// Palette: hex colors ("#rrggbb"), one per ExpectedPlotRange bucket in
	// order [Percentage, Hundreds, Thousands].
	Palette []string `json:"palette,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with every field nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and be under the max file size; fields omitted
// from the JSON retain their nil zero value, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching from the current directory up to the
// repository root. Panics if the file cannot be found; intended for test
// setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set fields parse and fall within sane ranges.
func (c *TuningConfig) Validate() error {
	if c.MipmapMinElements != nil && *c.MipmapMinElements < 1 {
		return fmt.Errorf("mipmap_min_elements must be >= 1, got %d", *c.MipmapMinElements)
	}
	for _, s := range []*string{c.BrokerProbeDebounce, c.BrokerProbeTimeout, c.TopicDiscoveryWindow} {
		if s != nil && *s != "" {
			if _, err := time.ParseDuration(*s); err != nil {
				return fmt.Errorf("invalid duration %q: %w", *s, err)
			}
		}
	}
	if c.LiveBufferCapacity != nil && *c.LiveBufferCapacity < 1 {
		return fmt.Errorf("live_buffer_capacity must be >= 1, got %d", *c.LiveBufferCapacity)
	}
	if c.MergeToleranceNanos != nil && *c.MergeToleranceNanos < 0 {
		return fmt.Errorf("merge_tolerance_nanos must be >= 0, got %d", *c.MergeToleranceNanos)
	}
	if len(c.Palette) != 0 && len(c.Palette) != 3 {
		return fmt.Errorf("palette must name exactly 3 colors (Percentage, Hundreds, Thousands), got %d", len(c.Palette))
	}
	return nil
}

// GetMipmapMinElements returns mipmap_min_elements or the production
// default (mipmap.DefaultMinElements, 512, duplicated here to avoid an
// import cycle with internal/mipmap).
func (c *TuningConfig) GetMipmapMinElements() int {
	if c.MipmapMinElements == nil {
		return 512
	}
	return *c.MipmapMinElements
}

func parseDurationOrDefault(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}

// GetBrokerProbeDebounce returns broker_probe_debounce or the default.
func (c *TuningConfig) GetBrokerProbeDebounce() time.Duration {
	return parseDurationOrDefault(c.BrokerProbeDebounce, 500*time.Millisecond)
}

// GetBrokerProbeTimeout returns broker_probe_timeout or the default.
func (c *TuningConfig) GetBrokerProbeTimeout() time.Duration {
	return parseDurationOrDefault(c.BrokerProbeTimeout, 3*time.Second)
}

// GetTopicDiscoveryWindow returns topic_discovery_window or the default.
func (c *TuningConfig) GetTopicDiscoveryWindow() time.Duration {
	return parseDurationOrDefault(c.TopicDiscoveryWindow, 5*time.Second)
}

// GetLiveBufferCapacity returns live_buffer_capacity or the default.
func (c *TuningConfig) GetLiveBufferCapacity() int {
	if c.LiveBufferCapacity == nil {
		return 10000
	}
	return *c.LiveBufferCapacity
}

// GetMergeToleranceNanos returns merge_tolerance_nanos or the default
// (5 seconds, matching scenario S3's 5e9ns tolerance).
func (c *TuningConfig) GetMergeToleranceNanos() int64 {
	if c.MergeToleranceNanos == nil {
		return 5_000_000_000
	}
	return *c.MergeToleranceNanos
}

// GetPalette returns the 3-entry hex color palette or the default.
func (c *TuningConfig) GetPalette() []string {
	if len(c.Palette) == 3 {
		return c.Palette
	}
	return []string{"#4C72B0", "#DD8452", "#55A868"}
}
