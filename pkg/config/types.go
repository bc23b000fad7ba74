package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent deepresearch configuration stored as
// config.toml in the .deepresearch/ directory. It is the explicit,
// injected replacement for the ambient shared state (API targets, model
// selection) the original interface kept globally: commands load it once
// and pass it down.
type Config struct {
	Version  int            `toml:"version"`
	Client   ClientConfig   `toml:"client"`
	Research ResearchConfig `toml:"research"`
	Stream   StreamConfig   `toml:"stream"`
	History  HistoryConfig  `toml:"history"`
	Serve    ServeConfig    `toml:"serve"`
}

// ClientConfig holds settings for reaching the research backend.
// APITarget is a full URL (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// ResearchConfig holds the default model selection for research runs.
type ResearchConfig struct {
	// Model is the default model for single-model runs.
	Model string `toml:"model,omitempty"`

	// Models is the default model set for comparison runs.
	Models []string `toml:"models,omitempty"`

	// TimeoutSeconds bounds each comparison session. Zero disables the
	// internal timeout.
	TimeoutSeconds uint `toml:"timeout_seconds,omitempty"`
}

// StreamConfig tunes the event reducer's bounded buffers.
type StreamConfig struct {
	LogCapacity    uint `toml:"log_capacity,omitempty"`
	TranscriptTail uint `toml:"transcript_tail,omitempty"`
}

// HistoryConfig holds session archive settings. An empty SQLitePath
// resolves to history.db inside the .deepresearch/ directory.
type HistoryConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// ServeConfig holds settings for the local replay server.
type ServeConfig struct {
	Listen  string `toml:"listen,omitempty"`
	Fixture string `toml:"fixture,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"research.model": {
		get: func(c *Config) string { return c.Research.Model },
		set: func(c *Config, v string) error { c.Research.Model = v; return nil },
	},
	"research.models": {
		get: func(c *Config) string { return strings.Join(c.Research.Models, ",") },
		set: func(c *Config, v string) error {
			c.Research.Models = splitModels(v)
			return nil
		},
	},
	"research.timeout_seconds": {
		get: func(c *Config) string {
			if c.Research.TimeoutSeconds == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Research.TimeoutSeconds), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for research.timeout_seconds: %w", err)
			}
			c.Research.TimeoutSeconds = uint(n)
			return nil
		},
	},
	"stream.log_capacity": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Stream.LogCapacity), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for stream.log_capacity: %w", err)
			}
			c.Stream.LogCapacity = uint(n)
			return nil
		},
	},
	"stream.transcript_tail": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Stream.TranscriptTail), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for stream.transcript_tail: %w", err)
			}
			c.Stream.TranscriptTail = uint(n)
			return nil
		},
	},
	"history.sqlite_path": {
		get: func(c *Config) string { return c.History.SQLitePath },
		set: func(c *Config, v string) error { c.History.SQLitePath = v; return nil },
	},
	"serve.listen": {
		get: func(c *Config) string { return c.Serve.Listen },
		set: func(c *Config, v string) error { c.Serve.Listen = v; return nil },
	},
	"serve.fixture": {
		get: func(c *Config) string { return c.Serve.Fixture },
		set: func(c *Config, v string) error { c.Serve.Fixture = v; return nil },
	},
}

// splitModels parses a comma-separated model list, dropping empty entries.
func splitModels(v string) []string {
	parts := strings.Split(v, ",")
	models := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			models = append(models, p)
		}
	}
	return models
}
