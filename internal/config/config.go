package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Timer backends accepted by TimerBackend.
const (
	TimerBackendWorker   = "worker"
	TimerBackendInterval = "interval"
)

// Config holds application configuration.
type Config struct {
	// HistoryLimit caps how many workout results are kept (newest first).
	HistoryLimit int `json:"history_limit" yaml:"history_limit"`

	// TimerBackend selects the countdown implementation: "worker" runs every
	// countdown on one background goroutine, "interval" gives each countdown its own ticker.
	TimerBackend string `json:"timer_backend,omitempty" yaml:"timer_backend,omitempty"`

	// TickIntervalMillis is how often countdowns recompute remaining time.
	TickIntervalMillis int `json:"tick_interval_ms,omitempty" yaml:"tick_interval_ms,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.reps/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" yaml:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names (exercise, session, workout,
	// history, data) whose tools are all excluded from registration.
	DisabledTypes []string `json:"disabled_types,omitempty" yaml:"disabled_types,omitempty"`

	// UIBind and UIPort control where `reps ui` listens.
	UIBind string `json:"ui_bind,omitempty" yaml:"ui_bind,omitempty"`
	UIPort int    `json:"ui_port,omitempty" yaml:"ui_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:       100,
		TimerBackend:       TimerBackendWorker,
		TickIntervalMillis: 200,
		LogLevel:           "info",
		UIBind:             "127.0.0.1",
		UIPort:             8765,
	}
}

// Load loads configuration from baseDir/config.yaml, falling back to
// baseDir/config.json, then applies REPS_* environment overrides.
// Returns default config if neither file exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.reps.
func Load(baseDir string) (*Config, error) {
	var (
		fileCfg *Config
		err     error
	)
	yamlPath := filepath.Join(baseDir, "config.yaml")
	if _, statErr := os.Stat(yamlPath); statErr == nil {
		fileCfg, err = loadFileRaw(yamlPath, yaml.Unmarshal)
	} else {
		fileCfg, err = loadFileRaw(filepath.Join(baseDir, "config.json"), json.Unmarshal)
	}
	if err != nil {
		return nil, err
	}

	cfg := Merge(DefaultConfig(), fileCfg)
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string, unmarshal func([]byte, any) error) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(configPath), err)
	}

	return cfg, nil
}

// applyEnvOverrides applies REPS_LOG_LEVEL, REPS_TIMER_BACKEND,
// REPS_HISTORY_LIMIT and REPS_UI_PORT. Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REPS_TIMER_BACKEND"); v != "" {
		cfg.TimerBackend = v
	}
	if v := os.Getenv("REPS_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("REPS_UI_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UIPort = n
		}
	}
}

func (c *Config) validate() error {
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	switch c.TimerBackend {
	case TimerBackendWorker, TimerBackendInterval:
	default:
		return fmt.Errorf("timer_backend must be %q or %q, got %q", TimerBackendWorker, TimerBackendInterval, c.TimerBackend)
	}
	if c.TickIntervalMillis <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive, got %d", c.TickIntervalMillis)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.HistoryLimit = firstInt(overlay.HistoryLimit, base.HistoryLimit)
	result.TickIntervalMillis = firstInt(overlay.TickIntervalMillis, base.TickIntervalMillis)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.UIPort = firstInt(overlay.UIPort, base.UIPort)
	result.TimerBackend = firstString(overlay.TimerBackend, base.TimerBackend)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)
	result.UIBind = firstString(overlay.UIBind, base.UIBind)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
