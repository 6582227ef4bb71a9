package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/rendis/vetassist/internal/sessions"
	"github.com/rendis/vetassist/internal/wizard"
)

// Config holds all vetassist configuration.
// Priority: flags > env vars > settings.json > defaults.
type Config struct {
	DBPath           string   `json:"db_path"`
	LogLevel         string   `json:"log_level"`
	ProgressInterval duration `json:"progress_interval"`
	ProgressStep     int      `json:"progress_step"`
	RulesPath        string   `json:"rules_path"`
	SessionTTL       duration `json:"session_ttl"`
	SweepSchedule    string   `json:"sweep_schedule"`
	EngineRetryMax   int      `json:"engine_retry_max"`
	EngineRetryDelay duration `json:"engine_retry_delay"`
	BreakerThreshold int      `json:"breaker_threshold"`
	BreakerCooldown  duration `json:"breaker_cooldown"`
	BatchParallel    int      `json:"batch_parallel"`
	PanelAddr        string   `json:"panel_addr"` // empty disables the HTTP panel
}

// duration is a time.Duration that reads and writes as a Go duration string.
type duration time.Duration

func (d duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var ns int64
		if err := json.Unmarshal(b, &ns); err != nil {
			return fmt.Errorf("duration must be a string like \"300ms\": %s", b)
		}
		*d = duration(ns)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func defaultConfig() Config {
	return Config{
		DBPath:           filepath.Join(vetassistDir(), "vetassist.db"),
		LogLevel:         "info",
		ProgressInterval: duration(wizard.DefaultProgressInterval),
		ProgressStep:     wizard.DefaultProgressStep,
		SessionTTL:       duration(sessions.DefaultTTL),
		SweepSchedule:    sessions.DefaultSweepSchedule,
		EngineRetryMax:   2,
		EngineRetryDelay: duration(200 * time.Millisecond),
		BreakerThreshold: 5,
		BreakerCooldown:  duration(30 * time.Second),
		BatchParallel:    4,
	}
}

func vetassistDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vetassist"
	}
	return filepath.Join(home, ".vetassist")
}

func settingsPath() string {
	return filepath.Join(vetassistDir(), "settings.json")
}

// loadConfig layers settings.json and VETASSIST_* env vars over the defaults.
// A missing settings file is not an error.
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings.json.
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	// Layer 3: env vars override.
	var errs []error
	envString(getenv, "VETASSIST_DB_PATH", &cfg.DBPath)
	envString(getenv, "VETASSIST_LOG_LEVEL", &cfg.LogLevel)
	envString(getenv, "VETASSIST_RULES_PATH", &cfg.RulesPath)
	envString(getenv, "VETASSIST_SWEEP_SCHEDULE", &cfg.SweepSchedule)
	envString(getenv, "VETASSIST_PANEL_ADDR", &cfg.PanelAddr)
	errs = append(errs,
		envDuration(getenv, "VETASSIST_PROGRESS_INTERVAL", &cfg.ProgressInterval),
		envInt(getenv, "VETASSIST_PROGRESS_STEP", &cfg.ProgressStep),
		envDuration(getenv, "VETASSIST_SESSION_TTL", &cfg.SessionTTL),
		envInt(getenv, "VETASSIST_ENGINE_RETRY_MAX", &cfg.EngineRetryMax),
		envDuration(getenv, "VETASSIST_ENGINE_RETRY_DELAY", &cfg.EngineRetryDelay),
		envInt(getenv, "VETASSIST_BREAKER_THRESHOLD", &cfg.BreakerThreshold),
		envDuration(getenv, "VETASSIST_BREAKER_COOLDOWN", &cfg.BreakerCooldown),
		envInt(getenv, "VETASSIST_BATCH_PARALLEL", &cfg.BatchParallel),
	)
	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set global flags over cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if f := fs.Lookup("db"); f != nil && f.Changed {
		cfg.DBPath = f.Value.String()
	}
	if f := fs.Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := fs.Lookup("rules"); f != nil && f.Changed {
		cfg.RulesPath = f.Value.String()
	}
}

// validate rejects values no component can work with.
func (c Config) validate() error {
	var errs []error
	if c.ProgressStep < 1 || c.ProgressStep > 100 {
		errs = append(errs, fmt.Errorf("progress_step must be within 1..100, got %d", c.ProgressStep))
	}
	if c.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("progress_interval must not be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive"))
	}
	if c.EngineRetryMax < 0 {
		errs = append(errs, fmt.Errorf("engine_retry_max must not be negative"))
	}
	if c.BreakerThreshold < 1 {
		errs = append(errs, fmt.Errorf("breaker_threshold must be at least 1"))
	}
	if c.BatchParallel < 1 {
		errs = append(errs, fmt.Errorf("batch_parallel must be at least 1"))
	}
	if _, err := sessions.ParseSchedule(c.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("sweep_schedule: %w", err))
	}
	return errors.Join(errs...)
}

func envString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func envInt(getenv func(string) string, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(getenv func(string) string, key string, dst *duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = duration(d)
	return nil
}
