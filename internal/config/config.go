// Package config loads the daemon configuration.
//
// Sources are applied lowest precedence first: built-in defaults, an optional
// YAML file, then AUTOHEAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"autoheal/internal/heal"
	"autoheal/internal/logging"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxAttempts = 5
	DefaultInterval    = 5 * time.Second
	DefaultStateDB     = "/var/lib/autoheal/autoheal.db"
)

const (
	EnvMode             = "AUTOHEAL_MODE"
	EnvRestartExited    = "AUTOHEAL_RESTART_EXITED"
	EnvRestartUnhealthy = "AUTOHEAL_RESTART_UNHEALTHY"
	EnvDefaultPolicy    = "AUTOHEAL_DEFAULT_POLICY"
	EnvMaxAttempts      = "AUTOHEAL_MAX_ATTEMPTS"
	EnvCheckInterval    = "AUTOHEAL_CHECK_INTERVAL"
	EnvDiscordWebhook   = "AUTOHEAL_DISCORD_WEBHOOK"
	EnvWebhookURL       = "AUTOHEAL_WEBHOOK_URL"
	EnvSelfContainerID  = "AUTOHEAL_SELF_CONTAINER_ID"
	EnvLogLevel         = "AUTOHEAL_LOG_LEVEL"
	EnvStateDB          = "AUTOHEAL_STATE_DB"
	EnvMetricsAddr      = "AUTOHEAL_METRICS_ADDR"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved daemon configuration. String-typed fields are
// validated by Validate and converted by Settings.
type Config struct {
	Mode             string
	RestartExited    bool
	RestartUnhealthy bool
	DefaultPolicy    string
	MaxAttempts      int
	Interval         time.Duration
	WebhookURL       string
	SelfContainerID  string
	LogLevel         string
	// StateDB is the journal path. Empty disables the journal.
	StateDB string
	// MetricsAddr is the prometheus listen address. Empty disables it.
	MetricsAddr string
	// RestartTimeout is passed to the engine as the stop timeout. Zero keeps
	// the container's own setting.
	RestartTimeout time.Duration
}

// fileConfig mirrors the YAML file. Pointers distinguish "unset" from zero.
type fileConfig struct {
	Mode             *string `yaml:"mode"`
	RestartExited    *bool   `yaml:"restart_exited"`
	RestartUnhealthy *bool   `yaml:"restart_unhealthy"`
	DefaultPolicy    *string `yaml:"default_policy"`
	MaxAttempts      *int    `yaml:"max_attempts"`
	CheckInterval    *string `yaml:"check_interval"`
	WebhookURL       *string `yaml:"webhook_url"`
	SelfContainerID  *string `yaml:"self_container_id"`
	LogLevel         *string `yaml:"log_level"`
	StateDB          *string `yaml:"state_db"`
	MetricsAddr      *string `yaml:"metrics_addr"`
	RestartTimeout   *string `yaml:"restart_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:             heal.ScopeAll.String(),
		RestartExited:    true,
		RestartUnhealthy: true,
		DefaultPolicy:    heal.PolicyOnFailure.String(),
		MaxAttempts:      DefaultMaxAttempts,
		Interval:         DefaultInterval,
		LogLevel:         logging.LevelInfo,
		StateDB:          DefaultStateDB,
	}
}

// Load resolves the configuration from defaults, the YAML file at path (when
// path is non-empty) and the environment read through getenv. A nil getenv
// reads the process environment. The result is validated.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := cfg.applyFile(fc); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(fc fileConfig) error {
	setString(&c.Mode, fc.Mode)
	setString(&c.DefaultPolicy, fc.DefaultPolicy)
	setString(&c.WebhookURL, fc.WebhookURL)
	setString(&c.SelfContainerID, fc.SelfContainerID)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.StateDB, fc.StateDB)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	if fc.RestartExited != nil {
		c.RestartExited = *fc.RestartExited
	}
	if fc.RestartUnhealthy != nil {
		c.RestartUnhealthy = *fc.RestartUnhealthy
	}
	if fc.MaxAttempts != nil {
		c.MaxAttempts = *fc.MaxAttempts
	}
	if fc.CheckInterval != nil {
		d, err := ParseInterval(*fc.CheckInterval)
		if err != nil {
			return fmt.Errorf("check_interval: %w", err)
		}
		c.Interval = d
	}
	if fc.RestartTimeout != nil {
		d, err := ParseInterval(*fc.RestartTimeout)
		if err != nil {
			return fmt.Errorf("restart_timeout: %w", err)
		}
		c.RestartTimeout = d
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v, ok := lookup(getenv, EnvMode); ok {
		c.Mode = v
	}
	if v, ok := lookup(getenv, EnvRestartExited); ok {
		c.RestartExited = strings.EqualFold(v, "true")
	}
	if v, ok := lookup(getenv, EnvRestartUnhealthy); ok {
		c.RestartUnhealthy = strings.EqualFold(v, "true")
	}
	if v, ok := lookup(getenv, EnvDefaultPolicy); ok {
		c.DefaultPolicy = v
	}
	if v, ok := lookup(getenv, EnvMaxAttempts); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, EnvMaxAttempts, v)
		}
		c.MaxAttempts = n
	}
	if v, ok := lookup(getenv, EnvCheckInterval); ok {
		d, err := ParseInterval(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, EnvCheckInterval, err)
		}
		c.Interval = d
	}
	if v, ok := lookup(getenv, EnvDiscordWebhook); ok {
		c.WebhookURL = v
	} else if v, ok := lookup(getenv, EnvWebhookURL); ok {
		c.WebhookURL = v
	}
	if v, ok := lookup(getenv, EnvSelfContainerID); ok {
		c.SelfContainerID = v
	} else if c.SelfContainerID == "" {
		c.SelfContainerID = strings.TrimSpace(getenv("HOSTNAME"))
	}
	if v, ok := lookup(getenv, EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(getenv, EnvStateDB); ok {
		c.StateDB = v
	}
	if v, ok := lookup(getenv, EnvMetricsAddr); ok {
		c.MetricsAddr = v
	}
	return nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalid.
func (c Config) Validate() error {
	if _, err := heal.ParseScopeMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := heal.ParsePolicyMode(c.DefaultPolicy); err != nil {
		return fmt.Errorf("%w: default policy: %w", ErrInvalid, err)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts must not be negative, got %d", ErrInvalid, c.MaxAttempts)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: check interval must be positive, got %s", ErrInvalid, c.Interval)
	}
	if c.RestartTimeout < 0 {
		return fmt.Errorf("%w: restart timeout must not be negative, got %s", ErrInvalid, c.RestartTimeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Settings converts a validated Config into supervision settings.
func (c Config) Settings() (heal.Settings, error) {
	scope, err := heal.ParseScopeMode(c.Mode)
	if err != nil {
		return heal.Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	mode, err := heal.ParsePolicyMode(c.DefaultPolicy)
	if err != nil {
		return heal.Settings{}, fmt.Errorf("%w: default policy: %w", ErrInvalid, err)
	}
	return heal.Settings{
		Scope:            scope,
		RestartExited:    c.RestartExited,
		RestartUnhealthy: c.RestartUnhealthy,
		DefaultPolicy:    heal.Policy{Mode: mode, MaxAttempts: c.MaxAttempts},
		SelfContainerID:  c.SelfContainerID,
		Interval:         c.Interval,
	}, nil
}

// ParseInterval accepts a whole number of seconds ("30") or a Go duration
// ("1m30s").
func ParseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: want seconds or a duration", raw)
	}
	return d, nil
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	return v, v != ""
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
