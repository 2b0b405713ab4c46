// Package config defines collector configuration and its loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and environment variables on top.
// - Validate() must pass before any portal traffic starts.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Province is one (code, name) pair of the top-level walk.
type Province struct {
	Code int    `koanf:"code"`
	Name string `koanf:"name"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	// BaseURL is the portal origin, e.g. "https://www.turkiye.gov.tr".
	BaseURL string `koanf:"base_url"`

	// PagePath is the query tool page under BaseURL.
	PagePath string `koanf:"page_path"`

	// OutputDir receives one JSON document per province.
	OutputDir string `koanf:"output_dir"`

	// OutputIndent pretty-prints documents with this indent; empty writes compact JSON.
	OutputIndent string `koanf:"output_indent"`

	// WorkerCount bounds the neighborhoods of one district resolved at once.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds pending neighborhood jobs per district.
	QueueSize int `koanf:"queue_size"`

	// RequestTimeoutMS is the per-request HTTP timeout.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// ExpiryRetries caps refresh-and-retry cycles for one call.
	ExpiryRetries int `koanf:"expiry_retries"`

	// NetworkRetries caps attempts after network failures for one request.
	NetworkRetries int `koanf:"network_retries"`

	// BackoffInitialMS and BackoffMaxMS shape the exponential backoff.
	BackoffInitialMS int `koanf:"backoff_initial_ms"`
	BackoffMaxMS     int `koanf:"backoff_max_ms"`

	// MetricsAddr serves /healthz, /metrics and /stats when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// Provinces is the top-level walk list.
	Provinces []Province `koanf:"provinces"`

	// ProvinceCodes, when set, restricts the walk to these codes.
	ProvinceCodes []int `koanf:"province_codes"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		BaseURL:          "https://www.turkiye.gov.tr",
		PagePath:         "/afet-ve-acil-durum-yonetimi-acil-toplanma-alani-sorgulama",
		OutputDir:        ".",
		WorkerCount:      10,
		QueueSize:        1_000,
		RequestTimeoutMS: 30_000,
		ExpiryRetries:    3,
		NetworkRetries:   3,
		BackoffInitialMS: 500,
		BackoffMaxMS:     10_000,
		Provinces:        DefaultProvinces(),
	}
}

// DefaultProvinces returns the provinces hit by the February 2023 earthquakes.
func DefaultProvinces() []Province {
	return []Province{
		{Code: 1, Name: "Adana"},
		{Code: 2, Name: "Adıyaman"},
		{Code: 46, Name: "Kahramanmaraş"},
		{Code: 27, Name: "Gaziantep"},
		{Code: 44, Name: "Malatya"},
		{Code: 21, Name: "Diyarbakır"},
		{Code: 79, Name: "Kilis"},
		{Code: 63, Name: "Şanlıurfa"},
		{Code: 31, Name: "Hatay"},
		{Code: 80, Name: "Osmaniye"},
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// BackoffInitial returns BackoffInitialMS as a duration.
func (c *Config) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMS) * time.Millisecond
}

// BackoffMax returns BackoffMaxMS as a duration.
func (c *Config) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMS) * time.Millisecond
}

// SelectedProvinces applies the ProvinceCodes filter, keeping list order.
func (c *Config) SelectedProvinces() []Province {
	if len(c.ProvinceCodes) == 0 {
		return c.Provinces
	}
	out := make([]Province, 0, len(c.ProvinceCodes))
	for _, p := range c.Provinces {
		if slices.Contains(c.ProvinceCodes, p.Code) {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports a malformed configuration wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q is not an absolute URL", ErrInvalidConfig, c.BaseURL)
	}
	if !strings.HasPrefix(c.PagePath, "/") {
		return fmt.Errorf("%w: page_path must start with /", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.RequestTimeoutMS < 1 {
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ExpiryRetries < 0 || c.NetworkRetries < 1 {
		return fmt.Errorf("%w: expiry_retries must be >= 0 and network_retries >= 1", ErrInvalidConfig)
	}
	if c.BackoffInitialMS < 1 || c.BackoffMaxMS < c.BackoffInitialMS {
		return fmt.Errorf("%w: backoff bounds are inconsistent", ErrInvalidConfig)
	}
	if len(c.Provinces) == 0 {
		return fmt.Errorf("%w: province list is empty", ErrInvalidConfig)
	}

	seen := make(map[int]struct{}, len(c.Provinces))
	for i, p := range c.Provinces {
		if p.Code <= 0 {
			return fmt.Errorf("%w: provinces[%d] has no code", ErrInvalidConfig, i)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: provinces[%d] (code %d) has no name", ErrInvalidConfig, i, p.Code)
		}
		if _, dup := seen[p.Code]; dup {
			return fmt.Errorf("%w: province code %d listed twice", ErrInvalidConfig, p.Code)
		}
		seen[p.Code] = struct{}{}
	}
	for _, code := range c.ProvinceCodes {
		if _, ok := seen[code]; !ok {
			return fmt.Errorf("%w: province_codes references unknown code %d", ErrInvalidConfig, code)
		}
	}
	return nil
}
