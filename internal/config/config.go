package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultDir returns the Cortex state directory (~/.cortex).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cortex"
	}
	return filepath.Join(home, ".cortex")
}

// FindConfigPath returns the main config file path. The file is optional;
// a missing file means defaults plus environment overrides.
func FindConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Config holds all configuration for cortex-patch.
type Config struct {
	Apt       AptConfig       `koanf:"apt"`
	Scanner   ScannerConfig   `koanf:"scanner"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Paths     PathsConfig     `koanf:"paths"`
}

// AptConfig holds package-manager tool paths and limits.
type AptConfig struct {
	GetPath   string `koanf:"get_path"`   // apt-get binary
	CachePath string `koanf:"cache_path"` // apt-cache binary
	// Timeout bounds every external package-manager command, in seconds.
	// A timed-out command is reported as a failure, never a hang.
	Timeout int `koanf:"timeout"`
	// RefreshInterval is the minimum spacing between index refreshes, in
	// seconds, enforced by the refresh gate.
	RefreshInterval int `koanf:"refresh_interval"`
}

// ScannerConfig holds the external vulnerability scanner settings.
type ScannerConfig struct {
	// FeedURL points at a JSON document listing current vulnerabilities.
	FeedURL string `koanf:"feed_url"`
	Timeout int    `koanf:"timeout"` // HTTP timeout, seconds
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// PathsConfig holds the state directory for filter, schedule, and history
// documents. Overridable mainly for tests.
type PathsConfig struct {
	Dir string `koanf:"dir"`
}

// FiltersPath is the per-user filter configuration document.
func (c *Config) FiltersPath() string {
	return filepath.Join(c.Paths.Dir, "patcher.yaml")
}

// SchedulesPath is the schedule configuration document.
func (c *Config) SchedulesPath() string {
	return filepath.Join(c.Paths.Dir, "schedules.yaml")
}

// HistoryPath is the installation-history SQLite database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.Dir, "history.db")
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Apt: AptConfig{
			GetPath:         "apt-get",
			CachePath:       "apt-cache",
			Timeout:         300,
			RefreshInterval: 300,
		},
		Scanner: ScannerConfig{
			Timeout: 30,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
		Paths: PathsConfig{
			Dir: DefaultDir(),
		},
	}
}

// Load reads configuration in three layers: defaults, then the YAML file at
// path (skipped when absent), then CORTEX_-prefixed environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := loadEnvOverrides(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := DefaultConfig()
	return k.Load(confmap.Provider(map[string]interface{}{
		"apt.get_path":         defaults.Apt.GetPath,
		"apt.cache_path":       defaults.Apt.CachePath,
		"apt.timeout":          defaults.Apt.Timeout,
		"apt.refresh_interval": defaults.Apt.RefreshInterval,
		"scanner.timeout":      defaults.Scanner.Timeout,
		"telemetry.enabled":    defaults.Telemetry.Enabled,
		"paths.dir":            defaults.Paths.Dir,
	}, "."), nil)
}

func loadEnvOverrides(k *koanf.Koanf) error {
	// CORTEX_APT_TIMEOUT → apt.timeout
	return k.Load(env.Provider("CORTEX_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "CORTEX_"))
		if idx := strings.Index(s, "_"); idx >= 0 {
			return s[:idx] + "." + s[idx+1:]
		}
		return s
	}), nil)
}

// Validate checks value ranges. It never requires the scanner feed URL;
// commands that need the scanner validate it separately.
func (c *Config) Validate() error {
	var errs []error

	if c.Apt.GetPath == "" {
		errs = append(errs, fmt.Errorf("apt.get_path is required"))
	}
	if c.Apt.CachePath == "" {
		errs = append(errs, fmt.Errorf("apt.cache_path is required"))
	}
	if c.Apt.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("apt.timeout must be greater than 0, got %d", c.Apt.Timeout))
	}
	if c.Apt.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("apt.refresh_interval must be >= 0, got %d", c.Apt.RefreshInterval))
	}
	if c.Scanner.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("scanner.timeout must be greater than 0, got %d", c.Scanner.Timeout))
	}
	if c.Scanner.FeedURL != "" {
		u, err := url.Parse(c.Scanner.FeedURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("scanner.feed_url must be a valid URL with scheme and host"))
		}
	}
	if c.Paths.Dir == "" {
		errs = append(errs, fmt.Errorf("paths.dir is required"))
	}

	return errors.Join(errs...)
}

// ValidateScannerFeed checks that the scanner feed URL is set. Call this in
// commands that need the external scanner (patch, schedule run).
func (c *Config) ValidateScannerFeed() error {
	if c.Scanner.FeedURL == "" {
		return fmt.Errorf("scanner.feed_url is required (set in %s or CORTEX_SCANNER_FEED_URL env var)", FindConfigPath())
	}
	return nil
}
