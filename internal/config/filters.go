package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

// FilterConfig is the on-disk shape of the per-user filter document.
type FilterConfig struct {
	Whitelist   []string `koanf:"whitelist"`
	Blacklist   []string `koanf:"blacklist"`
	MinSeverity string   `koanf:"min_severity"`
}

// FilterStore owns the patch filter configuration: a whitelist of packages
// that are always patched, a blacklist of packages never auto-patched, and a
// minimum severity floor. It is loaded once per process and every mutation
// rewrites the document in full.
//
// The store is not safe for concurrent mutation; callers that share one
// across goroutines need their own lock.
type FilterStore struct {
	path string
	log  *zap.Logger

	whitelist   map[string]bool
	blacklist   map[string]bool
	minSeverity vuln.Severity
}

// LoadFilters loads the filter document. A missing file yields defaults
// (empty lists, medium floor); a malformed file is logged as a warning and
// defaults are retained. Loading never fails.
func LoadFilters(cfg *Config, log *zap.Logger) *FilterStore {
	s := &FilterStore{
		path:        cfg.FiltersPath(),
		log:         log,
		whitelist:   map[string]bool{},
		blacklist:   map[string]bool{},
		minSeverity: vuln.SeverityMedium,
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return s
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil {
		log.Warn("Failed to parse filter config, using defaults", zap.String("path", s.path), zap.Error(err))
		return s
	}

	var fc FilterConfig
	if err := k.Unmarshal("", &fc); err != nil {
		log.Warn("Failed to load filter config, using defaults", zap.String("path", s.path), zap.Error(err))
		return s
	}

	for _, pkg := range fc.Whitelist {
		s.whitelist[pkg] = true
	}
	for _, pkg := range fc.Blacklist {
		s.blacklist[pkg] = true
	}
	if fc.MinSeverity != "" {
		s.minSeverity = vuln.ParseSeverity(fc.MinSeverity)
	}

	log.Debug("Loaded filter config",
		zap.String("path", s.path),
		zap.Int("whitelist", len(s.whitelist)),
		zap.Int("blacklist", len(s.blacklist)),
		zap.String("min_severity", string(s.minSeverity)),
	)
	return s
}

// Whitelist returns the always-patch package set.
func (s *FilterStore) Whitelist() map[string]bool { return s.whitelist }

// Blacklist returns the never-auto-patch package set.
func (s *FilterStore) Blacklist() map[string]bool { return s.blacklist }

// MinSeverity returns the severity floor.
func (s *FilterStore) MinSeverity() vuln.Severity { return s.minSeverity }

// AddWhitelist adds a package to the whitelist and persists the document.
func (s *FilterStore) AddWhitelist(pkg string) error {
	s.whitelist[pkg] = true
	return s.save()
}

// AddBlacklist adds a package to the blacklist and persists the document.
func (s *FilterStore) AddBlacklist(pkg string) error {
	s.blacklist[pkg] = true
	return s.save()
}

// SetMinSeverity sets the severity floor and persists the document.
func (s *FilterStore) SetMinSeverity(sev vuln.Severity) error {
	s.minSeverity = sev
	return s.save()
}

func (s *FilterStore) save() error {
	out, err := yaml.Parser().Marshal(map[string]interface{}{
		"whitelist":    sortedKeys(s.whitelist),
		"blacklist":    sortedKeys(s.blacklist),
		"min_severity": string(s.minSeverity),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal filter config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write filter config: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
