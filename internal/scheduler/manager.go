package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/patcher"
	"github.com/cortexlinux/cortex-patch-go/internal/scanner"
	"github.com/cortexlinux/cortex-patch-go/internal/telemetry"
	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

// ErrNotFound is returned for operations on a schedule id that does not
// exist. Lookups never mutate the store.
var ErrNotFound = errors.New("schedule not found")

// PatchRunner is the slice of the patcher a schedule run needs.
type PatchRunner interface {
	PatchVulnerabilities(ctx context.Context, vulns []vuln.Vulnerability, strategy vuln.Strategy, dryRun bool) (*patcher.PatchResult, error)
}

// RunResult is the outcome of one schedule run.
type RunResult struct {
	ScheduleID string
	Scanned    bool
	Summary    scanner.Summary
	Patch      *patcher.PatchResult
	Success    bool
	Errors     []string
}

// Manager owns the schedule store. Like the filter store it loads once and
// rewrites the whole document on every mutation.
type Manager struct {
	cfg     *config.Config
	log     *zap.Logger
	path    string
	scanner scanner.Scanner
	runner  PatchRunner

	schedules map[string]*Schedule

	now func() time.Time // injectable clock for tests
}

// NewManager loads the schedule document. A missing file yields an empty
// store; a malformed file is logged as a warning and ignored.
func NewManager(cfg *config.Config, log *zap.Logger, sc scanner.Scanner, runner PatchRunner) *Manager {
	m := &Manager{
		cfg:       cfg,
		log:       log,
		path:      cfg.SchedulesPath(),
		scanner:   sc,
		runner:    runner,
		schedules: map[string]*Schedule{},
		now:       time.Now,
	}

	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return m
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(m.path), yaml.Parser()); err != nil {
		log.Warn("Failed to parse schedule config, starting empty", zap.String("path", m.path), zap.Error(err))
		return m
	}

	var loaded []Schedule
	if err := k.Unmarshal("schedules", &loaded); err != nil {
		log.Warn("Failed to load schedules, starting empty", zap.String("path", m.path), zap.Error(err))
		return m
	}
	for i := range loaded {
		s := loaded[i]
		m.schedules[s.ID] = &s
	}

	log.Debug("Loaded schedules", zap.String("path", m.path), zap.Int("count", len(m.schedules)))
	return m
}

// Create registers a schedule and persists the store. An empty id gets a
// time-derived one; an existing id is overwritten wholesale, last write wins.
// Custom-frequency schedules must carry a valid five-field cron expression.
func (m *Manager) Create(id string, frequency vuln.Frequency, scanEnabled, patchEnabled bool, strategy vuln.Strategy, dryRun bool, customCron string) (*Schedule, error) {
	if frequency == vuln.FrequencyCustom {
		if customCron == "" {
			return nil, fmt.Errorf("custom frequency requires a cron expression")
		}
		if _, err := cron.ParseStandard(customCron); err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", customCron, err)
		}
	}

	now := m.now()
	if id == "" {
		id = fmt.Sprintf("schedule_%d", now.Unix())
	}
	s := &Schedule{
		ID:            id,
		Frequency:     frequency,
		ScanEnabled:   scanEnabled,
		PatchEnabled:  patchEnabled,
		PatchStrategy: strategy,
		DryRun:        dryRun,
		CustomCron:    customCron,
	}
	if next, ok := ComputeNextRun(frequency, now); ok {
		s.NextRun = next.Format(time.RFC3339)
	}

	prev, existed := m.schedules[s.ID]
	m.schedules[s.ID] = s
	if err := m.save(); err != nil {
		if existed {
			m.schedules[s.ID] = prev
		} else {
			delete(m.schedules, s.ID)
		}
		return nil, err
	}

	m.log.Info("Schedule created",
		zap.String("schedule_id", s.ID),
		zap.String("frequency", string(frequency)),
		zap.Bool("patch_enabled", patchEnabled),
		zap.Bool("dry_run", dryRun),
	)
	return s, nil
}

// List returns all schedules sorted by id.
func (m *Manager) List() []*Schedule {
	out := make([]*Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get fetches a schedule by id.
func (m *Manager) Get(id string) (*Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a schedule and persists the store.
func (m *Manager) Delete(id string) error {
	s, ok := m.schedules[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.schedules, id)
	if err := m.save(); err != nil {
		m.schedules[id] = s
		return err
	}
	m.log.Info("Schedule deleted", zap.String("schedule_id", id))
	return nil
}

// Run executes a schedule once: scan when enabled, then patch the urgent
// (critical and high) findings when enabled. The urgency cutoff is fixed and
// independent of the severity floor; the schedule's strategy still applies
// inside the patcher.
//
// Timestamps advance only after the enabled steps ran to the point of
// producing a result. A scan failure or a planning failure leaves last_run
// and next_run untouched, so a broken feed keeps the schedule visibly due.
func (m *Manager) Run(ctx context.Context, id string) (*RunResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "Manager.Run")
	defer span.End()

	s, ok := m.schedules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	m.log.Info("Running schedule", zap.String("schedule_id", id))
	result := &RunResult{ScheduleID: id, Success: true}

	var vulns []vuln.Vulnerability
	if s.ScanEnabled {
		scanned, err := m.scanner.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("schedule %s scan failed: %w", id, err)
		}
		vulns = scanned
		result.Scanned = true
		result.Summary = scanner.Summarize(vulns)
	}

	if s.PatchEnabled && len(vulns) > 0 {
		urgent := []vuln.Vulnerability{}
		for _, v := range vulns {
			if v.Severity == vuln.SeverityCritical || v.Severity == vuln.SeverityHigh {
				urgent = append(urgent, v)
			}
		}
		patched, err := m.runner.PatchVulnerabilities(ctx, urgent, s.PatchStrategy, s.DryRun)
		if err != nil {
			return nil, fmt.Errorf("schedule %s patch failed: %w", id, err)
		}
		result.Patch = patched
		if !patched.Success {
			result.Success = false
			result.Errors = append(result.Errors, patched.Errors...)
		}
	}

	now := m.now()
	s.LastRun = now.Format(time.RFC3339)
	if next, ok := ComputeNextRun(s.Frequency, now); ok {
		s.NextRun = next.Format(time.RFC3339)
	}
	if err := m.save(); err != nil {
		m.log.Warn("Failed to persist schedule timestamps", zap.String("schedule_id", id), zap.Error(err))
	}

	return result, nil
}

func (m *Manager) save() error {
	list := m.List()
	docs := make([]map[string]interface{}, len(list))
	for i, s := range list {
		docs[i] = s.doc()
	}

	out, err := yaml.Parser().Marshal(map[string]interface{}{"schedules": docs})
	if err != nil {
		return fmt.Errorf("failed to marshal schedules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write schedules: %w", err)
	}
	return nil
}
