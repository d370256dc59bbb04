package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/patcher"
	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

type fakeScanner struct {
	vulns []vuln.Vulnerability
	err   error
	scans int
}

func (f *fakeScanner) Scan(ctx context.Context) ([]vuln.Vulnerability, error) {
	f.scans++
	return f.vulns, f.err
}

type runnerCall struct {
	vulns    []vuln.Vulnerability
	strategy vuln.Strategy
	dryRun   bool
}

type fakeRunner struct {
	calls  []runnerCall
	result *patcher.PatchResult
	err    error
}

func (f *fakeRunner) PatchVulnerabilities(ctx context.Context, vulns []vuln.Vulnerability, strategy vuln.Strategy, dryRun bool) (*patcher.PatchResult, error) {
	f.calls = append(f.calls, runnerCall{vulns: vulns, strategy: strategy, dryRun: dryRun})
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &patcher.PatchResult{Success: true, VulnerabilitiesPatched: len(vulns)}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Paths.Dir = t.TempDir()
	return cfg
}

func newTestManager(t *testing.T, cfg *config.Config, sc *fakeScanner, runner *fakeRunner) *Manager {
	t.Helper()
	m := NewManager(cfg, zap.NewNop(), sc, runner)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestCreateComputesNextRun(t *testing.T) {
	m := newTestManager(t, testConfig(t), &fakeScanner{}, &fakeRunner{})

	s, err := m.Create("", vuln.FrequencyDaily, true, true, vuln.StrategyHighAndAbove, true, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := m.now().Add(24 * time.Hour).Format(time.RFC3339)
	if s.NextRun != want {
		t.Errorf("NextRun = %q, want %q", s.NextRun, want)
	}
	if s.LastRun != "" {
		t.Errorf("LastRun = %q, want empty for a fresh schedule", s.LastRun)
	}
}

func TestCreateCustomRequiresValidCron(t *testing.T) {
	m := newTestManager(t, testConfig(t), &fakeScanner{}, &fakeRunner{})

	if _, err := m.Create("", vuln.FrequencyCustom, true, false, vuln.StrategyManual, true, ""); err == nil {
		t.Error("custom frequency without cron expected error")
	}
	if _, err := m.Create("", vuln.FrequencyCustom, true, false, vuln.StrategyManual, true, "not a cron"); err == nil {
		t.Error("invalid cron expected error")
	}

	s, err := m.Create("", vuln.FrequencyCustom, true, false, vuln.StrategyManual, true, "0 3 * * 1")
	if err != nil {
		t.Fatalf("Create with valid cron: %v", err)
	}
	if s.NextRun != "" {
		t.Errorf("custom schedule NextRun = %q, want empty", s.NextRun)
	}
}

func TestSchedulesPersistAcrossReload(t *testing.T) {
	cfg := testConfig(t)
	m := newTestManager(t, cfg, &fakeScanner{}, &fakeRunner{})

	created, err := m.Create("", vuln.FrequencyWeekly, true, true, vuln.StrategyCriticalOnly, false, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reloaded := NewManager(cfg, zap.NewNop(), &fakeScanner{}, &fakeRunner{})
	got, err := reloaded.Get(created.ID)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.Frequency != vuln.FrequencyWeekly || got.PatchStrategy != vuln.StrategyCriticalOnly || got.DryRun {
		t.Errorf("reloaded schedule mismatch: %+v", got)
	}
	if got.NextRun != created.NextRun {
		t.Errorf("NextRun = %q, want %q", got.NextRun, created.NextRun)
	}
}

func TestGetAndDeleteUnknownSchedule(t *testing.T) {
	m := newTestManager(t, testConfig(t), &fakeScanner{}, &fakeRunner{})

	if _, err := m.Get("schedule_999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}
	if err := m.Delete("schedule_999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete unknown = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesSchedule(t *testing.T) {
	cfg := testConfig(t)
	m := newTestManager(t, cfg, &fakeScanner{}, &fakeRunner{})

	s, err := m.Create("", vuln.FrequencyDaily, true, false, vuln.StrategyManual, true, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	reloaded := NewManager(cfg, zap.NewNop(), &fakeScanner{}, &fakeRunner{})
	if len(reloaded.List()) != 0 {
		t.Error("deletion must persist")
	}
}

func TestRunUnknownSchedule(t *testing.T) {
	m := newTestManager(t, testConfig(t), &fakeScanner{}, &fakeRunner{})
	if _, err := m.Run(context.Background(), "schedule_999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Run unknown = %v, want ErrNotFound", err)
	}
}

func TestRunScanOnly(t *testing.T) {
	sc := &fakeScanner{vulns: []vuln.Vulnerability{
		{CVE: "CVE-2026-0001", Package: "openssl", Severity: vuln.SeverityCritical},
		{CVE: "CVE-2026-0002", Package: "curl", Severity: vuln.SeverityMedium},
	}}
	runner := &fakeRunner{}
	m := newTestManager(t, testConfig(t), sc, runner)

	s, err := m.Create("", vuln.FrequencyDaily, true, false, vuln.StrategyManual, true, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := m.Run(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Scanned || res.Summary.Total != 2 || res.Summary.Critical != 1 {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}
	if res.Patch != nil || len(runner.calls) != 0 {
		t.Error("patching disabled, runner must not be called")
	}
	if s.LastRun == "" {
		t.Error("LastRun must advance after a completed run")
	}
}

func TestRunPatchesOnlyUrgentFindings(t *testing.T) {
	sc := &fakeScanner{vulns: []vuln.Vulnerability{
		{CVE: "CVE-2026-0001", Package: "openssl", Severity: vuln.SeverityCritical},
		{CVE: "CVE-2026-0002", Package: "curl", Severity: vuln.SeverityMedium},
		{CVE: "CVE-2026-0003", Package: "nginx", Severity: vuln.SeverityHigh},
	}}
	runner := &fakeRunner{}
	m := newTestManager(t, testConfig(t), sc, runner)

	s, err := m.Create("", vuln.FrequencyWeekly, true, true, vuln.StrategyHighAndAbove, false, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := m.Run(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(runner.calls))
	}
	call := runner.calls[0]
	if len(call.vulns) != 2 {
		t.Errorf("runner got %d vulnerabilities, want 2 (critical and high only)", len(call.vulns))
	}
	if call.strategy != vuln.StrategyHighAndAbove || call.dryRun {
		t.Errorf("unexpected call: %+v", call)
	}
	if res.Patch == nil || res.Patch.VulnerabilitiesPatched != 2 {
		t.Errorf("unexpected patch result: %+v", res.Patch)
	}
	if !res.Success {
		t.Error("run with a successful patch must report success")
	}
}

func TestCreateOverwritesExistingID(t *testing.T) {
	m := newTestManager(t, testConfig(t), &fakeScanner{}, &fakeRunner{})

	if _, err := m.Create("nightly", vuln.FrequencyDaily, true, false, vuln.StrategyManual, true, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create("nightly", vuln.FrequencyWeekly, true, true, vuln.StrategyAutomatic, false, ""); err != nil {
		t.Fatalf("Create overwrite: %v", err)
	}

	got, err := m.Get("nightly")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Frequency != vuln.FrequencyWeekly || !got.PatchEnabled || got.DryRun {
		t.Errorf("overwrite must replace the schedule wholesale, got %+v", got)
	}
	if len(m.List()) != 1 {
		t.Errorf("got %d schedules, want 1", len(m.List()))
	}
}

func TestRunSkipsPatchWhenScanFindsNothing(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestManager(t, testConfig(t), &fakeScanner{}, runner)

	s, err := m.Create("", vuln.FrequencyDaily, true, true, vuln.StrategyAutomatic, true, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := m.Run(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Error("no findings, runner must not be called")
	}
	if !res.Success || res.Patch != nil {
		t.Errorf("unexpected result: %+v", res)
	}
	if s.LastRun == "" {
		t.Error("LastRun must advance after a completed run")
	}
}

func TestRunScanFailureLeavesTimestamps(t *testing.T) {
	sc := &fakeScanner{err: errors.New("feed unreachable")}
	m := newTestManager(t, testConfig(t), sc, &fakeRunner{})

	s, err := m.Create("", vuln.FrequencyDaily, true, true, vuln.StrategyAutomatic, true, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	nextBefore := s.NextRun

	if _, err := m.Run(context.Background(), s.ID); err == nil {
		t.Fatal("scan failure must fail the run")
	}
	if s.LastRun != "" || s.NextRun != nextBefore {
		t.Error("failed run must not advance timestamps")
	}
}

func TestRunPatchFailureLeavesTimestamps(t *testing.T) {
	sc := &fakeScanner{vulns: []vuln.Vulnerability{
		{CVE: "CVE-2026-0001", Package: "openssl", Severity: vuln.SeverityCritical},
	}}
	runner := &fakeRunner{err: errors.New("planning broke")}
	m := newTestManager(t, testConfig(t), sc, runner)

	s, err := m.Create("", vuln.FrequencyDaily, true, true, vuln.StrategyAutomatic, true, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := m.Run(context.Background(), s.ID); err == nil {
		t.Fatal("patch failure must fail the run")
	}
	if s.LastRun != "" {
		t.Error("failed run must not advance timestamps")
	}
}

func TestRunReportedPatchFailureStillAdvancesTimestamps(t *testing.T) {
	sc := &fakeScanner{vulns: []vuln.Vulnerability{
		{CVE: "CVE-2026-0001", Package: "openssl", Severity: vuln.SeverityCritical},
	}}
	runner := &fakeRunner{result: &patcher.PatchResult{
		Success:    false,
		Errors:     []string{"failed to update openssl: held broken packages"},
		RollbackID: "install_42",
	}}
	m := newTestManager(t, testConfig(t), sc, runner)

	s, err := m.Create("", vuln.FrequencyDaily, true, true, vuln.StrategyAutomatic, false, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := m.Run(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Error("a failed patch result must fail the run")
	}
	if len(res.Errors) != 1 || res.Errors[0] != "failed to update openssl: held broken packages" {
		t.Errorf("Errors = %v, want the patch errors appended", res.Errors)
	}
	// A reported patch failure means the update step was reached, so the
	// schedule still advances; only an error escaping the run leaves it due.
	if s.LastRun != m.now().Format(time.RFC3339) {
		t.Errorf("LastRun = %q, want %q", s.LastRun, m.now().Format(time.RFC3339))
	}
	want := m.now().Add(24 * time.Hour).Format(time.RFC3339)
	if s.NextRun != want {
		t.Errorf("NextRun = %q, want %q", s.NextRun, want)
	}
}

func TestRunCustomScheduleKeepsNextRunEmpty(t *testing.T) {
	sc := &fakeScanner{}
	m := newTestManager(t, testConfig(t), sc, &fakeRunner{})

	s, err := m.Create("", vuln.FrequencyCustom, true, false, vuln.StrategyManual, true, "0 3 * * *")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Run(context.Background(), s.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.LastRun == "" {
		t.Error("LastRun must advance")
	}
	if s.NextRun != "" {
		t.Errorf("custom schedule NextRun = %q, want empty", s.NextRun)
	}
}
