// Package scheduler manages recurring security scan and patch schedules:
// a YAML-backed schedule store, the run loop that ties scanning to patching,
// and systemd timer installation.
package scheduler

import (
	"time"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

// Schedule is one recurring scan/patch job.
type Schedule struct {
	ID            string         `koanf:"schedule_id"`
	Frequency     vuln.Frequency `koanf:"frequency"`
	ScanEnabled   bool           `koanf:"scan_enabled"`
	PatchEnabled  bool           `koanf:"patch_enabled"`
	PatchStrategy vuln.Strategy  `koanf:"patch_strategy"`
	DryRun        bool           `koanf:"dry_run"`
	// LastRun and NextRun are RFC 3339 timestamps, empty when never run
	// (or, for NextRun, when the frequency is custom).
	LastRun string `koanf:"last_run"`
	NextRun string `koanf:"next_run"`
	// CustomCron holds the cron expression for custom-frequency schedules.
	CustomCron string `koanf:"custom_cron"`
}

// ComputeNextRun returns the next run time after now. The built-in
// frequencies use fixed offsets (a month is thirty days); custom schedules
// are driven by their cron expression and carry no precomputed next run.
func ComputeNextRun(f vuln.Frequency, now time.Time) (time.Time, bool) {
	switch f {
	case vuln.FrequencyDaily:
		return now.Add(24 * time.Hour), true
	case vuln.FrequencyWeekly:
		return now.Add(7 * 24 * time.Hour), true
	case vuln.FrequencyMonthly:
		return now.Add(30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

// doc flattens a schedule for YAML persistence.
func (s *Schedule) doc() map[string]interface{} {
	return map[string]interface{}{
		"schedule_id":    s.ID,
		"frequency":      string(s.Frequency),
		"scan_enabled":   s.ScanEnabled,
		"patch_enabled":  s.PatchEnabled,
		"patch_strategy": string(s.PatchStrategy),
		"dry_run":        s.DryRun,
		"last_run":       s.LastRun,
		"next_run":       s.NextRun,
		"custom_cron":    s.CustomCron,
	}
}
