package patcher

import (
	"time"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

// PackageUpdate pins one package to its target candidate version. An empty
// TargetVersion means install unpinned.
type PackageUpdate struct {
	Name          string
	TargetVersion string
}

// PatchPlan is a concrete plan for patching a filtered vulnerability set.
// Updates is ordered: the executor processes packages strictly in this
// order, never re-sorted by severity or name. Package names are unique
// within a plan and always drawn from the filtered vulnerability set.
type PatchPlan struct {
	Vulnerabilities []vuln.Vulnerability
	Updates         []PackageUpdate
	// EstimatedDurationMinutes is a fixed heuristic (one minute per
	// package), not a forecast.
	EstimatedDurationMinutes float64
	RequiresReboot           bool
	// RollbackAvailable is structural: the history store always records
	// enough for an external rollback, so this is always true.
	RollbackAvailable bool
}

// PackageNames returns the plan's package names in processing order.
func (p *PatchPlan) PackageNames() []string {
	names := make([]string, len(p.Updates))
	for i, u := range p.Updates {
		names[i] = u.Name
	}
	return names
}

// PatchResult is the outcome of applying a plan.
type PatchResult struct {
	PatchID   string
	Timestamp time.Time
	// VulnerabilitiesPatched is the size of the plan's filtered
	// vulnerability set for completed runs, zero when execution broke
	// down before any accounting was possible.
	VulnerabilitiesPatched int
	// PackagesUpdated lists the packages that actually succeeded, in
	// attempt order.
	PackagesUpdated []string
	Success         bool
	Errors          []string
	// RollbackID is set only when a real (non-dry-run) execution was
	// attempted; dry runs never carry one.
	RollbackID string
	// Duration is measured for real executions only.
	Duration time.Duration
}
