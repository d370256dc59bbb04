package patcher

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/pkgmgr"
	"github.com/cortexlinux/cortex-patch-go/internal/scanner"
	"github.com/cortexlinux/cortex-patch-go/internal/telemetry"
	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

// Planner turns a vulnerability set into a concrete patch plan.
type Planner struct {
	cfg     *config.Config
	log     *zap.Logger
	scanner scanner.Scanner
	gate    *pkgmgr.RefreshGate
	gw      pkgmgr.Gateway
	filters *config.FilterStore
}

// NewPlanner creates a planner. The refresh gate must be the process-wide
// shared instance so concurrent planners rate-limit a single index refresh.
func NewPlanner(cfg *config.Config, log *zap.Logger, sc scanner.Scanner, gate *pkgmgr.RefreshGate, gw pkgmgr.Gateway, filters *config.FilterStore) *Planner {
	return &Planner{
		cfg:     cfg,
		log:     log,
		scanner: sc,
		gate:    gate,
		gw:      gw,
		filters: filters,
	}
}

// CreatePlan builds a patch plan for the given vulnerabilities under the
// given strategy. A nil vulnerability slice means "scan for them". When
// nothing passes the policy filter, an empty plan is returned without any
// external calls.
func (p *Planner) CreatePlan(ctx context.Context, vulns []vuln.Vulnerability, strategy vuln.Strategy) (*PatchPlan, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "Planner.CreatePlan")
	defer span.End()

	if vulns == nil {
		scanned, err := p.scanner.Scan(ctx)
		if err != nil {
			return nil, err
		}
		vulns = scanned
	}

	var toPatch []vuln.Vulnerability
	for _, v := range vulns {
		if ShouldPatch(v, p.filters.Whitelist(), p.filters.Blacklist(), p.filters.MinSeverity(), strategy) {
			toPatch = append(toPatch, v)
		} else {
			p.log.Debug("Skipping vulnerability",
				zap.String("package", v.Package),
				zap.String("severity", string(v.Severity)),
			)
		}
	}

	plan := &PatchPlan{RollbackAvailable: true}
	if len(toPatch) == 0 {
		return plan, nil
	}
	plan.Vulnerabilities = toPatch

	// Group by package, preserving first-seen order.
	seen := map[string]bool{}
	var packages []string
	for _, v := range toPatch {
		if !seen[v.Package] {
			seen[v.Package] = true
			packages = append(packages, v.Package)
		}
	}

	// One gated refresh for the whole plan, however many packages follow.
	p.gate.EnsureRefreshed(ctx, false)

	for _, pkg := range packages {
		version, ok := p.gw.CandidateVersion(ctx, pkg)
		if !ok {
			// No usable candidate is not an error; the package simply
			// drops out of the plan.
			p.log.Debug("No candidate version, excluding package", zap.String("package", pkg))
			continue
		}
		plan.Updates = append(plan.Updates, PackageUpdate{Name: pkg, TargetVersion: version})

		if strings.Contains(pkg, "linux-image") || strings.Contains(pkg, "linux-headers") {
			plan.RequiresReboot = true
		}
	}

	plan.EstimatedDurationMinutes = float64(len(plan.Updates))

	p.log.Info("Patch plan created",
		zap.Int("vulnerabilities", len(plan.Vulnerabilities)),
		zap.Int("packages", len(plan.Updates)),
		zap.Bool("requires_reboot", plan.RequiresReboot),
	)
	return plan, nil
}
