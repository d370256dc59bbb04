// Package patcher plans and applies security patches. The planner filters
// vulnerabilities through the policy and resolves candidate versions, the
// executor applies the resulting plan against the package manager with a
// history record for rollback.
package patcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/telemetry"
	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

// Patcher ties planning and execution together into a single operation.
type Patcher struct {
	planner  *Planner
	executor *Executor
	log      *zap.Logger
}

// NewPatcher creates a patcher.
func NewPatcher(planner *Planner, executor *Executor, log *zap.Logger) *Patcher {
	return &Patcher{planner: planner, executor: executor, log: log}
}

// PatchVulnerabilities plans and applies patches for the given vulnerability
// set under the given strategy. A nil set means "scan first". An empty plan
// short-circuits into a trivial success without touching the executor.
func (p *Patcher) PatchVulnerabilities(ctx context.Context, vulns []vuln.Vulnerability, strategy vuln.Strategy, dryRun bool) (*PatchResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "Patcher.PatchVulnerabilities")
	defer span.End()

	plan, err := p.planner.CreatePlan(ctx, vulns, strategy)
	if err != nil {
		return nil, err
	}

	if len(plan.Updates) == 0 {
		p.log.Info("Nothing to patch")
		return p.executor.Apply(ctx, plan, dryRun)
	}

	p.log.Info("Applying patch plan",
		zap.Int("vulnerabilities", len(plan.Vulnerabilities)),
		zap.Strings("packages", plan.PackageNames()),
		zap.Float64("estimated_minutes", plan.EstimatedDurationMinutes),
		zap.Bool("dry_run", dryRun),
	)
	if plan.RequiresReboot {
		p.log.Warn("Kernel packages in plan, a reboot will be required")
	}

	return p.executor.Apply(ctx, plan, dryRun)
}
