package patcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/history"
	"github.com/cortexlinux/cortex-patch-go/internal/pkgmgr"
	"github.com/cortexlinux/cortex-patch-go/internal/telemetry"
)

// Executor applies patch plans, either as a dry run or for real. Concurrent
// real executions are not serialized here; callers race on the system package
// manager's own lock.
type Executor struct {
	cfg     *config.Config
	log     *zap.Logger
	gw      pkgmgr.Gateway
	history history.Store
}

// NewExecutor creates an executor.
func NewExecutor(cfg *config.Config, log *zap.Logger, gw pkgmgr.Gateway, hist history.Store) *Executor {
	return &Executor{cfg: cfg, log: log, gw: gw, history: hist}
}

// newPatchID derives a patch identifier from the wall clock. Uniqueness is
// only guaranteed at second granularity; rapid repeated calls can collide.
func newPatchID(now time.Time) string {
	return fmt.Sprintf("patch_%d", now.Unix())
}

// Apply executes a plan. Dry runs perform no external calls and cannot fail.
// Real runs record an installation-history entry up front (its id becomes
// the rollback id), refresh the index, then install each package in plan
// order, continuing past individual failures and aggregating their errors.
//
// The returned error is non-nil only when the history record could not be
// created; before that point no rollback linkage exists. Every later
// failure is captured in the result with the rollback id set.
func (e *Executor) Apply(ctx context.Context, plan *PatchPlan, dryRun bool) (*PatchResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "Executor.Apply")
	defer span.End()

	now := time.Now()
	result := &PatchResult{
		PatchID:   newPatchID(now),
		Timestamp: now,
	}

	if len(plan.Updates) == 0 {
		result.Success = true
		return result, nil
	}

	if dryRun {
		e.log.Info("Dry run - no packages will be updated", zap.Int("packages", len(plan.Updates)))
		for _, u := range plan.Updates {
			e.log.Info("Would update package",
				zap.String("package", u.Name),
				zap.String("version", u.TargetVersion),
			)
		}
		result.PackagesUpdated = plan.PackageNames()
		result.VulnerabilitiesPatched = len(plan.Vulnerabilities)
		result.Success = true
		return result, nil
	}

	packages := plan.PackageNames()
	if err := pkgmgr.SanitizePackages(packages); err != nil {
		return nil, err
	}
	commands := []string{
		e.cfg.Apt.GetPath + " update -qq",
		e.cfg.Apt.GetPath + " install -y " + strings.Join(packages, " "),
	}

	installID, err := e.history.Record(ctx, history.TypeUpgrade, packages, commands, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record installation history: %w", err)
	}
	result.RollbackID = installID

	var errs []string
	var updated []string

	if res := e.gw.Refresh(ctx); !res.OK {
		errs = append(errs, fmt.Sprintf("failed to update package list: %s", res.Stderr))
	}

	for _, u := range plan.Updates {
		e.log.Info("Updating package",
			zap.String("package", u.Name),
			zap.String("version", u.TargetVersion),
		)
		res := e.gw.Install(ctx, u.Name, u.TargetVersion)
		if res.OK {
			updated = append(updated, u.Name)
			continue
		}
		msg := fmt.Sprintf("failed to update %s: %s", u.Name, res.Stderr)
		errs = append(errs, msg)
		e.log.Error("Package update failed", zap.String("package", u.Name), zap.String("stderr", res.Stderr))
	}

	var histErr error
	if len(errs) > 0 {
		histErr = e.history.Update(ctx, installID, history.StatusFailed, strings.Join(errs, "\n"))
	} else {
		histErr = e.history.Update(ctx, installID, history.StatusSuccess, "")
	}
	if histErr != nil {
		// The install loop ran but its outcome could not be persisted;
		// report a degraded result that still carries the rollback id so
		// the caller can inspect the stale history record.
		e.log.Error("Failed to update installation record", zap.Error(histErr))
		result.Errors = append(errs, fmt.Sprintf("patch operation failed: %v", histErr))
		result.Success = false
		return result, nil
	}

	result.PackagesUpdated = updated
	result.VulnerabilitiesPatched = len(plan.Vulnerabilities)
	result.Errors = errs
	result.Success = len(errs) == 0
	result.Duration = time.Since(now)

	if result.Success {
		e.log.Info("Patch complete",
			zap.Int("packages_updated", len(updated)),
			zap.Duration("duration", result.Duration),
		)
	} else {
		e.log.Error("Patch failed", zap.Int("errors", len(errs)))
	}
	return result, nil
}
