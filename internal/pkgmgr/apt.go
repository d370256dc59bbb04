// Package pkgmgr wraps the system package manager behind a narrow gateway so
// planning and execution logic can be tested without apt.
package pkgmgr

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
)

// NoCandidate is the sentinel apt-cache prints when a package has no
// installable candidate version.
const NoCandidate = "(none)"

// CmdResult reduces an external command to success plus captured output.
// External command failures (non-zero exit, timeout, spawn failure) are never
// surfaced as Go errors; they land here.
type CmdResult struct {
	OK     bool
	Stdout string
	Stderr string
}

// Gateway is the abstracted package-manager capability: one method per
// external action.
type Gateway interface {
	// Refresh updates the package index (apt-get update).
	Refresh(ctx context.Context) CmdResult
	// CandidateVersion looks up the installable candidate version for a
	// package. ok is false when the package has no usable candidate.
	CandidateVersion(ctx context.Context, pkg string) (version string, ok bool)
	// Install installs a package, pinned to version when non-empty.
	Install(ctx context.Context, pkg, version string) CmdResult
}

// AptGateway shells out to apt-get/apt-cache.
type AptGateway struct {
	cfg *config.Config
	log *zap.Logger
}

// NewAptGateway creates an apt-backed gateway.
func NewAptGateway(cfg *config.Config, log *zap.Logger) *AptGateway {
	return &AptGateway{cfg: cfg, log: log}
}

// Refresh runs apt-get update.
func (g *AptGateway) Refresh(ctx context.Context) CmdResult {
	g.log.Info("Updating package index")
	return g.run(ctx, g.cfg.Apt.GetPath, "update", "-qq")
}

// CandidateVersion runs apt-cache policy and parses the Candidate line.
func (g *AptGateway) CandidateVersion(ctx context.Context, pkg string) (string, bool) {
	if err := ValidatePackageName(pkg); err != nil {
		g.log.Warn("Refusing candidate lookup for invalid package name", zap.Error(err))
		return "", false
	}

	res := g.run(ctx, g.cfg.Apt.CachePath, "policy", pkg)
	if !res.OK {
		g.log.Warn("Candidate lookup failed",
			zap.String("package", pkg),
			zap.String("stderr", res.Stderr),
		)
		return "", false
	}
	return ParseCandidate(res.Stdout)
}

// ParseCandidate scans apt-cache policy output line by line for the
// "Candidate:" marker. The value after the first colon, trimmed, is the
// candidate version, unless it is empty or the (none) sentinel.
func ParseCandidate(stdout string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		if !strings.Contains(line, "Candidate:") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) < 2 {
			continue
		}
		version := strings.TrimSpace(parts[1])
		if version == "" || version == NoCandidate {
			return "", false
		}
		return version, true
	}
	return "", false
}

// Install runs apt-get install, pinned to an exact version when one is known.
func (g *AptGateway) Install(ctx context.Context, pkg, version string) CmdResult {
	if err := ValidatePackageName(pkg); err != nil {
		return CmdResult{OK: false, Stderr: err.Error()}
	}

	target := pkg
	if version != "" {
		target = pkg + "=" + version
	}
	g.log.Info("Installing package", zap.String("package", pkg), zap.String("version", version))
	return g.run(ctx, g.cfg.Apt.GetPath, "install", "-y", target)
}

// run executes an external command bounded by the configured timeout and
// reduces the outcome to a CmdResult.
func (g *AptGateway) run(ctx context.Context, name string, args ...string) CmdResult {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.Apt.Timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: package names are validated before reaching here

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		msg := stderr.String()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = "command timed out"
		} else if msg == "" {
			msg = err.Error()
		}
		return CmdResult{OK: false, Stdout: stdout.String(), Stderr: msg}
	}
	return CmdResult{OK: true, Stdout: stdout.String(), Stderr: stderr.String()}
}
