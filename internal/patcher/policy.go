package patcher

import "github.com/cortexlinux/cortex-patch-go/internal/vuln"

// ShouldPatch decides whether a single vulnerability gets patched. The four
// checks run in a fixed order and the first one that decides wins:
//
//  1. blacklisted packages are never auto-patched (blacklist beats whitelist)
//  2. whitelisted packages are always patched
//  3. severities below the floor are skipped
//  4. the strategy decides the rest
//
// Pure and total: no side effects, every input combination yields a bool.
func ShouldPatch(v vuln.Vulnerability, whitelist, blacklist map[string]bool, minSeverity vuln.Severity, strategy vuln.Strategy) bool {
	if blacklist[v.Package] {
		return false
	}
	if whitelist[v.Package] {
		return true
	}
	if v.Severity.Rank() < minSeverity.Rank() {
		return false
	}

	switch strategy {
	case vuln.StrategyAutomatic:
		return true
	case vuln.StrategyCriticalOnly:
		return v.Severity == vuln.SeverityCritical
	case vuln.StrategyHighAndAbove:
		return v.Severity == vuln.SeverityCritical || v.Severity == vuln.SeverityHigh
	case vuln.StrategyManual:
		return false
	}
	return false
}
