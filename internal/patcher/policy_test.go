package patcher

import (
	"testing"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

func TestShouldPatch(t *testing.T) {
	whitelist := map[string]bool{"nginx": true}
	blacklist := map[string]bool{"postgresql": true, "nginx-blocked": true}

	tests := []struct {
		name        string
		vulnerable  vuln.Vulnerability
		minSeverity vuln.Severity
		strategy    vuln.Strategy
		want        bool
	}{
		{
			name:        "blacklisted never patched",
			vulnerable:  vuln.Vulnerability{Package: "postgresql", Severity: vuln.SeverityCritical},
			minSeverity: vuln.SeverityLow,
			strategy:    vuln.StrategyAutomatic,
			want:        false,
		},
		{
			name:        "whitelisted ignores severity floor",
			vulnerable:  vuln.Vulnerability{Package: "nginx", Severity: vuln.SeverityLow},
			minSeverity: vuln.SeverityCritical,
			strategy:    vuln.StrategyCriticalOnly,
			want:        true,
		},
		{
			name:        "whitelisted ignores manual strategy",
			vulnerable:  vuln.Vulnerability{Package: "nginx", Severity: vuln.SeverityMedium},
			minSeverity: vuln.SeverityMedium,
			strategy:    vuln.StrategyManual,
			want:        true,
		},
		{
			name:        "below severity floor skipped",
			vulnerable:  vuln.Vulnerability{Package: "curl", Severity: vuln.SeverityLow},
			minSeverity: vuln.SeverityMedium,
			strategy:    vuln.StrategyAutomatic,
			want:        false,
		},
		{
			name:        "automatic patches anything above floor",
			vulnerable:  vuln.Vulnerability{Package: "curl", Severity: vuln.SeverityMedium},
			minSeverity: vuln.SeverityMedium,
			strategy:    vuln.StrategyAutomatic,
			want:        true,
		},
		{
			name:        "critical-only accepts critical",
			vulnerable:  vuln.Vulnerability{Package: "openssl", Severity: vuln.SeverityCritical},
			minSeverity: vuln.SeverityMedium,
			strategy:    vuln.StrategyCriticalOnly,
			want:        true,
		},
		{
			name:        "critical-only rejects high",
			vulnerable:  vuln.Vulnerability{Package: "openssl", Severity: vuln.SeverityHigh},
			minSeverity: vuln.SeverityMedium,
			strategy:    vuln.StrategyCriticalOnly,
			want:        false,
		},
		{
			name:        "high-and-above accepts high",
			vulnerable:  vuln.Vulnerability{Package: "curl", Severity: vuln.SeverityHigh},
			minSeverity: vuln.SeverityMedium,
			strategy:    vuln.StrategyHighAndAbove,
			want:        true,
		},
		{
			name:        "high-and-above rejects medium",
			vulnerable:  vuln.Vulnerability{Package: "curl", Severity: vuln.SeverityMedium},
			minSeverity: vuln.SeverityMedium,
			strategy:    vuln.StrategyHighAndAbove,
			want:        false,
		},
		{
			name:        "manual never auto-patches",
			vulnerable:  vuln.Vulnerability{Package: "curl", Severity: vuln.SeverityCritical},
			minSeverity: vuln.SeverityLow,
			strategy:    vuln.StrategyManual,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldPatch(tt.vulnerable, whitelist, blacklist, tt.minSeverity, tt.strategy)
			if got != tt.want {
				t.Errorf("ShouldPatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldPatchBlacklistBeatsWhitelist(t *testing.T) {
	v := vuln.Vulnerability{Package: "redis", Severity: vuln.SeverityCritical}
	both := map[string]bool{"redis": true}
	if ShouldPatch(v, both, both, vuln.SeverityLow, vuln.StrategyAutomatic) {
		t.Error("package on both lists must not be patched")
	}
}
