package vuln

import (
	"encoding/json"
	"testing"
)

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SeverityUnknown, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("%s.Rank() = %d, must be above %s.Rank() = %d",
				ordered[i], ordered[i].Rank(), ordered[i-1], ordered[i-1].Rank())
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", SeverityCritical},
		{"CRITICAL", SeverityCritical},
		{"  High ", SeverityHigh},
		{"medium", SeverityMedium},
		{"moderate", SeverityMedium},
		{"low", SeverityLow},
		{"negligible", SeverityUnknown},
		{"", SeverityUnknown},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for _, valid := range []string{"automatic", "critical_only", "high_and_above", "manual"} {
		if _, err := ParseStrategy(valid); err != nil {
			t.Errorf("ParseStrategy(%q): %v", valid, err)
		}
	}
	if _, err := ParseStrategy("aggressive"); err == nil {
		t.Error("ParseStrategy with unknown name expected error")
	}
}

func TestParseFrequency(t *testing.T) {
	for _, valid := range []string{"daily", "weekly", "monthly", "custom"} {
		if _, err := ParseFrequency(valid); err != nil {
			t.Errorf("ParseFrequency(%q): %v", valid, err)
		}
	}
	if _, err := ParseFrequency("hourly"); err == nil {
		t.Error("ParseFrequency with unknown name expected error")
	}
}

func TestVulnerabilityJSONNormalizesSeverity(t *testing.T) {
	var v Vulnerability
	raw := `{"cve_id":"CVE-2024-1234","package":"openssl","severity":"Moderate","description":"heap overflow"}`
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.Severity != SeverityMedium {
		t.Errorf("Severity = %v, want medium", v.Severity)
	}
	if v.CVE != "CVE-2024-1234" || v.Package != "openssl" {
		t.Errorf("unexpected vulnerability: %+v", v)
	}
}
