// Package vuln defines the vulnerability domain model shared by the scanner,
// patcher and scheduler: severities with a total order, patch strategies and
// schedule frequencies.
package vuln

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is a normalized vulnerability severity level.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = "unknown"
)

// Rank maps a severity to its position in the total order. Higher is more
// severe; unknown ranks below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// ParseSeverity normalizes free-form severity text. Feed vocabularies vary;
// "moderate" folds into medium and anything unrecognized is unknown rather
// than an error.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	case "low":
		return SeverityLow
	}
	return SeverityUnknown
}

// UnmarshalJSON normalizes severities as they come off the wire.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseSeverity(raw)
	return nil
}

// Strategy selects which vulnerabilities are auto-patched.
type Strategy string

const (
	// StrategyAutomatic patches everything at or above the severity floor.
	StrategyAutomatic Strategy = "automatic"
	// StrategyCriticalOnly patches only critical vulnerabilities.
	StrategyCriticalOnly Strategy = "critical_only"
	// StrategyHighAndAbove patches high and critical vulnerabilities.
	StrategyHighAndAbove Strategy = "high_and_above"
	// StrategyManual never auto-patches; whitelisted packages still go.
	StrategyManual Strategy = "manual"
)

// ParseStrategy parses a strategy name. Unlike severities there is no safe
// fallback, so unknown names are an error.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyAutomatic:
		return StrategyAutomatic, nil
	case StrategyCriticalOnly:
		return StrategyCriticalOnly, nil
	case StrategyHighAndAbove:
		return StrategyHighAndAbove, nil
	case StrategyManual:
		return StrategyManual, nil
	}
	return "", fmt.Errorf("unknown patch strategy %q", s)
}

// Frequency is how often a schedule runs.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	// FrequencyCustom uses a cron expression; the schedule carries no
	// precomputed next-run time.
	FrequencyCustom Frequency = "custom"
)

// ParseFrequency parses a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	case FrequencyCustom:
		return FrequencyCustom, nil
	}
	return "", fmt.Errorf("unknown schedule frequency %q", s)
}

// Vulnerability is one scanner finding: a CVE affecting one package.
type Vulnerability struct {
	CVE         string   `json:"cve_id"`
	Package     string   `json:"package"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description,omitempty"`
}
