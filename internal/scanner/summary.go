package scanner

import "github.com/cortexlinux/cortex-patch-go/internal/vuln"

// Summary counts vulnerabilities per severity tier.
type Summary struct {
	Total    int `json:"vulnerabilities_found"`
	Critical int `json:"critical_count"`
	High     int `json:"high_count"`
	Medium   int `json:"medium_count"`
	Low      int `json:"low_count"`
	Unknown  int `json:"unknown_count"`
}

// Summarize tallies a vulnerability set by severity tier.
func Summarize(vulns []vuln.Vulnerability) Summary {
	s := Summary{Total: len(vulns)}
	for _, v := range vulns {
		switch v.Severity {
		case vuln.SeverityCritical:
			s.Critical++
		case vuln.SeverityHigh:
			s.High++
		case vuln.SeverityMedium:
			s.Medium++
		case vuln.SeverityLow:
			s.Low++
		default:
			s.Unknown++
		}
	}
	return s
}
