package scheduler

import (
	"testing"
	"time"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

func TestComputeNextRun(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		frequency vuln.Frequency
		want      time.Time
		ok        bool
	}{
		{vuln.FrequencyDaily, now.Add(24 * time.Hour), true},
		{vuln.FrequencyWeekly, now.Add(7 * 24 * time.Hour), true},
		{vuln.FrequencyMonthly, now.Add(30 * 24 * time.Hour), true},
		{vuln.FrequencyCustom, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ComputeNextRun(tt.frequency, now)
		if ok != tt.ok {
			t.Errorf("ComputeNextRun(%s) ok = %v, want %v", tt.frequency, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ComputeNextRun(%s) = %v, want %v", tt.frequency, got, tt.want)
		}
	}
}
