package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

const systemdUnitDir = "/etc/systemd/system"

var serviceTemplate = template.Must(template.New("service").Parse(`[Unit]
Description=Cortex security schedule {{.ID}}
After=network-online.target
Wants=network-online.target

[Service]
Type=oneshot
ExecStart=/usr/bin/cortex-patch schedule run {{.ID}}

[Install]
WantedBy=multi-user.target
`))

var timerTemplate = template.Must(template.New("timer").Parse(`[Unit]
Description=Timer for Cortex security schedule {{.ID}}

[Timer]
OnCalendar={{.OnCalendar}}
Persistent=true

[Install]
WantedBy=timers.target
`))

// onCalendar maps a schedule frequency to a systemd OnCalendar value.
// Custom schedules fall back to monthly; systemd calendar syntax is not
// cron, so the expression cannot be carried over verbatim.
func onCalendar(f vuln.Frequency) string {
	switch f {
	case vuln.FrequencyDaily:
		return "daily"
	case vuln.FrequencyWeekly:
		return "weekly"
	}
	return "monthly"
}

func unitName(id string) string {
	return "cortex-security-" + id
}

type unitData struct {
	ID         string
	OnCalendar string
}

func renderServiceUnit(s *Schedule) (string, error) {
	var buf bytes.Buffer
	if err := serviceTemplate.Execute(&buf, unitData{ID: s.ID}); err != nil {
		return "", fmt.Errorf("failed to render service unit: %w", err)
	}
	return buf.String(), nil
}

func renderTimerUnit(s *Schedule) (string, error) {
	var buf bytes.Buffer
	if err := timerTemplate.Execute(&buf, unitData{ID: s.ID, OnCalendar: onCalendar(s.Frequency)}); err != nil {
		return "", fmt.Errorf("failed to render timer unit: %w", err)
	}
	return buf.String(), nil
}

// checkPrivileges verifies root or passwordless sudo before any unit file is
// written, so a failed install never leaves a half-configured timer behind.
func checkPrivileges(ctx context.Context) error {
	if os.Geteuid() == 0 {
		return nil
	}
	if err := exec.CommandContext(ctx, "sudo", "-n", "true").Run(); err != nil {
		return fmt.Errorf("installing a systemd timer requires root or passwordless sudo")
	}
	return nil
}

// InstallTimer writes a systemd service and timer unit for the schedule and
// enables the timer.
func (m *Manager) InstallTimer(ctx context.Context, id string) error {
	s, ok := m.schedules[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := checkPrivileges(ctx); err != nil {
		return err
	}

	service, err := renderServiceUnit(s)
	if err != nil {
		return err
	}
	timer, err := renderTimerUnit(s)
	if err != nil {
		return err
	}

	name := unitName(id)
	if err := writeUnit(ctx, filepath.Join(systemdUnitDir, name+".service"), service); err != nil {
		return err
	}
	if err := writeUnit(ctx, filepath.Join(systemdUnitDir, name+".timer"), timer); err != nil {
		return err
	}

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", name + ".timer"},
		{"start", name + ".timer"},
	} {
		if err := systemctl(ctx, args...); err != nil {
			return err
		}
	}

	m.log.Info("Systemd timer installed",
		zap.String("schedule_id", id),
		zap.String("timer", name+".timer"),
	)
	return nil
}

// writeUnit writes a unit file, going through sudo tee when not running as
// root.
func writeUnit(ctx context.Context, path, content string) error {
	if os.Geteuid() == 0 {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}

	cmd := exec.CommandContext(ctx, "sudo", "-n", "tee", path)
	cmd.Stdin = bytes.NewBufferString(content)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to write %s: %s", path, string(out))
	}
	return nil
}

func systemctl(ctx context.Context, args ...string) error {
	if os.Geteuid() != 0 {
		args = append([]string{"-n", "systemctl"}, args...)
		if out, err := exec.CommandContext(ctx, "sudo", args...).CombinedOutput(); err != nil {
			return fmt.Errorf("systemctl %v failed: %s", args[2:], string(out))
		}
		return nil
	}
	if out, err := exec.CommandContext(ctx, "systemctl", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl %v failed: %s", args, string(out))
	}
	return nil
}
