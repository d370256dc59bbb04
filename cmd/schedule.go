package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

var (
	scheduleFrequency   string
	scheduleNoScan      bool
	scheduleEnablePatch bool
	scheduleStrategy    string
	scheduleNoDryRun    bool
	scheduleCron        string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage recurring security scan and patch schedules",
}

var scheduleCreateCmd = &cobra.Command{
	Use:   "create [schedule-id]",
	Short: "Create a schedule",
	Long: `Create a recurring schedule. Scanning is on by default; patching is
opt-in and runs as a dry run unless --no-dry-run is set. Custom-frequency
schedules require a five-field cron expression via --cron.

Without an explicit id a time-derived one is generated. Creating with an
existing id replaces that schedule wholesale.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frequency, err := vuln.ParseFrequency(scheduleFrequency)
		if err != nil {
			return err
		}
		strategy, err := vuln.ParseStrategy(scheduleStrategy)
		if err != nil {
			return err
		}

		m, cleanup, err := initScheduler(GetConfig(), GetLogger())
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		defer cleanup()

		var id string
		if len(args) == 1 {
			id = args[0]
		}
		s, err := m.Create(id, frequency, !scheduleNoScan, scheduleEnablePatch, strategy, !scheduleNoDryRun, scheduleCron)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s)\n", s.ID, s.Frequency)
		if s.NextRun != "" {
			fmt.Printf("Next run: %s\n", s.NextRun)
		}
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := initScheduler(GetConfig(), GetLogger())
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		defer cleanup()

		schedules := m.List()
		if len(schedules) == 0 {
			fmt.Println("No schedules configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFREQUENCY\tSCAN\tPATCH\tSTRATEGY\tDRY RUN\tLAST RUN\tNEXT RUN")
		for _, s := range schedules {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%s\t%v\t%s\t%s\n",
				s.ID, s.Frequency, s.ScanEnabled, s.PatchEnabled, s.PatchStrategy, s.DryRun,
				orDash(s.LastRun), orDash(s.NextRun))
		}
		return w.Flush()
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run <schedule-id>",
	Short: "Run a schedule once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := GetLogger()
		cfg := GetConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m, cleanup, err := initScheduler(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		defer cleanup()

		res, err := m.Run(ctx, args[0])
		if err != nil {
			return err
		}

		if res.Scanned {
			fmt.Printf("Vulnerabilities found: %d (critical %d, high %d, medium %d, low %d)\n",
				res.Summary.Total, res.Summary.Critical, res.Summary.High, res.Summary.Medium, res.Summary.Low)
		}
		if res.Patch != nil {
			fmt.Printf("Patched %d vulnerabilities across %d packages\n",
				res.Patch.VulnerabilitiesPatched, len(res.Patch.PackagesUpdated))
		}
		if !res.Success {
			for _, msg := range res.Errors {
				log.Error("Patch error", zap.String("error", msg))
			}
			return fmt.Errorf("schedule run completed with %d patch errors", len(res.Errors))
		}
		return nil
	},
}

var scheduleInstallTimerCmd = &cobra.Command{
	Use:   "install-timer <schedule-id>",
	Short: "Install a systemd timer driving a schedule",
	Long: `Write a systemd service and timer unit for the schedule and enable
the timer. Requires root or passwordless sudo.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := initScheduler(GetConfig(), GetLogger())
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		defer cleanup()

		if err := m.InstallTimer(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Installed timer for %s\n", args[0])
		return nil
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete <schedule-id>",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := initScheduler(GetConfig(), GetLogger())
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		defer cleanup()

		if err := m.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	scheduleCreateCmd.Flags().StringVar(&scheduleFrequency, "frequency", string(vuln.FrequencyDaily), "daily, weekly, monthly, or custom")
	scheduleCreateCmd.Flags().BoolVar(&scheduleNoScan, "no-scan", false, "disable the vulnerability scan step")
	scheduleCreateCmd.Flags().BoolVar(&scheduleEnablePatch, "enable-patch", false, "enable the patch step")
	scheduleCreateCmd.Flags().StringVar(&scheduleStrategy, "strategy", string(vuln.StrategyHighAndAbove), "patch strategy for the patch step")
	scheduleCreateCmd.Flags().BoolVar(&scheduleNoDryRun, "no-dry-run", false, "actually install updates during scheduled runs")
	scheduleCreateCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression for custom frequency")

	scheduleCmd.AddCommand(scheduleCreateCmd, scheduleListCmd, scheduleRunCmd, scheduleInstallTimerCmd, scheduleDeleteCmd)
	rootCmd.AddCommand(scheduleCmd)
}
