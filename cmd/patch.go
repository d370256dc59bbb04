package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

var (
	patchApply    bool
	patchStrategy string
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Scan for vulnerabilities and patch the affected packages",
	Long: `Scan the vulnerability feed, filter the findings through the patch
policy (whitelist, blacklist, severity floor, strategy), and update the
affected packages via apt.

Runs as a dry run by default; pass --apply to actually install updates.
Every real run writes an installation-history record whose id can be used
for rollback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := GetLogger()
		cfg := GetConfig()

		strategy, err := vuln.ParseStrategy(patchStrategy)
		if err != nil {
			return err
		}
		if err := cfg.ValidateScannerFeed(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, cleanup, err := initPatcher(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize patcher: %w", err)
		}
		defer cleanup()

		dryRun := !patchApply
		if dryRun {
			log.Info("Dry run, pass --apply to install updates")
		}

		res, err := p.PatchVulnerabilities(ctx, nil, strategy, dryRun)
		if err != nil {
			return err
		}

		fmt.Printf("Patch run %s\n", res.PatchID)
		fmt.Printf("  Vulnerabilities patched: %d\n", res.VulnerabilitiesPatched)
		fmt.Printf("  Packages updated:        %s\n", formatPackages(res.PackagesUpdated))
		if res.RollbackID != "" {
			fmt.Printf("  Rollback id:             %s\n", res.RollbackID)
		}
		if !res.Success {
			for _, msg := range res.Errors {
				log.Error("Patch error", zap.String("error", msg))
			}
			return fmt.Errorf("patch run completed with %d errors", len(res.Errors))
		}
		return nil
	},
}

func formatPackages(pkgs []string) string {
	if len(pkgs) == 0 {
		return "(none)"
	}
	return strings.Join(pkgs, ", ")
}

func init() {
	patchCmd.Flags().BoolVar(&patchApply, "apply", false, "actually install updates (default is a dry run)")
	patchCmd.Flags().StringVar(&patchStrategy, "strategy", string(vuln.StrategyAutomatic), "patch strategy: automatic, critical_only, high_and_above, manual")
	rootCmd.AddCommand(patchCmd)
}
