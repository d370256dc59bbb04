package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cortexlinux/cortex-patch-go/internal/scanner"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for vulnerabilities without patching",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := GetLogger()
		cfg := GetConfig()

		if err := cfg.ValidateScannerFeed(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := initScanner(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize scanner: %w", err)
		}

		vulns, err := s.Scan(ctx)
		if err != nil {
			return err
		}
		summary := scanner.Summarize(vulns)

		if scanJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		fmt.Printf("Vulnerabilities found: %d\n", summary.Total)
		fmt.Printf("  Critical: %d\n", summary.Critical)
		fmt.Printf("  High:     %d\n", summary.High)
		fmt.Printf("  Medium:   %d\n", summary.Medium)
		fmt.Printf("  Low:      %d\n", summary.Low)
		if summary.Unknown > 0 {
			fmt.Printf("  Unknown:  %d\n", summary.Unknown)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(scanCmd)
}
