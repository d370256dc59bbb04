package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/pkgmgr"
	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

var whitelistCmd = &cobra.Command{
	Use:   "whitelist <package>",
	Short: "Always patch a package, regardless of severity or strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg := args[0]
		if err := pkgmgr.ValidatePackageName(pkg); err != nil {
			return err
		}
		filters := config.LoadFilters(GetConfig(), GetLogger())
		if err := filters.AddWhitelist(pkg); err != nil {
			return err
		}
		fmt.Printf("Whitelisted %s\n", pkg)
		return nil
	},
}

var blacklistCmd = &cobra.Command{
	Use:   "blacklist <package>",
	Short: "Never auto-patch a package, even when whitelisted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg := args[0]
		if err := pkgmgr.ValidatePackageName(pkg); err != nil {
			return err
		}
		filters := config.LoadFilters(GetConfig(), GetLogger())
		if err := filters.AddBlacklist(pkg); err != nil {
			return err
		}
		fmt.Printf("Blacklisted %s\n", pkg)
		return nil
	},
}

var severityCmd = &cobra.Command{
	Use:   "severity <level>",
	Short: "Set the minimum severity that gets patched",
	Long: `Set the severity floor: vulnerabilities below this level are skipped
unless their package is whitelisted. Levels: critical, high, medium, low.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sev := vuln.ParseSeverity(args[0])
		if sev == vuln.SeverityUnknown {
			return fmt.Errorf("unknown severity %q (use critical, high, medium, or low)", args[0])
		}
		filters := config.LoadFilters(GetConfig(), GetLogger())
		if err := filters.SetMinSeverity(sev); err != nil {
			return err
		}
		fmt.Printf("Minimum severity set to %s\n", sev)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whitelistCmd, blacklistCmd, severityCmd)
}
