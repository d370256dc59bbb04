package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexlinux/cortex-patch-go/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the installation history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show <install-id>",
	Short: "Show one installation record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(GetConfig(), GetLogger())
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Installation %s\n", rec.ID)
		fmt.Printf("  Type:     %s\n", rec.Type)
		fmt.Printf("  Status:   %s\n", rec.Status)
		fmt.Printf("  Started:  %s\n", rec.StartedAt.Format(time.RFC3339))
		fmt.Printf("  Packages: %s\n", strings.Join(rec.Packages, ", "))
		for _, c := range rec.Commands {
			fmt.Printf("  Command:  %s\n", c)
		}
		if rec.Error != "" {
			fmt.Printf("  Error:    %s\n", rec.Error)
		}
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
