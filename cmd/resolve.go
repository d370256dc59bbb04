package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cortexlinux/cortex-patch-go/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <conflict.json>",
	Short: "Suggest resolutions for a dependency version conflict",
	Long: `Read a JSON conflict description and print resolution strategies.

The input document has the shape:
  {"dependency": "lib-x",
   "package_a": {"name": "pkg-a", "requires": "^2.0.0"},
   "package_b": {"name": "pkg-b", "requires": "~1.9.0"}}

Pass - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if args[0] == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read conflict: %w", err)
		}

		var conflict resolver.Conflict
		if err := json.Unmarshal(raw, &conflict); err != nil {
			return fmt.Errorf("failed to parse conflict: %w", err)
		}

		strategies, err := resolver.Resolve(conflict)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(strategies)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
