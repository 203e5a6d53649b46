// Command patomic reports how the patomic cells are served on the running
// machine and stress-tests them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "patomic",
		Short:         "Inspect and exercise portable wide atomics",
		Long:          "Report the atomic capabilities detected on this CPU and run concurrency checks against 64-bit and 128-bit cells.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newInfoCmd(), newStressCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "patomic:", err)
		os.Exit(1)
	}
}
