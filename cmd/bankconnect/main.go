// Bankconnect connects to bank nodes and keeps track of the ones you use.
//
// Running without arguments launches the interactive connect screen. The
// connect, banks and scan commands do the same work without the TUI.
//
// Usage:
//
//	bankconnect [command] [flags]
//
// See 'bankconnect --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/bankconnect/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bankconnect",
	Short: "Connect to bank nodes",
	Long: `A terminal client for bank nodes.

Enter a bank's protocol, IP address and port to connect. Connected banks are
remembered locally so you can list them, resume the last one, or remove them.

If no command is specified, the interactive connect screen launches.`,
	Version: version.Version,
	RunE:    runTUI,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bankconnect %s\n", version.Full())
		fmt.Printf("  %s\n", version.Platform())
	},
}
