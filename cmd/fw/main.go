// fw monitors file open/close operations across all running processes
// using eBPF kernel probes.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fw",
	Short: "Monitor file operations using eBPF",
	Long: `fw monitors file open/close operations across all running processes
on the system with minimal overhead, using eBPF kernel probes. Events
are written to stderr, one line per operation, keeping stdout free for
other uses.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("fw " + version + " (" + commit + ")\n")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(newCollectCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
