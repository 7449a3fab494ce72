// Markd is a semantic bookmark search daemon.
//
// It ingests bookmarks, embeds them, and serves similarity search over an
// HTTP API. Bookmarks can be submitted directly or synced from an external
// bookmark source.
//
// Usage:
//
//	# Start the daemon with defaults
//	markd serve
//
//	# One-shot operations against the local store
//	markd add "some text worth remembering"
//	markd search "distributed consensus"
//	markd sync
//
// Configuration is loaded from ~/.config/markd/config.yaml and MARKD_*
// environment variables. See internal/config for details.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "markd",
	Short: "Semantic bookmark search daemon",
	Long: `markd ingests bookmarks, embeds them with a configurable embedding
provider, and serves similarity search over HTTP. It can also sync bookmarks
from an external source on demand or on a schedule.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("markd\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/markd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// A missing .env file is fine; explicit environment still applies.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
