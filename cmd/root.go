// Package cmd holds the froyo command-line interface. Every subcommand
// stages jobs on a shared engine and waits for them to settle; --tui swaps
// the plain log output for a live status list.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set via ldflags during build.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "froyo",
	Short: "A bulk downloader for the Archive of Our Own",
	Long: `froyo downloads works from the Archive of Our Own in bulk: single
works, whole series, everything a user has posted or bookmarked, or the
results of any archive listing page.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("base-dir", "", "directory for settings, logs and state (default: working directory)")
	rootCmd.PersistentFlags().Bool("tui", false, "show a live status list instead of plain logs")
	rootCmd.PersistentFlags().Bool("load-only", false, "stage and load works without downloading them")
	rootCmd.SetVersionTemplate("froyo version {{.Version}}\n")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(settingsCmd)
}
