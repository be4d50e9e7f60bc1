package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information, stamped at build time.
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "igextract",
	Short: "Extract public Instagram profile, post, reel and comment data",
	Long: `igextract extracts public profile, post, reel and comment data from
Instagram through a rate-respecting, proxy-aware session engine.

Each extraction runs as an isolated session: one sticky proxy identity,
one cookie jar, one sliding-window rate limiter. The structured API is
tried first; a headless browser takes over when the API path is denied
or its schema shifts. Records are exported as NDJSON with a per-target
run summary.

Credentials can be configured through:
  - Stored accounts ('igextract auth login')
  - Environment variables (IGEXTRACT_SESSION_ID, IGEXTRACT_CSRF_TOKEN)
  - A configuration file ('igextract config init')`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .igextract.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append JSON log lines to this file")

	rootCmd.SetVersionTemplate(`igextract {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
