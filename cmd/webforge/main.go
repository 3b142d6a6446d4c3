// Webforge - A browser-based builder for single-file React apps
// with a rule-driven coding assistant
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	configPath string
	dbPath     string
	userID     string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "webforge",
	Short: "Build web apps by chatting with a coding assistant",
	Long: `Webforge hosts projects, editor sessions and a rule-driven coding
assistant behind an HTTP API, backed by a local SQLite database.

Examples:
  # Start the API server
  webforge serve

  # Create an account and a project
  webforge signup ada@example.com "Ada Lovelace"
  webforge projects create "My Site" --user <user-id>

  # Ask the assistant for a change
  webforge chat <project-id> "add a contact form" --user <user-id>`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml or ~/.webforge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", os.Getenv("WEBFORGE_USER"), "Acting user ID")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(ticketsCmd)
}
