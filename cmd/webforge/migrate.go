package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Open the database, apply any pending migrations and print the schema version.

Examples:
  webforge migrate
  webforge migrate --db ./dev.db`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	version, err := a.store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	fmt.Printf("Database: %s\n", a.store.Path())
	fmt.Printf("Schema version: %d\n", version)
	return nil
}
