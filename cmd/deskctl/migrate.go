package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"freelancedesk/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			fail("%v", err)
		}
		printVersion(cfg.SQLiteDBPath)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		steps, _ := cmd.Flags().GetInt("steps")
		if err := storage.RollbackMigrations(cfg.SQLiteDBPath, steps); err != nil {
			fail("%v", err)
		}
		printVersion(cfg.SQLiteDBPath)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(loadConfig(cmd).SQLiteDBPath)
	},
}

func printVersion(dbPath string) {
	version, dirty, err := storage.SchemaVersion(dbPath)
	if err != nil {
		fail("%v", err)
	}
	state := "clean"
	if dirty {
		state = "dirty (fix the failed migration, then force the version)"
	}
	fmt.Printf("Schema version: %d (%s)\n", version, state)
}

func init() {
	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to revert")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}
