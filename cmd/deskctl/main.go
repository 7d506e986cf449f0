package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"freelancedesk/internal/cli"
	"freelancedesk/internal/config"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/log"
	"freelancedesk/internal/services"
	"freelancedesk/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "deskctl",
	Short: "Operator tools for freelancedesk",
	Long: `deskctl manages the freelancedesk database and produces reports,
invoices and exports from the command line.

Settings come from the same environment variables (or .env file) as the
server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
	},
}

// loadConfig reads the environment, letting --db override SQLITE_DB_PATH.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.SQLiteDBPath = db
	}
	return cfg
}

func quietLogger(cfg *config.Config) *log.Logger {
	return log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Output: os.Stderr, Component: log.ComponentApp})
}

// openServices opens the database and builds the services without a
// publisher; commands never queue side effects.
func openServices(cfg *config.Config) (*services.Services, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, storage.Options{AutoMigrate: cfg.AutoMigrate})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	renderer, err := invoice.NewRenderer(cfg.CurrencySymbol)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("load invoice templates: %w", err)
	}
	return services.New(repo, services.Options{
		Logger:   quietLogger(cfg),
		Renderer: renderer,
	}), nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: SQLITE_DB_PATH)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(invoiceCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
