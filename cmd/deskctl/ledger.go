package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"freelancedesk/internal/config"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/services"
	gsheet "freelancedesk/internal/sheets/google"
	"freelancedesk/internal/storage"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and sync the Google Sheets payments ledger",
}

var ledgerSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mirror payments that are not in the ledger yet",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		client := openLedger(cfg)

		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, storage.Options{AutoMigrate: cfg.AutoMigrate})
		if err != nil {
			fail("%v", err)
		}
		defer repo.Close()

		batch, _ := cmd.Flags().GetInt("batch")
		ls := services.NewLedgerSync(repo, client, services.LedgerSyncConfig{BatchSize: batch}, quietLogger(cfg))
		n := ls.Sweep(context.Background())
		fmt.Printf("Mirrored %d payments\n", n)
	},
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the rows currently in the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		rows, err := openLedger(cfg).ListPayments(context.Background())
		if err != nil {
			fail("%v", err)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tCLIENT\tPROJECT\tAMOUNT\tTYPE\tPAYMENT")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Date, r.ClientName, r.ProjectName,
				invoice.FormatAmount(cfg.CurrencySymbol, r.Amount), r.Type, r.PaymentID)
		}
		tw.Flush()
		fmt.Fprintf(os.Stderr, "%d rows\n", len(rows))
	},
}

func openLedger(cfg *config.Config) *gsheet.Client {
	if !cfg.LedgerEnabled() {
		fail("GOOGLE_SPREADSHEET_ID is not set")
	}
	client, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		LedgerSheet:     cfg.GoogleLedgerSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, quietLogger(cfg))
	if err != nil {
		fail("%v", err)
	}
	return client
}

func init() {
	ledgerSweepCmd.Flags().Int("batch", 100, "Maximum payments mirrored in this run")

	ledgerCmd.AddCommand(ledgerSweepCmd)
	ledgerCmd.AddCommand(ledgerListCmd)
}
