//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"freelancedesk/internal/core"
	ports "freelancedesk/internal/sheets"
)

// Run with: go test -tags=integration ./internal/sheets/google
func TestIntegration_LedgerRoundTrip(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		LedgerSheet:     os.Getenv("GOOGLE_LEDGER_SHEET"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id := uuid.NewString()
	ref, err := client.AppendPayment(ctx, ports.LedgerRow{
		PaymentID:   id,
		OwnerID:     "integration",
		Date:        core.NewDate(2024, 1, 1),
		ClientName:  "Integration Client",
		ProjectName: "Integration Project",
		Amount:      core.Money{Cents: 100},
	})
	if err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	t.Logf("appended at %s", ref)

	rows, err := client.ListPayments(ctx)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	for _, r := range rows {
		if r.PaymentID == id {
			return
		}
	}
	t.Errorf("payment %s not found in ledger", id)
}
