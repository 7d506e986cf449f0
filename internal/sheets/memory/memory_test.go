package memory

import (
	"context"
	"testing"

	ports "freelancedesk/internal/sheets"
)

func TestLedger(t *testing.T) {
	l := New()
	ctx := context.Background()

	ref, err := l.AppendPayment(ctx, ports.LedgerRow{PaymentID: "p1"})
	if err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}
	if _, err := l.AppendPayment(ctx, ports.LedgerRow{}); err == nil {
		t.Error("row without payment id should be rejected")
	}

	rows, _ := l.ListPayments(ctx)
	rows[0].PaymentID = "mutated"
	again, _ := l.ListPayments(ctx)
	if again[0].PaymentID != "p1" {
		t.Error("ListPayments must return a copy")
	}
}
