package google

import (
	"errors"
	"fmt"
	"strings"

	"freelancedesk/internal/core"
	ports "freelancedesk/internal/sheets"
)

// Ledger columns: A date, B client, C project, D amount, E type, F method,
// G notes, H payment id, I owner id.
func rowValues(r ports.LedgerRow) []any {
	return []any{
		r.Date.String(),
		r.ClientName,
		r.ProjectName,
		r.Amount.String(),
		string(r.Type),
		r.Method,
		r.Notes,
		r.PaymentID,
		r.OwnerID,
	}
}

func parseRow(values []any) (ports.LedgerRow, error) {
	cells := make([]string, 9)
	for i := 0; i < len(values) && i < len(cells); i++ {
		cells[i] = strings.TrimSpace(fmt.Sprint(values[i]))
	}
	if cells[7] == "" {
		return ports.LedgerRow{}, errors.New("missing payment id")
	}

	date, err := core.ParseDate(cells[0])
	if err != nil {
		return ports.LedgerRow{}, fmt.Errorf("date %q: %w", cells[0], err)
	}
	cents, err := core.ParseDecimalToCents(strings.ReplaceAll(cells[3], ",", ""))
	if err != nil {
		return ports.LedgerRow{}, fmt.Errorf("amount %q: %w", cells[3], err)
	}

	return ports.LedgerRow{
		Date:        date,
		ClientName:  cells[1],
		ProjectName: cells[2],
		Amount:      core.Money{Cents: cents},
		Type:        core.PaymentType(cells[4]),
		Method:      cells[5],
		Notes:       cells[6],
		PaymentID:   cells[7],
		OwnerID:     cells[8],
	}, nil
}
