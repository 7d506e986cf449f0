// Package export writes an owner's records as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"freelancedesk/internal/analytics"
	"freelancedesk/internal/core"
)

// Collection names an exportable record set.
type Collection string

const (
	Payments Collection = "payments"
	Clients  Collection = "clients"
	Projects Collection = "projects"
)

func ParseCollection(s string) (Collection, error) {
	switch c := Collection(strings.ToLower(strings.TrimSpace(s))); c {
	case Payments, Clients, Projects:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown export %q", core.ErrValidation, s)
}

var headers = map[Collection][]string{
	Payments: {"date", "client", "project", "amount", "payment_type", "payment_method", "notes", "id"},
	Clients:  {"name", "email", "phone", "notes", "created_at", "id"},
	Projects: {"name", "client", "status", "total_amount", "paid", "pending", "deadline", "completed_date", "created_at", "id"},
}

// Write encodes one collection of ds. A non-zero month keeps only the
// records of that calendar month: payments by date, clients and projects by
// creation time. It returns the number of data rows written.
func Write(w io.Writer, c Collection, ds analytics.Dataset, month time.Time) (int, error) {
	header, ok := headers[c]
	if !ok {
		return 0, fmt.Errorf("%w: unknown export %q", core.ErrValidation, c)
	}
	ix := analytics.NewIndex(ds.Clients, ds.Projects, ds.Payments)

	var rows [][]string
	switch c {
	case Payments:
		rows = paymentRows(ix, monthOf(ds.Payments, month, analytics.PaymentDate))
	case Clients:
		rows = clientRows(monthOf(ds.Clients, month, analytics.ClientCreated))
	case Projects:
		rows = projectRows(ix, monthOf(ds.Projects, month, analytics.ProjectCreated))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	if err := cw.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("write %s csv: %w", c, err)
	}
	return len(rows), nil
}

func monthOf[T any](records []T, month time.Time, at func(T) time.Time) []T {
	if month.IsZero() {
		return records
	}
	return analytics.FilterByMonth(records, month, at)
}

func paymentRows(ix *analytics.Index, payments []core.Payment) [][]string {
	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		var clientName, projectName string
		if proj, ok := ix.Project(p.ProjectID); ok {
			projectName = proj.Name
		}
		if cl, ok := ix.ClientOf(p); ok {
			clientName = cl.Name
		}
		rows = append(rows, []string{
			p.Date.String(),
			text(clientName),
			text(projectName),
			p.Amount.String(),
			string(p.PaymentType),
			text(p.PaymentMethod),
			text(p.Notes),
			p.ID,
		})
	}
	return rows
}

func clientRows(clients []core.Client) [][]string {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			text(c.Name),
			text(c.Email),
			text(c.Phone),
			text(c.Notes),
			timestamp(c.CreatedAt),
			c.ID,
		})
	}
	return rows
}

func projectRows(ix *analytics.Index, projects []core.Project) [][]string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		var clientName string
		if cl, ok := ix.Client(p.ClientID); ok {
			clientName = cl.Name
		}
		rows = append(rows, []string{
			text(p.Name),
			text(clientName),
			string(p.Status),
			p.TotalAmount.String(),
			ix.Paid(p.ID).String(),
			ix.Pending(p).ClampZero().String(),
			p.Deadline.String(),
			p.CompletedDate.String(),
			timestamp(p.CreatedAt),
			p.ID,
		})
	}
	return rows
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// text neutralises cells a spreadsheet would evaluate as a formula.
func text(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
