package invoice

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"freelancedesk/internal/core"
)

// LineItem is one row of the invoice table.
type LineItem struct {
	Description string           `json:"description"`
	Amount      core.Money       `json:"amount"`
	Date        core.Date        `json:"date"`
	PaymentType core.PaymentType `json:"paymentType,omitempty"`
}

// Data is the contract every theme renders.
type Data struct {
	Number  string       `json:"invoiceNumber"`
	Date    core.Date    `json:"date"`
	Client  core.Client  `json:"client"`
	Project core.Project `json:"project"`
	Items   []LineItem   `json:"items"`
	Total   core.Money   `json:"totalAmount"`
	Paid    core.Money   `json:"paidAmount"`
	Pending core.Money   `json:"pendingAmount"`
	Notes   string       `json:"notes,omitempty"`
}

// Build assembles invoice data for a project. Payments become line items in
// the given order; a project without payments is billed as one item for its
// total. Pending is clamped at zero.
func Build(project core.Project, client core.Client, payments []core.Payment, issued time.Time) Data {
	d := Data{
		Number:  Number(project.ID, issued),
		Date:    core.NewDate(issued.Year(), int(issued.Month()), issued.Day()),
		Client:  client,
		Project: project,
		Total:   project.TotalAmount,
	}
	for _, p := range payments {
		if p.ProjectID != project.ID {
			continue
		}
		d.Items = append(d.Items, LineItem{
			Description: itemDescription(project, p),
			Amount:      p.Amount,
			Date:        p.Date,
			PaymentType: p.PaymentType,
		})
		d.Paid = d.Paid.Add(p.Amount)
	}
	if len(d.Items) == 0 {
		d.Items = []LineItem{{Description: project.Name, Amount: project.TotalAmount}}
	}
	d.Pending = project.TotalAmount.Sub(d.Paid).ClampZero()
	return d
}

func itemDescription(project core.Project, p core.Payment) string {
	if s := strings.TrimSpace(p.Notes); s != "" {
		return s
	}
	switch p.PaymentType {
	case core.PaymentAdvance:
		return project.Name + " - advance payment"
	case core.PaymentPartial:
		return project.Name + " - partial payment"
	case core.PaymentFinal:
		return project.Name + " - final payment"
	}
	return project.Name + " - payment"
}

// Number derives a stable invoice number from the project id and issue month,
// e.g. INV-202403-8F3A.
func Number(projectID string, issued time.Time) string {
	var suffix []rune
	for _, r := range strings.ToUpper(projectID) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			suffix = append(suffix, r)
		}
		if len(suffix) == 4 {
			break
		}
	}
	for len(suffix) < 4 {
		suffix = append(suffix, '0')
	}
	return fmt.Sprintf("INV-%s-%s", issued.Format("200601"), string(suffix))
}
