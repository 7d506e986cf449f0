// Package google mirrors payments into a Google Sheets ledger using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"freelancedesk/internal/log"
	ports "freelancedesk/internal/sheets"
)

// valuesAPI is the part of the Sheets values service the ledger uses.
type valuesAPI interface {
	Append(ctx context.Context, spreadsheetID, rng string, vr *gsheet.ValueRange) (updatedRange string, err error)
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

type Client struct {
	values        valuesAPI
	spreadsheetID string
	ledgerSheet   string
	logger        *log.Logger
}

var (
	_ ports.LedgerWriter = (*Client)(nil)
	_ ports.LedgerReader = (*Client)(nil)
)

// Config selects the spreadsheet and credentials. CredentialsJSON wins over
// CredentialsFile.
type Config struct {
	SpreadsheetID   string
	LedgerSheet     string
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentSheets})
	}
	logger = logger.WithComponent(log.ComponentSheets)

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets ledger ready", "sheet", ledgerName(cfg.LedgerSheet))

	return &Client{
		values:        serviceValues{svc: svc},
		spreadsheetID: cfg.SpreadsheetID,
		ledgerSheet:   ledgerName(cfg.LedgerSheet),
		logger:        logger,
	}, nil
}

func ledgerName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "Payments"
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// AppendPayment appends one row below the existing data.
func (c *Client) AppendPayment(ctx context.Context, row ports.LedgerRow) (string, error) {
	if c.values == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.PaymentID == "" {
		return "", errors.New("ledger row has no payment id")
	}

	rng := fmt.Sprintf("%s!A:I", c.ledgerSheet)
	ref, err := c.values.Append(ctx, c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{rowValues(row)}})
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.ledgerSheet, err)
	}
	c.logger.DebugContext(ctx, "Payment appended to ledger", log.FieldEntityID, row.PaymentID, "ref", ref)
	return ref, nil
}

// ListPayments reads every ledger row, skipping the header and rows that
// do not parse.
func (c *Client) ListPayments(ctx context.Context) ([]ports.LedgerRow, error) {
	if c.values == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:I", c.ledgerSheet)
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	out := make([]ports.LedgerRow, 0, len(values))
	for i, v := range values {
		row, err := parseRow(v)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed ledger row", "row", i+2, log.FieldError, err.Error())
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// serviceValues adapts the generated client to valuesAPI.
type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Append(ctx context.Context, spreadsheetID, rng string, vr *gsheet.ValueRange) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return "", nil
}

func (s serviceValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
