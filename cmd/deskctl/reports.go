package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"freelancedesk/internal/analytics"
	"freelancedesk/internal/auth"
	"freelancedesk/internal/core"
	"freelancedesk/internal/export"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/services"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for a user",
	Long: `Issue a bearer token signed with AUTH_SECRET, for local development and
scripted access.

Example:
  deskctl token --user u_123 --name "Ada" --email ada@example.com --ttl 1h`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		user, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = cfg.AuthTokenTTL
		}

		tokens, err := auth.NewTokens(cfg.AuthSecret, ttl)
		if err != nil {
			fail("%v", err)
		}
		raw, expires, err := tokens.Issue(auth.Identity{UserID: user, Name: name, Email: email})
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(raw)
		fmt.Fprintf(os.Stderr, "Expires: %s\n", expires.Format(time.RFC3339))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard overview of an account",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		owner, _ := cmd.Flags().GetString("owner")
		month := monthFlag(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")

		svc, err := openServices(cfg)
		if err != nil {
			fail("%v", err)
		}
		defer svc.Close(context.Background())

		snap, err := svc.Dashboard.Overview(context.Background(), owner, month, analytics.DefaultOptions())
		if err != nil {
			fail("%v", err)
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				fail("%v", err)
			}
			return
		}
		printOverview(os.Stdout, cfg.CurrencySymbol, snap.Overview)
	},
}

func printOverview(out io.Writer, symbol string, ov analytics.Overview) {
	money := func(m core.Money) string { return invoice.FormatAmount(symbol, m) }

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Month\t%s\n", ov.Month)
	fmt.Fprintf(tw, "Revenue\t%s\t(%+.1f%% vs %s)\n", money(ov.Revenue), ov.Growth, money(ov.PreviousRevenue))
	fmt.Fprintf(tw, "Year to date\t%s\n", money(ov.YearRevenue))
	fmt.Fprintf(tw, "Pending\t%s\n", money(ov.PendingTotal))
	fmt.Fprintf(tw, "New clients\t%d\n", ov.NewClients)
	fmt.Fprintf(tw, "Projects this month\t%d active, %d completed, %d on hold, %d cancelled\n",
		ov.MonthStatus.Active, ov.MonthStatus.Completed, ov.MonthStatus.OnHold, ov.MonthStatus.Cancelled)
	if ov.TeamPayouts.Cents != 0 || ov.Investments.Cents != 0 {
		fmt.Fprintf(tw, "Team payouts\t%s\n", money(ov.TeamPayouts))
		fmt.Fprintf(tw, "Investments\t%s\n", money(ov.Investments))
		fmt.Fprintf(tw, "Net\t%s\n", money(ov.Net))
	}
	tw.Flush()

	if len(ov.TopClients) > 0 {
		fmt.Fprintln(out, "\nTop clients")
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for i, c := range ov.TopClients {
			fmt.Fprintf(tw, "%d.\t%s\t%s\t%.1f%%\n", i+1, c.Client.Name, money(c.Revenue), c.PercentOfTotal)
		}
		tw.Flush()
	}
}

var exportCmd = &cobra.Command{
	Use:   "export <payments|clients|projects>",
	Short: "Write an account's records as CSV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		collection, err := export.ParseCollection(args[0])
		if err != nil {
			fail("%v", err)
		}
		owner, _ := cmd.Flags().GetString("owner")
		month := monthFlag(cmd)

		svc, err := openServices(cfg)
		if err != nil {
			fail("%v", err)
		}
		defer svc.Close(context.Background())

		ds, err := svc.Dashboard.Load(context.Background(), owner)
		if err != nil {
			fail("%v", err)
		}
		out, closeOut := outputFlag(cmd)
		defer closeOut()
		n, err := export.Write(out, collection, ds, month)
		if err != nil {
			fail("%v", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d %s\n", n, collection)
	},
}

var invoiceCmd = &cobra.Command{
	Use:   "invoice <project-id>",
	Short: "Render a project's invoice as HTML",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		owner, _ := cmd.Flags().GetString("owner")
		templateID, _ := cmd.Flags().GetString("template")
		if templateID == "" {
			templateID = cfg.DefaultTheme
		}

		svc, err := openServices(cfg)
		if err != nil {
			fail("%v", err)
		}
		defer svc.Close(context.Background())

		out, closeOut := outputFlag(cmd)
		defer closeOut()
		notes, _ := cmd.Flags().GetString("notes")
		opts := services.InvoiceOptions{Template: templateID, Notes: notes}
		if err := svc.Projects.Invoice(context.Background(), out, owner, args[0], opts); err != nil {
			fail("%v", err)
		}
	},
}

func monthFlag(cmd *cobra.Command) time.Time {
	v, _ := cmd.Flags().GetString("month")
	if v == "" {
		return time.Time{}
	}
	month, err := time.Parse(analytics.MonthKeyLayout, v)
	if err != nil {
		fail("invalid --month %q (expected YYYY-MM)", v)
	}
	return month
}

// outputFlag opens --out, or stdout when it is empty.
func outputFlag(cmd *cobra.Command) (io.Writer, func()) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fail("%v", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fail("%v", err)
		}
	}
}

func init() {
	tokenCmd.Flags().String("user", "", "User id (required)")
	tokenCmd.Flags().String("name", "", "Display name")
	tokenCmd.Flags().String("email", "", "Email address")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default: AUTH_TOKEN_TTL)")
	tokenCmd.MarkFlagRequired("user")

	for _, c := range []*cobra.Command{statsCmd, exportCmd, invoiceCmd} {
		c.Flags().String("owner", "", "Account user id (required)")
		c.MarkFlagRequired("owner")
	}
	statsCmd.Flags().String("month", "", "Month as YYYY-MM (default: current)")
	statsCmd.Flags().Bool("json", false, "Print the full snapshot as JSON")

	exportCmd.Flags().String("month", "", "Only records of this month, YYYY-MM")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")

	invoiceCmd.Flags().String("template", "", "classic, minimal, professional or elegant (default: INVOICE_DEFAULT_TEMPLATE)")
	invoiceCmd.Flags().String("notes", "", "Free text printed under the totals")
	invoiceCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
}
