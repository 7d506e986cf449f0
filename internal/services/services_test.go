package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"freelancedesk/internal/analytics"
	"freelancedesk/internal/cache"
	"freelancedesk/internal/core"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/log"
	"freelancedesk/internal/sheets/memory"
	"freelancedesk/internal/storage"
)

type fakePublisher struct {
	mu            sync.Mutex
	notifications []core.Notification
	ledger        []string
	err           error
}

func (f *fakePublisher) PublishNotification(_ context.Context, n core.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakePublisher) PublishLedgerPayment(_ context.Context, paymentID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ledger = append(f.ledger, paymentID)
	return nil
}

func (f *fakePublisher) sent() []core.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Notification(nil), f.notifications...)
}

var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

func newTestServices(t *testing.T, pub Publisher) (*Services, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	renderer, err := invoice.NewRenderer("$")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	svc := New(repo, Options{
		Publisher:      pub,
		Logger:         quietLogger(),
		Renderer:       renderer,
		DashboardCache: cache.NewLRUCache[DashboardSnapshot](16, time.Minute),
		Now:            func() time.Time { return fixedNow },
	})
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc, repo
}

func signUpAgency(t *testing.T, svc *Services, owner string, automate bool) {
	t.Helper()
	ctx := context.Background()
	p, err := svc.Profiles.SignIn(ctx, owner, "Ada", owner+"@example.com")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	p.UserType = core.UserAgency
	p.AgencyName = "Ada Studio"
	p.AutomationEnabled = automate
	p.ProfileComplete = true
	if _, err := svc.Profiles.Update(ctx, owner, p); err != nil {
		t.Fatalf("Update profile: %v", err)
	}
}

func drain(t *testing.T, svc *Services) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}

func TestClientCreate_NotifiesAutomatedAgency(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestServices(t, pub)
	ctx := context.Background()
	signUpAgency(t, svc, "u1", true)

	if _, err := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme", Email: "ops@acme.test"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	drain(t, svc)

	sent := pub.sent()
	if len(sent) != 1 {
		t.Fatalf("want 1 notification, got %d", len(sent))
	}
	n := sent[0]
	if n.Kind != core.NotifyClientCreated || n.To != "ops@acme.test" || n.SenderName != "Ada Studio" {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestClientCreate_NoNotificationWithoutAutomation(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestServices(t, pub)
	ctx := context.Background()
	signUpAgency(t, svc, "u1", false)

	if _, err := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme", Email: "ops@acme.test"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	drain(t, svc)
	if n := len(pub.sent()); n != 0 {
		t.Errorf("want no notification, got %d", n)
	}
}

func TestClientCreate_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newTestServices(t, pub)
	ctx := context.Background()
	signUpAgency(t, svc, "u1", true)

	c, err := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme", Email: "ops@acme.test"})
	if err != nil {
		t.Fatalf("Create should succeed despite publish failure: %v", err)
	}
	drain(t, svc)
	if _, err := svc.Clients.Get(ctx, "u1", c.ID); err != nil {
		t.Errorf("client should be stored: %v", err)
	}
}

func TestClientCreate_Validation(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	_, err := svc.Clients.Create(context.Background(), "u1", core.Client{Name: "  "})
	if !core.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestProjectStatusTransitions(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestServices(t, pub)
	ctx := context.Background()
	signUpAgency(t, svc, "u1", true)

	c, _ := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme", Email: "ops@acme.test"})
	p, err := svc.Projects.Create(ctx, "u1", core.Project{ClientID: c.ID, Name: "Site", Status: core.StatusActive})
	if err != nil {
		t.Fatalf("Create project: %v", err)
	}

	p.Status = core.StatusCompleted
	done, err := svc.Projects.Update(ctx, "u1", p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if done.CompletedDate.String() != "2024-05-15" {
		t.Errorf("completed date = %s, want 2024-05-15", done.CompletedDate)
	}

	done.Status = core.StatusActive
	reopened, err := svc.Projects.Update(ctx, "u1", done)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !reopened.CompletedDate.IsZero() {
		t.Errorf("reopened project keeps completed date %s", reopened.CompletedDate)
	}

	drain(t, svc)
	var transitions int
	for _, n := range pub.sent() {
		if n.Kind == core.NotifyProjectStatusChanged {
			transitions++
		}
	}
	if transitions != 2 {
		t.Errorf("want 2 status notifications, got %d", transitions)
	}
}

func TestProjectCreate_References(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()

	_, err := svc.Projects.Create(ctx, "u1", core.Project{ClientID: "missing", Name: "Site", Status: core.StatusActive})
	if !core.IsValidation(err) {
		t.Errorf("unknown client: want validation error, got %v", err)
	}

	other, _ := svc.Clients.Create(ctx, "u2", core.Client{Name: "Other"})
	_, err = svc.Projects.Create(ctx, "u1", core.Project{ClientID: other.ID, Name: "Site", Status: core.StatusActive})
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Errorf("foreign client: want ErrPermissionDenied, got %v", err)
	}
}

func TestReminders(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()
	c, _ := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme"})
	p, _ := svc.Projects.Create(ctx, "u1", core.Project{
		ClientID: c.ID, Name: "Site", Status: core.StatusActive, ReminderDate: core.NewDate(2024, 5, 15),
	})
	_, _ = svc.Projects.Create(ctx, "u1", core.Project{
		ClientID: c.ID, Name: "Later", Status: core.StatusActive, ReminderDate: core.NewDate(2024, 6, 1),
	})

	due, err := svc.Projects.DueReminders(ctx, "u1")
	if err != nil {
		t.Fatalf("DueReminders: %v", err)
	}
	if len(due) != 1 || due[0].ID != p.ID {
		t.Fatalf("due = %+v", due)
	}
	if err := svc.Projects.DismissReminder(ctx, "u1", p.ID); err != nil {
		t.Fatalf("DismissReminder: %v", err)
	}
	due, _ = svc.Projects.DueReminders(ctx, "u1")
	if len(due) != 0 {
		t.Errorf("dismissed reminder still due")
	}
}

func TestPaymentCreate_QueuesLedgerAndInvalidatesDashboard(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestServices(t, pub)
	ctx := context.Background()
	c, _ := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme"})
	p, _ := svc.Projects.Create(ctx, "u1", core.Project{ClientID: c.ID, Name: "Site", Status: core.StatusActive, TotalAmount: core.Money{Cents: 10000}})

	before, err := svc.Dashboard.Overview(ctx, "u1", fixedNow, analytics.DefaultOptions())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if before.Overview.Revenue.Cents != 0 {
		t.Fatalf("revenue before payment = %d", before.Overview.Revenue.Cents)
	}

	pay, err := svc.Payments.Create(ctx, "u1", core.Payment{ProjectID: p.ID, Amount: core.Money{Cents: 4000}, Date: core.NewDate(2024, 5, 2)})
	if err != nil {
		t.Fatalf("Create payment: %v", err)
	}
	drain(t, svc)
	if len(pub.ledger) != 1 || pub.ledger[0] != pay.ID {
		t.Errorf("ledger messages = %v", pub.ledger)
	}

	after, err := svc.Dashboard.Overview(ctx, "u1", fixedNow, analytics.DefaultOptions())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if after.Overview.Revenue.Cents != 4000 {
		t.Errorf("revenue after payment = %d, want 4000 (stale cache?)", after.Overview.Revenue.Cents)
	}
	if after.Overview.PendingTotal.Cents != 6000 {
		t.Errorf("pending = %d, want 6000", after.Overview.PendingTotal.Cents)
	}
}

func TestDashboardOverview_CurrentMonthInUTC(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	svc.Dashboard.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 0, 0, 0, time.FixedZone("EST", -5*60*60))
	}
	ctx := context.Background()
	c, _ := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme"})
	p, _ := svc.Projects.Create(ctx, "u1", core.Project{ClientID: c.ID, Name: "Site", Status: core.StatusActive, TotalAmount: core.Money{Cents: 10000}})
	if _, err := svc.Payments.Create(ctx, "u1", core.Payment{ProjectID: p.ID, Amount: core.Money{Cents: 4000}, Date: core.NewDate(2024, 3, 1)}); err != nil {
		t.Fatalf("Create payment: %v", err)
	}

	current, err := svc.Dashboard.Overview(ctx, "u1", time.Time{}, analytics.DefaultOptions())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	explicit, err := svc.Dashboard.Overview(ctx, "u1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), analytics.DefaultOptions())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	if current.Overview.Month != "2024-03" {
		t.Errorf("month = %q, want 2024-03", current.Overview.Month)
	}
	if current.Overview.Revenue.Cents != 4000 || current.Overview.PreviousRevenue.Cents != 0 {
		t.Errorf("current month revenue = %d, previous = %d; want 4000, 0",
			current.Overview.Revenue.Cents, current.Overview.PreviousRevenue.Cents)
	}
	if explicit.Overview.Revenue.Cents != current.Overview.Revenue.Cents {
		t.Errorf("explicit month revenue = %d, current month revenue = %d", explicit.Overview.Revenue.Cents, current.Overview.Revenue.Cents)
	}
}

func TestPaymentCreate_ForeignProject(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()
	c, _ := svc.Clients.Create(ctx, "u2", core.Client{Name: "Acme"})
	p, _ := svc.Projects.Create(ctx, "u2", core.Project{ClientID: c.ID, Name: "Site", Status: core.StatusActive})

	_, err := svc.Payments.Create(ctx, "u1", core.Payment{ProjectID: p.ID, Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 5, 2)})
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
}

func TestTeamRequiresAgency(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()
	if _, err := svc.Profiles.SignIn(ctx, "u1", "Fred", "fred@example.com"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	_, err := svc.Team.CreateMember(ctx, "u1", core.TeamMember{Name: "Bea", Email: "bea@example.com"})
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Fatalf("freelancer: want ErrPermissionDenied, got %v", err)
	}
	_, err = svc.Investments.List(ctx, "u1")
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Fatalf("freelancer investments: want ErrPermissionDenied, got %v", err)
	}
}

func TestTeamPayoutsFlowIntoDashboard(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()
	signUpAgency(t, svc, "a1", false)

	m, err := svc.Team.CreateMember(ctx, "a1", core.TeamMember{Name: "Bea", Email: "bea@example.com", Role: "design"})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if _, err := svc.Team.CreatePayment(ctx, "a1", core.TeamMemberPayment{TeamMemberID: m.ID, Amount: core.Money{Cents: 2500}, Date: core.NewDate(2024, 5, 3)}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if _, err := svc.Investments.Create(ctx, "a1", core.Investment{Name: "Laptop", Amount: core.Money{Cents: 1000}, Date: core.NewDate(2024, 5, 4), PaymentMethod: core.MethodCash}); err != nil {
		t.Fatalf("Create investment: %v", err)
	}

	snap, err := svc.Dashboard.Overview(ctx, "a1", fixedNow, analytics.DefaultOptions())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if snap.Overview.TeamPayouts.Cents != 2500 || snap.Overview.Investments.Cents != 1000 {
		t.Errorf("payouts = %d investments = %d", snap.Overview.TeamPayouts.Cents, snap.Overview.Investments.Cents)
	}

	if err := svc.Team.DeleteMember(ctx, "a1", m.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("paid member delete: want ErrConflict, got %v", err)
	}
}

func TestDashboardLoad_Cancelled(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Dashboard.Load(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestInvoice(t *testing.T) {
	svc, _ := newTestServices(t, nil)
	ctx := context.Background()
	if _, err := svc.Profiles.SignIn(ctx, "u1", "Ada", "ada@example.com"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	c, _ := svc.Clients.Create(ctx, "u1", core.Client{Name: "<b>Acme</b>"})
	p, _ := svc.Projects.Create(ctx, "u1", core.Project{ClientID: c.ID, Name: "Site", Status: core.StatusActive, TotalAmount: core.Money{Cents: 1234567}})

	var buf strings.Builder
	if err := svc.Projects.Invoice(ctx, &buf, "u1", p.ID, InvoiceOptions{Template: "minimal", Notes: "  Pay to <IBAN>  "}); err != nil {
		t.Fatalf("Invoice: %v", err)
	}
	html := buf.String()
	if strings.Contains(html, "<b>Acme</b>") {
		t.Error("client name must be escaped")
	}
	if !strings.Contains(html, "$12,345.67") {
		t.Error("total should be formatted with symbol and separators")
	}
	if !strings.Contains(html, "<p>Pay to &lt;IBAN&gt;</p>") {
		t.Error("notes should be trimmed, escaped and printed")
	}

	err := svc.Projects.Invoice(ctx, &buf, "u1", p.ID, InvoiceOptions{Template: "neon"})
	if !errors.Is(err, invoice.ErrUnknownTemplate) {
		t.Errorf("want ErrUnknownTemplate, got %v", err)
	}

	err = svc.Projects.Invoice(ctx, &buf, "u1", p.ID, InvoiceOptions{Notes: strings.Repeat("x", 2001)})
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Field != "notes" {
		t.Errorf("want notes validation error, got %v", err)
	}
}

func TestLedgerSync(t *testing.T) {
	svc, repo := newTestServices(t, nil)
	ctx := context.Background()
	c, _ := svc.Clients.Create(ctx, "u1", core.Client{Name: "Acme"})
	p, _ := svc.Projects.Create(ctx, "u1", core.Project{ClientID: c.ID, Name: "Site", Status: core.StatusActive})
	pay, _ := svc.Payments.Create(ctx, "u1", core.Payment{ProjectID: p.ID, Amount: core.Money{Cents: 500}, Date: core.NewDate(2024, 5, 2)})

	ledger := memory.New()
	ls := NewLedgerSync(repo, ledger, LedgerSyncConfig{MinAge: time.Hour}, quietLogger())

	ls.now = func() time.Time { return time.Now() }
	if n := ls.Sweep(ctx); n != 0 {
		t.Errorf("fresh payment should be left to the queue, swept %d", n)
	}

	ls.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if n := ls.Sweep(ctx); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if err := ls.SyncPayment(ctx, pay.ID, "u1"); err != nil {
		t.Fatalf("SyncPayment: %v", err)
	}

	rows, _ := ledger.ListPayments(ctx)
	if len(rows) != 1 {
		t.Fatalf("want exactly one ledger row, got %d", len(rows))
	}
	if rows[0].ClientName != "Acme" || rows[0].ProjectName != "Site" {
		t.Errorf("unexpected row %+v", rows[0])
	}

	if err := ls.SyncPayment(ctx, "deleted", "u1"); err != nil {
		t.Errorf("missing payment should be skipped, got %v", err)
	}
}

func TestLedgerSync_StartStop(t *testing.T) {
	_, repo := newTestServices(t, nil)
	ls := NewLedgerSync(repo, memory.New(), LedgerSyncConfig{PollInterval: 10 * time.Millisecond}, quietLogger())

	ctx := context.Background()
	if err := ls.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := ls.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := ls.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ls.IsRunning() {
		t.Error("sync should not be running after Stop")
	}
}
