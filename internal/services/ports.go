package services

import (
	"context"

	"freelancedesk/internal/core"
	"freelancedesk/internal/storage"
)

// Persistence ports. *storage.SQLiteRepository implements all of them.
type (
	ClientStore interface {
		CreateClient(ctx context.Context, c core.Client) (core.Client, error)
		GetClient(ctx context.Context, owner, id string) (core.Client, error)
		ListClients(ctx context.Context, owner string) ([]core.Client, error)
		UpdateClient(ctx context.Context, c core.Client) (core.Client, error)
		DeleteClient(ctx context.Context, owner, id string) error
	}

	ProjectStore interface {
		CreateProject(ctx context.Context, p core.Project) (core.Project, error)
		GetProject(ctx context.Context, owner, id string) (core.Project, error)
		ListProjects(ctx context.Context, owner string) ([]core.Project, error)
		ListProjectsByClient(ctx context.Context, owner, clientID string) ([]core.Project, error)
		ListDueReminders(ctx context.Context, owner string, day core.Date) ([]core.Project, error)
		UpdateProject(ctx context.Context, p core.Project) (core.Project, error)
		ClearReminder(ctx context.Context, owner, id string) error
		DeleteProject(ctx context.Context, owner, id string) error
	}

	PaymentStore interface {
		CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
		GetPayment(ctx context.Context, owner, id string) (core.Payment, error)
		ListPayments(ctx context.Context, owner string) ([]core.Payment, error)
		ListPaymentsByProject(ctx context.Context, owner, projectID string) ([]core.Payment, error)
		DeletePayment(ctx context.Context, owner, id string) error
	}

	TeamStore interface {
		CreateTeamMember(ctx context.Context, m core.TeamMember) (core.TeamMember, error)
		GetTeamMember(ctx context.Context, agency, id string) (core.TeamMember, error)
		ListTeamMembers(ctx context.Context, agency string) ([]core.TeamMember, error)
		UpdateTeamMember(ctx context.Context, m core.TeamMember) (core.TeamMember, error)
		DeleteTeamMember(ctx context.Context, agency, id string) error
		CreateTeamPayment(ctx context.Context, p core.TeamMemberPayment) (core.TeamMemberPayment, error)
		GetTeamPayment(ctx context.Context, agency, id string) (core.TeamMemberPayment, error)
		ListTeamPayments(ctx context.Context, agency string) ([]core.TeamMemberPayment, error)
		ListTeamPaymentsByMember(ctx context.Context, agency, memberID string) ([]core.TeamMemberPayment, error)
		UpdateTeamPayment(ctx context.Context, p core.TeamMemberPayment) (core.TeamMemberPayment, error)
		DeleteTeamPayment(ctx context.Context, agency, id string) error
	}

	InvestmentStore interface {
		CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error)
		GetInvestment(ctx context.Context, agency, id string) (core.Investment, error)
		ListInvestments(ctx context.Context, agency string) ([]core.Investment, error)
		UpdateInvestment(ctx context.Context, i core.Investment) (core.Investment, error)
		DeleteInvestment(ctx context.Context, agency, id string) error
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, id string) (core.UserProfile, error)
		EnsureProfile(ctx context.Context, id, name, email string) (core.UserProfile, bool, error)
		UpdateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error)
	}

	LedgerStore interface {
		GetPendingLedgerPayments(ctx context.Context, limit int) ([]storage.PendingLedgerPayment, error)
		MarkLedgerSynced(ctx context.Context, id, ref string) error
		MarkLedgerError(ctx context.Context, id string) error
		LedgerStatus(ctx context.Context, id string) (status, ref string, err error)
	}

	Store interface {
		ClientStore
		ProjectStore
		PaymentStore
		TeamStore
		InvestmentStore
		ProfileStore
		LedgerStore
		Ping(ctx context.Context) error
		Close() error
	}
)

var _ Store = (*storage.SQLiteRepository)(nil)

// Publisher queues background work. *amqp.Client implements it.
type Publisher interface {
	PublishNotification(ctx context.Context, n core.Notification) error
	PublishLedgerPayment(ctx context.Context, paymentID, ownerID string) error
}
