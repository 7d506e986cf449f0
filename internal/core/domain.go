package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusOnHold    ProjectStatus = "on-hold"
	StatusCancelled ProjectStatus = "cancelled"
)

const (
	PaymentAdvance PaymentType = "advance"
	PaymentPartial PaymentType = "partial"
	PaymentFinal   PaymentType = "final"
)

const (
	MethodUPI  InvestmentMethod = "upi"
	MethodCash InvestmentMethod = "cash"
	MethodCard InvestmentMethod = "card"
)

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanAgency Plan = "agency"
)

const (
	UserFreelancer UserType = "freelancer"
	UserAgency     UserType = "agency"
	UserBusiness   UserType = "business"
)

// MaxProjectMembers bounds Project.TeamMembers.
const MaxProjectMembers = 3

const maxNameLen = 200

type (
	ProjectStatus    string
	PaymentType      string
	InvestmentMethod string
	Plan             string
	UserType         string

	Client struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"userId"`
		Name      string    `json:"name"`
		Email     string    `json:"email,omitempty"`
		Phone     string    `json:"phone,omitempty"`
		Notes     string    `json:"notes,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Project struct {
		ID            string        `json:"id"`
		ClientID      string        `json:"client_id"`
		OwnerID       string        `json:"userId"`
		Name          string        `json:"name"`
		Status        ProjectStatus `json:"status"`
		Deadline      Date          `json:"deadline"`
		TotalAmount   Money         `json:"total_amount"`
		ReminderDate  Date          `json:"reminder_date"`
		CompletedDate Date          `json:"completed_date"`
		TeamMembers   []string      `json:"team_members,omitempty"`
		CreatedAt     time.Time     `json:"createdAt"`
		UpdatedAt     time.Time     `json:"updatedAt"`
	}

	// Payment is append/delete only.
	Payment struct {
		ID            string      `json:"id"`
		ProjectID     string      `json:"project_id"`
		OwnerID       string      `json:"userId"`
		Amount        Money       `json:"amount"`
		Date          Date        `json:"date"`
		Notes         string      `json:"notes,omitempty"`
		PaymentType   PaymentType `json:"payment_type,omitempty"`
		PaymentMethod string      `json:"payment_method,omitempty"`
		CreatedAt     time.Time   `json:"createdAt"`
	}

	TeamMember struct {
		ID        string    `json:"id"`
		AgencyID  string    `json:"agencyId"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Role      string    `json:"role"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	TeamMemberPayment struct {
		ID           string    `json:"id"`
		AgencyID     string    `json:"agencyId"`
		TeamMemberID string    `json:"team_member_id"`
		Amount       Money     `json:"amount"`
		Date         Date      `json:"date"`
		Notes        string    `json:"notes,omitempty"`
		ProjectID    string    `json:"project_id,omitempty"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Investment struct {
		ID            string           `json:"id"`
		AgencyID      string           `json:"agencyId"`
		Name          string           `json:"name"`
		Amount        Money            `json:"amount"`
		Date          Date             `json:"date"`
		PaymentMethod InvestmentMethod `json:"payment_method"`
		UPIID         string           `json:"upi_id,omitempty"`
		TransactionID string           `json:"transaction_id,omitempty"`
		Notes         string           `json:"notes,omitempty"`
		CreatedAt     time.Time        `json:"createdAt"`
		UpdatedAt     time.Time        `json:"updatedAt"`
	}
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusOnHold, StatusCancelled:
		return true
	}
	return false
}

func (t PaymentType) Valid() bool {
	switch t {
	case "", PaymentAdvance, PaymentPartial, PaymentFinal:
		return true
	}
	return false
}

func (m InvestmentMethod) Valid() bool {
	switch m {
	case MethodUPI, MethodCash, MethodCard:
		return true
	}
	return false
}

func validName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(field, ErrEmptyName)
	}
	if len(name) > maxNameLen {
		return invalid(field, fmt.Errorf("too long (max %d characters)", maxNameLen))
	}
	return nil
}

func validEmail(field, email string, required bool) error {
	email = strings.TrimSpace(email)
	if email == "" {
		if required {
			return invalid(field, ErrInvalidEmail)
		}
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid(field, ErrInvalidEmail)
	}
	return nil
}

func (c Client) Validate() error {
	if err := validName("name", c.Name); err != nil {
		return err
	}
	return validEmail("email", c.Email, false)
}

func (p Project) Validate() error {
	if err := validName("name", p.Name); err != nil {
		return err
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return invalid("client_id", ErrMissingReference)
	}
	if !p.Status.Valid() {
		return invalid("status", ErrInvalidStatus)
	}
	if p.TotalAmount.Cents < 0 {
		return invalid("total_amount", ErrInvalidAmount)
	}
	if len(p.TeamMembers) > MaxProjectMembers {
		return invalid("team_members", ErrTooManyMembers)
	}
	if !p.CompletedDate.IsZero() && p.Status != StatusCompleted {
		return invalid("completed_date", ErrCompletedDate)
	}
	return nil
}

// Paid sums the payments that belong to p.
func (p Project) Paid(payments []Payment) Money {
	var paid Money
	for _, pay := range payments {
		if pay.ProjectID == p.ID {
			paid = paid.Add(pay.Amount)
		}
	}
	return paid
}

// Pending is total minus payments. Negative means overpaid.
func (p Project) Pending(payments []Payment) Money {
	return p.TotalAmount.Sub(p.Paid(payments))
}

// PendingDisplay is Pending clamped at zero.
func (p Project) PendingDisplay(payments []Payment) Money {
	return p.Pending(payments).ClampZero()
}

// ReminderDue reports whether the project's reminder fires at or before now.
func (p Project) ReminderDue(now time.Time) bool {
	return !p.ReminderDate.IsZero() && !p.ReminderDate.After(now)
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ProjectID) == "" {
		return invalid("project_id", ErrMissingReference)
	}
	if err := p.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if p.Date.IsZero() {
		return invalid("date", ErrDateRequired)
	}
	if !p.PaymentType.Valid() {
		return invalid("payment_type", ErrInvalidPayType)
	}
	return nil
}

func (m TeamMember) Validate() error {
	if err := validName("name", m.Name); err != nil {
		return err
	}
	return validEmail("email", m.Email, true)
}

func (p TeamMemberPayment) Validate() error {
	if strings.TrimSpace(p.TeamMemberID) == "" {
		return invalid("team_member_id", ErrMissingReference)
	}
	if err := p.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if p.Date.IsZero() {
		return invalid("date", ErrDateRequired)
	}
	return nil
}

func (i Investment) Validate() error {
	if err := validName("name", i.Name); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if i.Date.IsZero() {
		return invalid("date", ErrDateRequired)
	}
	if !i.PaymentMethod.Valid() {
		return invalid("payment_method", ErrInvalidMethod)
	}
	if i.PaymentMethod == MethodUPI &&
		(strings.TrimSpace(i.UPIID) == "" || strings.TrimSpace(i.TransactionID) == "") {
		return invalid("upi_id", ErrMissingUPIDetails)
	}
	return nil
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
