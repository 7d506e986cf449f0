package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// UserProfile holds account settings. Freelancer and agency specific fields
// are optional; ProfileComplete gates onboarding.
type UserProfile struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Plan            Plan     `json:"plan"`
	UserType        UserType `json:"userType"`
	ProfileComplete bool     `json:"profileComplete"`
	PhotoURL        string   `json:"photoURL,omitempty"`

	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Website  string `json:"website,omitempty"`

	AgencyName        string `json:"agencyName,omitempty"`
	AgencyPhone       string `json:"agencyPhone,omitempty"`
	AgencyEmail       string `json:"agencyEmail,omitempty"`
	AgencyAddress     string `json:"agencyAddress,omitempty"`
	TaxID             string `json:"taxId,omitempty"`
	AutomationEnabled bool   `json:"automationEnabled"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p UserProfile) Validate() error {
	if err := validName("name", p.Name); err != nil {
		return err
	}
	if err := validEmail("email", p.Email, true); err != nil {
		return err
	}
	switch p.Plan {
	case PlanFree, PlanPro, PlanAgency:
	default:
		return invalid("plan", fmt.Errorf("unknown plan %q", p.Plan))
	}
	switch p.UserType {
	case UserFreelancer, UserAgency, UserBusiness:
	default:
		return invalid("userType", fmt.Errorf("unknown user type %q", p.UserType))
	}
	return validEmail("agencyEmail", p.AgencyEmail, false)
}

// IsAgency reports whether the profile may manage a team and investments.
func (p UserProfile) IsAgency() bool {
	return p.UserType == UserAgency || p.Plan == PlanAgency
}

// AutomatesEmail reports whether business events should trigger outbound mail.
func (p UserProfile) AutomatesEmail() bool {
	return p.IsAgency() && p.AutomationEnabled
}

// DisplayName prefers the agency name for agency accounts.
func (p UserProfile) DisplayName() string {
	if p.IsAgency() && strings.TrimSpace(p.AgencyName) != "" {
		return p.AgencyName
	}
	return p.Name
}

// AvatarURL returns the uploaded photo or a gravatar keyed by email.
func (p UserProfile) AvatarURL(size int) string {
	if p.PhotoURL != "" {
		return p.PhotoURL
	}
	return GravatarURL(p.Email, size)
}

// GravatarURL derives the identicon URL for email.
func GravatarURL(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	if size <= 0 {
		size = 80
	}
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=identicon", hex.EncodeToString(sum[:]), size)
}

// NewProfile is the profile created on first sign-in.
func NewProfile(id, name, email string, now time.Time) UserProfile {
	return UserProfile{
		ID:              id,
		Name:            name,
		Email:           email,
		Plan:            PlanFree,
		UserType:        UserFreelancer,
		ProfileComplete: false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
