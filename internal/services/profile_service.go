package services

import (
	"context"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

type ProfileService struct {
	store  Store
	logger *log.Logger
}

// SignIn returns the user's profile, creating an incomplete one on the
// first sign-in so the client can route to onboarding.
func (s *ProfileService) SignIn(ctx context.Context, id, name, email string) (core.UserProfile, error) {
	p, created, err := s.store.EnsureProfile(ctx, id, name, email)
	if err != nil {
		return core.UserProfile{}, err
	}
	if created {
		s.logger.InfoContext(ctx, "Profile created on first sign-in", log.FieldOwner, id)
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (core.UserProfile, error) {
	return s.store.GetProfile(ctx, id)
}

// Update saves the editable profile fields. Plan changes are not accepted
// here; the stored plan is kept.
func (s *ProfileService) Update(ctx context.Context, id string, p core.UserProfile) (core.UserProfile, error) {
	current, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return core.UserProfile{}, err
	}
	p.ID = id
	p.Plan = current.Plan
	if p.UserType == "" {
		p.UserType = current.UserType
	}
	if err := p.Validate(); err != nil {
		return core.UserProfile{}, err
	}
	return s.store.UpdateProfile(ctx, p)
}

// Avatar returns the custom photo URL or a gravatar derived from the email.
func (s *ProfileService) Avatar(ctx context.Context, id string, size int) (string, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return "", err
	}
	return p.AvatarURL(size), nil
}
