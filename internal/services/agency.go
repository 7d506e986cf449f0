package services

import (
	"context"
	"fmt"

	"freelancedesk/internal/core"
)

// agencyGuard restricts team and investment features to agency accounts.
type agencyGuard struct {
	profiles ProfileStore
}

func (g *agencyGuard) require(ctx context.Context, owner string) error {
	p, err := g.profiles.GetProfile(ctx, owner)
	if err != nil {
		return err
	}
	if !p.IsAgency() {
		return fmt.Errorf("team features require an agency account: %w", core.ErrPermissionDenied)
	}
	return nil
}
