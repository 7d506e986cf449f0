package storage

import (
	"context"
	"errors"

	"freelancedesk/internal/core"
)

const profileColumns = `id, name, email, plan, user_type, profile_complete, photo_url, phone, location, bio, website,
	agency_name, agency_phone, agency_email, agency_address, tax_id, automation_enabled, created_at, updated_at`

func scanProfile(s scanner) (core.UserProfile, error) {
	var (
		p                                core.UserProfile
		plan, userType, created, updated string
		complete, automation             int
	)
	err := s.Scan(&p.ID, &p.Name, &p.Email, &plan, &userType, &complete, &p.PhotoURL, &p.Phone, &p.Location, &p.Bio,
		&p.Website, &p.AgencyName, &p.AgencyPhone, &p.AgencyEmail, &p.AgencyAddress, &p.TaxID, &automation,
		&created, &updated)
	if err != nil {
		return core.UserProfile{}, err
	}
	p.Plan = core.Plan(plan)
	p.UserType = core.UserType(userType)
	p.ProfileComplete = complete != 0
	p.AutomationEnabled = automation != 0
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// GetProfile loads the profile of user id.
func (r *SQLiteRepository) GetProfile(ctx context.Context, id string) (core.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		return core.UserProfile{}, classify("get profile", err)
	}
	return p, nil
}

// EnsureProfile returns the stored profile, creating an incomplete free
// profile on first sign-in. created reports whether a row was inserted.
func (r *SQLiteRepository) EnsureProfile(ctx context.Context, id, name, email string) (p core.UserProfile, created bool, err error) {
	p, err = r.GetProfile(ctx, id)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.UserProfile{}, false, err
	}

	p = core.NewProfile(id, name, email, r.stamp())
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, email, plan, user_type, profile_complete, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?) ON CONFLICT(id) DO NOTHING`,
		p.ID, p.Name, p.Email, string(p.Plan), string(p.UserType), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return core.UserProfile{}, false, classify("create profile", err)
	}
	// A concurrent sign-in may have won the insert; read back what is stored.
	stored, err := r.GetProfile(ctx, id)
	if err != nil {
		return core.UserProfile{}, false, err
	}
	return stored, true, nil
}

// UpdateProfile overwrites every editable profile field.
func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p core.UserProfile) (core.UserProfile, error) {
	existing, err := r.GetProfile(ctx, p.ID)
	if err != nil {
		return core.UserProfile{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.stamp()

	_, err = r.db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, email = ?, plan = ?, user_type = ?, profile_complete = ?, photo_url = ?, phone = ?,
		 location = ?, bio = ?, website = ?, agency_name = ?, agency_phone = ?, agency_email = ?, agency_address = ?,
		 tax_id = ?, automation_enabled = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Email, string(p.Plan), string(p.UserType), boolToInt(p.ProfileComplete), p.PhotoURL, p.Phone,
		p.Location, p.Bio, p.Website, p.AgencyName, p.AgencyPhone, p.AgencyEmail, p.AgencyAddress, p.TaxID,
		boolToInt(p.AutomationEnabled), formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return core.UserProfile{}, classify("update profile", err)
	}
	return p, nil
}
