package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// ProfileRepo persists the 'profiles' table, keyed by the owning user id.
// The row is created by the sign-up trigger and read every time a session
// is hydrated into an AppUser.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Create inserts the profile row for a freshly registered user.
func (r *ProfileRepo) Create(ctx context.Context, p model.Profile) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO profiles (id, name, phone, role, location) VALUES (?,?,?,?,?)",
		p.ID, p.Name, p.Phone, string(p.Role), p.Location)
	return err
}

// GetByID fetches the profile for a user, or ErrProfileNotFound.
func (r *ProfileRepo) GetByID(ctx context.Context, id uint64) (model.Profile, error) {
	var (
		p        model.Profile
		phone    sql.NullString
		location sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,phone,role,location FROM profiles WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Name, &phone, &p.Role, &location)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, err
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	if location.Valid {
		p.Location = &location.String
	}
	return p, nil
}

// Update rewrites the editable profile fields (name, phone, location).
// Role changes are not a profile edit and go through the admin console.
func (r *ProfileRepo) Update(ctx context.Context, id uint64, name string, phone, location *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET name=?, phone=?, location=? WHERE id=?",
		name, phone, location, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Row may exist with identical values; verify before reporting missing.
		var exists uint64
		if err := r.DB.QueryRowContext(ctx, "SELECT id FROM profiles WHERE id=? LIMIT 1", id).Scan(&exists); err != nil {
			return ErrProfileNotFound
		}
	}
	return nil
}

// Name returns just the display name for a user id, empty when missing.
// List views use it to label counterparties without loading full rows.
func (r *ProfileRepo) Name(ctx context.Context, id uint64) (string, error) {
	var name string
	err := r.DB.QueryRowContext(ctx, "SELECT name FROM profiles WHERE id=? LIMIT 1", id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}
