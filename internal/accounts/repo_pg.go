package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Exists reports whether an account with the username exists.
func (r *PGRepo) Exists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE username = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new account with no verification status. Inserting an
// existing username is a no-op so concurrent first-sight creation is safe.
func (r *PGRepo) Create(ctx context.Context, username string) error {
	const query = `
INSERT INTO accounts (username, doc_verification, created_at, updated_at)
VALUES ($1, NULL, now(), now())
ON CONFLICT (username) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, username)
	return err
}

// Get returns the account for a username.
func (r *PGRepo) Get(ctx context.Context, username string) (Account, error) {
	const query = `
SELECT username, doc_verification, created_at, updated_at
FROM accounts
WHERE username = $1
LIMIT 1`
	var account Account
	var status sql.NullString
	err := r.DB.QueryRowContext(ctx, query, username).Scan(
		&account.Username,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	if status.Valid {
		account.Status = status.String
	}
	return account, nil
}

// SetStatus updates the verification status for a username.
func (r *PGRepo) SetStatus(ctx context.Context, username, status string) error {
	const query = `
UPDATE accounts
SET doc_verification = $1, updated_at = now()
WHERE username = $2`
	res, err := r.DB.ExecContext(ctx, query, nullableString(status), username)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProfile returns the stored profile for a username.
func (r *PGRepo) GetProfile(ctx context.Context, username string) (Profile, error) {
	const query = `
SELECT username, name, phone, address, updated_at
FROM users
WHERE username = $1
LIMIT 1`
	var profile Profile
	var name sql.NullString
	var phone sql.NullString
	var address sql.NullString
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, username).Scan(
		&profile.Username,
		&name,
		&phone,
		&address,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if name.Valid {
		profile.Name = name.String
	}
	if phone.Valid {
		profile.Phone = phone.String
	}
	if address.Valid {
		profile.Address = address.String
	}
	if updatedAt.Valid {
		profile.UpdatedAt = updatedAt.Time
	} else {
		profile.UpdatedAt = time.Now().UTC()
	}
	return profile, nil
}

// UpsertProfile creates or replaces the profile row for a username.
func (r *PGRepo) UpsertProfile(ctx context.Context, profile Profile) error {
	const query = `
INSERT INTO users (username, name, phone, address, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (username) DO UPDATE SET
  name = EXCLUDED.name,
  phone = EXCLUDED.phone,
  address = EXCLUDED.address,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		profile.Username,
		nullableString(profile.Name),
		nullableString(profile.Phone),
		nullableString(profile.Address),
	)
	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
