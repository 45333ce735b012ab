package accounts

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "account not found" }

// Repo defines persistence operations for accounts and their profiles.
type Repo interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, username string) error
	Get(ctx context.Context, username string) (Account, error)
	SetStatus(ctx context.Context, username, status string) error
	GetProfile(ctx context.Context, username string) (Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) error
}
