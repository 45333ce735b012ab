package accounts

import (
	"context"
	"errors"
	"strings"

	"docverify-backend/internal/match"
)

// Service contains business logic for accounts.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// EnsureExists creates the account on first sight of a username. Returns
// true when a new account was created.
func (s *Service) EnsureExists(ctx context.Context, username string) (bool, error) {
	if s == nil || s.Repo == nil {
		return false, errors.New("accounts service not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return false, errors.New("username is required")
	}
	exists, err := s.Repo.Exists(ctx, username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.Repo.Create(ctx, username); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the account with its stored profile, if any.
func (s *Service) Get(ctx context.Context, username string) (Account, *Profile, error) {
	if s == nil || s.Repo == nil {
		return Account{}, nil, errors.New("accounts service not configured")
	}
	account, err := s.Repo.Get(ctx, username)
	if err != nil {
		return Account{}, nil, err
	}
	profile, err := s.Repo.GetProfile(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return account, nil, nil
		}
		return Account{}, nil, err
	}
	return account, &profile, nil
}

// RecordResult persists the outcome of a verification run: the account's
// verification status plus the profile extracted from the ID document. Fields
// the extraction did not produce leave the stored values empty.
func (s *Service) RecordResult(ctx context.Context, username string, verified bool, idFields match.Fields) error {
	if s == nil || s.Repo == nil {
		return errors.New("accounts service not configured")
	}

	status := StatusNotVerified
	if verified {
		status = StatusVerified
	}
	if err := s.Repo.SetStatus(ctx, username, status); err != nil {
		return err
	}

	profile := Profile{Username: username}
	if idFields.Name != nil {
		profile.Name = *idFields.Name
	}
	if idFields.Phone != nil {
		profile.Phone = *idFields.Phone
	}
	if idFields.Address != nil {
		profile.Address = *idFields.Address
	}
	return s.Repo.UpsertProfile(ctx, profile)
}
