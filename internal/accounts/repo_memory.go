package accounts

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo implements Repo with in-process maps. Used when no database is
// configured and in tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	accounts map[string]Account
	profiles map[string]Profile
}

// NewMemoryRepo creates an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		accounts: make(map[string]Account),
		profiles: make(map[string]Profile),
	}
}

func (r *MemoryRepo) Exists(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.accounts[username]
	return ok, nil
}

func (r *MemoryRepo) Create(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[username]; ok {
		return nil
	}
	now := time.Now().UTC()
	r.accounts[username] = Account{
		Username:  username,
		Status:    StatusUnset,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, username string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[username]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, username, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[username]
	if !ok {
		return ErrNotFound
	}
	account.Status = status
	account.UpdatedAt = time.Now().UTC()
	r.accounts[username] = account
	return nil
}

func (r *MemoryRepo) GetProfile(ctx context.Context, username string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[username]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return profile, nil
}

func (r *MemoryRepo) UpsertProfile(ctx context.Context, profile Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.UpdatedAt = time.Now().UTC()
	r.profiles[profile.Username] = profile
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
