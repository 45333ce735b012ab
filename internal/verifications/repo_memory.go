package verifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"docverify-backend/internal/match"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Verification
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Verification),
	}
}

// Create stores a new verification run.
func (r *MemoryRepo) Create(ctx context.Context, verification Verification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[verification.ID] = verification
	return nil
}

// GetByID returns a verification run by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, verificationID string) (Verification, error) {
	if err := ctx.Err(); err != nil {
		return Verification{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	verification, ok := r.data[verificationID]
	if !ok {
		return Verification{}, ErrNotFound
	}
	return verification, nil
}

// ListByUsername returns runs for a username, newest first.
func (r *MemoryRepo) ListByUsername(ctx context.Context, username string, limit, offset int) ([]Verification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	all := make([]Verification, 0, len(r.data))
	for _, verification := range r.data {
		if verification.Username == username {
			all = append(all, verification)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []Verification{}, nil
	}
	end := len(all)
	if offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// MarkProcessing moves a queued run into processing.
func (r *MemoryRepo) MarkProcessing(ctx context.Context, verificationID string, startedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	verification, ok := r.data[verificationID]
	if !ok {
		return ErrNotFound
	}
	verification.Status = StatusProcessing
	verification.StartedAt = &startedAt
	r.data[verificationID] = verification
	return nil
}

// Complete stores the extracted fields and comparison result for a run.
func (r *MemoryRepo) Complete(ctx context.Context, verificationID string, idFields, bankFields match.Fields, result match.Result, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	verification, ok := r.data[verificationID]
	if !ok {
		return ErrNotFound
	}
	verification.Status = StatusCompleted
	verification.IDFields = &idFields
	verification.BankFields = &bankFields
	verification.Result = &result
	verification.ErrorCode = ""
	verification.ErrorMessage = ""
	verification.CompletedAt = &completedAt
	r.data[verificationID] = verification
	return nil
}

// Fail marks a run as failed with a classified error.
func (r *MemoryRepo) Fail(ctx context.Context, verificationID, errorCode, errorMessage string, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	verification, ok := r.data[verificationID]
	if !ok {
		return ErrNotFound
	}
	verification.Status = StatusFailed
	verification.ErrorCode = errorCode
	verification.ErrorMessage = errorMessage
	verification.CompletedAt = &completedAt
	r.data[verificationID] = verification
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
