package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // verificationID -> documents
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

// Create stores a document metadata record.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.VerificationID] = append(r.data[doc.VerificationID], doc)
	return nil
}

// ListByVerification returns documents for a verification run in upload order.
func (r *MemoryRepo) ListByVerification(ctx context.Context, verificationID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	stored := r.data[verificationID]
	r.mu.RUnlock()

	docs := make([]Document, len(stored))
	copy(docs, stored)
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

var _ Repo = (*MemoryRepo)(nil)
