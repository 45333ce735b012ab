package verifications

import (
	"context"
	"time"

	"docverify-backend/internal/match"
)

// Repo defines persistence operations for verification runs.
type Repo interface {
	Create(ctx context.Context, verification Verification) error
	GetByID(ctx context.Context, verificationID string) (Verification, error)
	ListByUsername(ctx context.Context, username string, limit, offset int) ([]Verification, error)
	MarkProcessing(ctx context.Context, verificationID string, startedAt time.Time) error
	Complete(ctx context.Context, verificationID string, idFields, bankFields match.Fields, result match.Result, completedAt time.Time) error
	Fail(ctx context.Context, verificationID, errorCode, errorMessage string, completedAt time.Time) error
}
