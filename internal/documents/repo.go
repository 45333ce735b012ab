package documents

import "context"

type errNotFound struct{}

func (errNotFound) Error() string { return "document not found" }

// ErrNotFound is returned when no document matches the query.
var ErrNotFound error = errNotFound{}

// Repo defines persistence operations for document metadata.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	ListByVerification(ctx context.Context, verificationID string) ([]Document, error)
}
