package documents

import "time"

// Kinds of documents a verification run accepts.
const (
	KindID   = "id"
	KindBank = "bank"
)

// Document records metadata about a file uploaded for a verification run.
// The file contents themselves live in object storage only while the run is
// in flight; the metadata is kept for auditing afterwards.
type Document struct {
	ID             string    `json:"id"`
	VerificationID string    `json:"verificationId"`
	Username       string    `json:"username"`
	Kind           string    `json:"kind"`
	FileName       string    `json:"fileName"`
	MimeType       string    `json:"mimeType,omitempty"`
	SizeBytes      int64     `json:"sizeBytes"`
	CreatedAt      time.Time `json:"createdAt"`
}
