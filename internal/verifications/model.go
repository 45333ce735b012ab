package verifications

import (
	"time"

	"docverify-backend/internal/match"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Verification represents one document-verification run for a username.
// Runs are append-only history; the latest completed run drives the
// account's verification status.
type Verification struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Status       string        `json:"status"`
	IDFields     *match.Fields `json:"idFields,omitempty"`
	BankFields   *match.Fields `json:"bankFields,omitempty"`
	Result       *match.Result `json:"result,omitempty"`
	ErrorCode    string        `json:"errorCode,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}
