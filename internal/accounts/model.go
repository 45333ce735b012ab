package accounts

import "time"

// Verification statuses stored on an account. StatusUnset is the state of an
// account that has never completed a verification run.
const (
	StatusUnset       = ""
	StatusVerified    = "verified"
	StatusNotVerified = "not_verified"
)

// Account is the per-username verification record. Accounts are created on
// first sight of a username and never deleted by this service.
type Account struct {
	Username  string    `json:"username"`
	Status    string    `json:"verificationStatus"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile holds the latest identity data extracted from a user's ID document.
type Profile struct {
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
