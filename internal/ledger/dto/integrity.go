package dto

import "time"

// IntegrityResponse is the outcome of a ledger verification.
type IntegrityResponse struct {
	Status           string    `json:"status"`
	VerifiedAt       time.Time `json:"verified_at"`
	EntriesChecked   int64     `json:"entries_checked"`
	FirstBadSequence *int64    `json:"first_bad_sequence,omitempty"`
	Reason           string    `json:"reason,omitempty"`
}
