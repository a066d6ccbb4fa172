package domain

import "time"

type OTPEntry struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is no longer usable at now.
func (e OTPEntry) Expired(now time.Time) bool {
	return e.ExpiresAt.Before(now)
}
