package domain

import "time"

// PasswordReset is the persisted form of a reset code. Only a digest of the
// code is stored.
type PasswordReset struct {
	Email     string    `db:"email" json:"email"`
	CodeHash  []byte    `db:"code_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (r PasswordReset) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}
