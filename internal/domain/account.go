package domain

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	UserName     string    `db:"user_name" json:"user_name"`
	Email        string    `db:"email" json:"email"`
	Address      string    `db:"address" json:"address"`
	MobileNo     int64     `db:"mobile_no" json:"mobile_no"`
	Gender       string    `db:"gender" json:"gender"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PhotoRef     *string   `db:"photo_ref" json:"photo_ref,omitempty"`
	IsDeleted    bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AccountUpdate lists the columns UpdateFields may touch. Nil means unchanged.
type AccountUpdate struct {
	FirstName    *string
	LastName     *string
	UserName     *string
	Email        *string
	Address      *string
	MobileNo     *int64
	Gender       *string
	PasswordHash *string
	PhotoRef     *string
	IsDeleted    *bool
}

func (u AccountUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.UserName == nil && u.Email == nil &&
		u.Address == nil && u.MobileNo == nil && u.Gender == nil && u.PasswordHash == nil &&
		u.PhotoRef == nil && u.IsDeleted == nil
}

// Apply copies the non-nil fields onto a.
func (u AccountUpdate) Apply(a *Account) {
	if u.FirstName != nil {
		a.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		a.LastName = *u.LastName
	}
	if u.UserName != nil {
		a.UserName = *u.UserName
	}
	if u.Email != nil {
		a.Email = *u.Email
	}
	if u.Address != nil {
		a.Address = *u.Address
	}
	if u.MobileNo != nil {
		a.MobileNo = *u.MobileNo
	}
	if u.Gender != nil {
		a.Gender = *u.Gender
	}
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.PhotoRef != nil {
		ref := *u.PhotoRef
		a.PhotoRef = &ref
	}
	if u.IsDeleted != nil {
		a.IsDeleted = *u.IsDeleted
	}
}

// UniqueField names an account attribute that must be unique among live accounts.
type UniqueField string

const (
	UniqueEmail    UniqueField = "email"
	UniqueUserName UniqueField = "user_name"
	UniqueMobileNo UniqueField = "mobile_no"
)
