package service

import "errors"

// Kind is the coarse category surfaced to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
	KindPersistence
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindPersistence:
		return "persistence"
	case KindNotification:
		return "notification"
	default:
		return "internal"
	}
}

// Error is a user-safe failure. Message never carries storage or transport detail.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrMissingFields       = newError(KindValidation, "all fields are required")
	ErrInvalidMobile       = newError(KindValidation, "mobile_no must be numeric")
	ErrInvalidImage        = newError(KindValidation, "only image files are allowed")
	ErrImageTooLarge       = newError(KindValidation, "image exceeds size limit")
	ErrPasswordTooLong     = newError(KindValidation, "password must be at most 72 bytes")
	ErrNotFound            = newError(KindNotFound, "user not found")
	ErrBadCredentials      = newError(KindAuth, "wrong password")
	ErrInvalidOrExpiredOTP = newError(KindAuth, "invalid or expired otp")
	ErrDuplicateUser       = newError(KindConflict, "user already exists")
	ErrConflictEmail       = newError(KindConflict, "email already in use")
	ErrConflictMobile      = newError(KindConflict, "mobile number already in use")
	ErrConflictUsername    = newError(KindConflict, "user name already in use")
	ErrAlreadyDeleted      = newError(KindConflict, "user already deleted")
	ErrPersistence         = newError(KindPersistence, "internal server error")
	ErrNotification        = newError(KindNotification, "unable to send email")
)

// KindOf reports the category of err, KindInternal when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the text safe to show a caller. Validation errors keep
// their wrapped detail (which fields are missing); others use the sentinel text.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ErrPersistence.Message
	}
	if e.Kind == KindValidation {
		return err.Error()
	}
	return e.Message
}
