package ports

import (
	"context"
	"errors"

	"github.com/njprem/hubmarket-accounts/internal/domain"
)

var ErrResetNotFound = errors.New("password reset not found")

// PasswordResetRepository keeps at most one pending reset per email.
type PasswordResetRepository interface {
	Upsert(ctx context.Context, reset domain.PasswordReset) error
	FindByEmail(ctx context.Context, email string) (*domain.PasswordReset, error)
	DeleteByEmail(ctx context.Context, email string) error
}
