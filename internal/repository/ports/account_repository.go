package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/njprem/hubmarket-accounts/internal/domain"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateKey    = errors.New("duplicate key")
)

// DuplicateKeyError is returned when a write would break one of the
// uniqueness constraints. It matches ErrDuplicateKey under errors.Is.
type DuplicateKeyError struct {
	Field domain.UniqueField
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("duplicate key: %s", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// AccountRepository persists accounts. Uniqueness of email, user_name and
// mobile_no is enforced by the store itself over non-deleted accounts.
type AccountRepository interface {
	FindByEmailOrUsername(ctx context.Context, email, userName string, includeDeleted bool) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string, includeDeleted bool) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Insert(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdateFields(ctx context.Context, id uuid.UUID, update domain.AccountUpdate) (*domain.Account, error)
	DeleteByEmail(ctx context.Context, email string) error
	ExistsOther(ctx context.Context, field domain.UniqueField, value any, excludeID uuid.UUID) (bool, error)
	EnsureIndexes(ctx context.Context) error
}
