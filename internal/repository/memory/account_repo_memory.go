package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

// AccountRepository keeps accounts in process memory. Writes hold the lock
// across the uniqueness check so it behaves like a store-level constraint.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]domain.Account
	now      func() time.Time
}

func NewAccountRepo() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[uuid.UUID]domain.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (r *AccountRepository) FindByEmailOrUsername(ctx context.Context, email, userName string, includeDeleted bool) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pickLocked(func(a domain.Account) bool {
		return (email != "" && a.Email == email) || (userName != "" && a.UserName == userName)
	}, includeDeleted)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pickLocked(func(a domain.Account) bool { return a.Email == email }, includeDeleted)
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, ports.ErrAccountNotFound
	}
	return &account, nil
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *account
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	if _, exists := r.accounts[created.ID]; exists {
		return nil, fmt.Errorf("memory: account %s already exists", created.ID)
	}
	created.IsDeleted = false
	if err := r.checkUniqueLocked(created, created.ID); err != nil {
		return nil, err
	}
	now := r.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.accounts[created.ID] = created
	return &created, nil
}

func (r *AccountRepository) UpdateFields(ctx context.Context, id uuid.UUID, update domain.AccountUpdate) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.accounts[id]
	if !ok {
		return nil, ports.ErrAccountNotFound
	}
	next := current
	update.Apply(&next)
	if !next.IsDeleted {
		if err := r.checkUniqueLocked(next, id); err != nil {
			return nil, err
		}
	}
	next.UpdatedAt = r.now()
	r.accounts[id] = next
	return &next, nil
}

// DeleteByEmail removes every record registered under email, soft-deleted ones included.
func (r *AccountRepository) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, account := range r.accounts {
		if account.Email == email {
			delete(r.accounts, id)
			removed++
		}
	}
	if removed == 0 {
		return ports.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) ExistsOther(ctx context.Context, field domain.UniqueField, value any, excludeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, account := range r.accounts {
		if id == excludeID || account.IsDeleted {
			continue
		}
		switch field {
		case domain.UniqueEmail:
			if v, ok := value.(string); ok && account.Email == v {
				return true, nil
			}
		case domain.UniqueUserName:
			if v, ok := value.(string); ok && account.UserName == v {
				return true, nil
			}
		case domain.UniqueMobileNo:
			if v, ok := value.(int64); ok && account.MobileNo == v {
				return true, nil
			}
		default:
			return false, fmt.Errorf("memory: unknown unique field %q", field)
		}
	}
	return false, nil
}

func (r *AccountRepository) checkUniqueLocked(candidate domain.Account, self uuid.UUID) error {
	for id, other := range r.accounts {
		if id == self || other.IsDeleted {
			continue
		}
		switch {
		case other.Email == candidate.Email:
			return &ports.DuplicateKeyError{Field: domain.UniqueEmail}
		case other.UserName == candidate.UserName:
			return &ports.DuplicateKeyError{Field: domain.UniqueUserName}
		case other.MobileNo == candidate.MobileNo:
			return &ports.DuplicateKeyError{Field: domain.UniqueMobileNo}
		}
	}
	return nil
}

// pickLocked prefers live records, then the most recently updated one.
func (r *AccountRepository) pickLocked(match func(domain.Account) bool, includeDeleted bool) (*domain.Account, error) {
	var candidates []domain.Account
	for _, account := range r.accounts {
		if !includeDeleted && account.IsDeleted {
			continue
		}
		if match(account) {
			candidates = append(candidates, account)
		}
	}
	if len(candidates) == 0 {
		return nil, ports.ErrAccountNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].IsDeleted != candidates[j].IsDeleted {
			return !candidates[i].IsDeleted
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})
	found := candidates[0]
	return &found, nil
}
