package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

func sampleAccount(email, userName string, mobile int64) *domain.Account {
	return &domain.Account{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		UserName:     userName,
		Email:        email,
		Address:      "London",
		MobileNo:     mobile,
		Gender:       "female",
		PasswordHash: "digest",
	}
}

func TestInsertEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo()

	created, err := repo.Insert(ctx, sampleAccount("ada@example.com", "ada", 100))
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if created.ID == uuid.Nil || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps to be assigned: %+v", created)
	}

	cases := []struct {
		name  string
		input *domain.Account
		field domain.UniqueField
	}{
		{"email", sampleAccount("ada@example.com", "other", 200), domain.UniqueEmail},
		{"user_name", sampleAccount("other@example.com", "ada", 200), domain.UniqueUserName},
		{"mobile_no", sampleAccount("other@example.com", "other", 100), domain.UniqueMobileNo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.Insert(ctx, tc.input)
			var dup *ports.DuplicateKeyError
			if !errors.As(err, &dup) {
				t.Fatalf("expected DuplicateKeyError, got %v", err)
			}
			if dup.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, dup.Field)
			}
		})
	}
}

func TestSoftDeletedAccountsAreHiddenAndFreeTheirKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo()

	created, _ := repo.Insert(ctx, sampleAccount("ada@example.com", "ada", 100))
	deleted := true
	if _, err := repo.UpdateFields(ctx, created.ID, domain.AccountUpdate{IsDeleted: &deleted}); err != nil {
		t.Fatalf("UpdateFields returned error: %v", err)
	}

	if _, err := repo.FindByEmail(ctx, "ada@example.com", false); !errors.Is(err, ports.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := repo.FindByEmailOrUsername(ctx, "", "ada", false); !errors.Is(err, ports.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	found, err := repo.FindByEmail(ctx, "ada@example.com", true)
	if err != nil || found.ID != created.ID {
		t.Fatalf("expected soft-deleted record when included: %v", err)
	}

	again, err := repo.Insert(ctx, sampleAccount("ada@example.com", "ada", 100))
	if err != nil {
		t.Fatalf("expected re-registration to succeed, got %v", err)
	}
	preferred, _ := repo.FindByEmail(ctx, "ada@example.com", true)
	if preferred.ID != again.ID {
		t.Fatalf("expected live record to be preferred")
	}

	if err := repo.DeleteByEmail(ctx, "ada@example.com"); err != nil {
		t.Fatalf("DeleteByEmail returned error: %v", err)
	}
	if _, err := repo.FindByID(ctx, created.ID); !errors.Is(err, ports.ErrAccountNotFound) {
		t.Fatalf("expected tombstone to be removed too, got %v", err)
	}
	if err := repo.DeleteByEmail(ctx, "ada@example.com"); !errors.Is(err, ports.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUpdateFieldsChecksOtherAccounts(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo()
	first, _ := repo.Insert(ctx, sampleAccount("ada@example.com", "ada", 100))
	_, _ = repo.Insert(ctx, sampleAccount("bob@example.com", "bob", 200))

	same := "ada@example.com"
	if _, err := repo.UpdateFields(ctx, first.ID, domain.AccountUpdate{Email: &same}); err != nil {
		t.Fatalf("expected unchanged email to be accepted, got %v", err)
	}

	taken := "bob@example.com"
	if _, err := repo.UpdateFields(ctx, first.ID, domain.AccountUpdate{Email: &taken}); !errors.Is(err, ports.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	exists, err := repo.ExistsOther(ctx, domain.UniqueMobileNo, int64(200), first.ID)
	if err != nil || !exists {
		t.Fatalf("expected mobile 200 to exist on another account: %v %v", exists, err)
	}
	exists, _ = repo.ExistsOther(ctx, domain.UniqueMobileNo, int64(100), first.ID)
	if exists {
		t.Fatalf("expected own mobile to be excluded")
	}
}

func TestConcurrentInsertsKeepOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Insert(ctx, sampleAccount("race@example.com", "racer", 300)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if successes != 1 {
		t.Fatalf("expected exactly one insert to win, got %d", successes)
	}
}
