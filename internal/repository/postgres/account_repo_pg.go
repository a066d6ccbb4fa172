package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

const accountColumns = `id, first_name, last_name, user_name, email, address, mobile_no, gender,
        password_hash, photo_ref, is_deleted, created_at, updated_at`

const uniqueViolationCode = "23505"

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, accountSchema)
	return err
}

func (r *AccountRepository) FindByEmailOrUsername(ctx context.Context, email, userName string, includeDeleted bool) (*domain.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM account
        WHERE ((email = $1 AND $1 <> '') OR (user_name = $2 AND $2 <> ''))
          AND ($3 OR NOT is_deleted)
        ORDER BY is_deleted ASC, updated_at DESC
        LIMIT 1
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email, userName, includeDeleted); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*domain.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM account
        WHERE email = $1 AND ($2 OR NOT is_deleted)
        ORDER BY is_deleted ASC, updated_at DESC
        LIMIT 1
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email, includeDeleted); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM account
        WHERE id = $1
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `
        INSERT INTO account (
            id, first_name, last_name, user_name, email, address, mobile_no, gender,
            password_hash, photo_ref, is_deleted, created_at, updated_at
        ) VALUES (
            :id, :first_name, :last_name, :user_name, :email, :address, :mobile_no, :gender,
            :password_hash, :photo_ref, :is_deleted, :created_at, :updated_at
        )
        RETURNING ` + accountColumns

	now := time.Now().UTC()
	id := account.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	args := map[string]any{
		"id":            id,
		"first_name":    account.FirstName,
		"last_name":     account.LastName,
		"user_name":     account.UserName,
		"email":         account.Email,
		"address":       account.Address,
		"mobile_no":     account.MobileNo,
		"gender":        account.Gender,
		"password_hash": account.PasswordHash,
		"photo_ref":     account.PhotoRef,
		"is_deleted":    false,
		"created_at":    now,
		"updated_at":    now,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, mapError(err)
		}
		return nil, sql.ErrNoRows
	}
	var created domain.Account
	if err := rows.StructScan(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *AccountRepository) UpdateFields(ctx context.Context, id uuid.UUID, update domain.AccountUpdate) (*domain.Account, error) {
	query := `
        UPDATE account
        SET first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            user_name = COALESCE($4, user_name),
            email = COALESCE($5, email),
            address = COALESCE($6, address),
            mobile_no = COALESCE($7, mobile_no),
            gender = COALESCE($8, gender),
            password_hash = COALESCE($9, password_hash),
            photo_ref = COALESCE($10, photo_ref),
            is_deleted = COALESCE($11, is_deleted),
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + accountColumns

	row := r.db.QueryRowxContext(ctx, query, id,
		update.FirstName, update.LastName, update.UserName, update.Email, update.Address,
		update.MobileNo, update.Gender, update.PasswordHash, update.PhotoRef, update.IsDeleted)
	var account domain.Account
	if err := row.StructScan(&account); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

// DeleteByEmail removes every record registered under email, soft-deleted ones included.
func (r *AccountRepository) DeleteByEmail(ctx context.Context, email string) error {
	const query = `DELETE FROM account WHERE email = $1`
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) ExistsOther(ctx context.Context, field domain.UniqueField, value any, excludeID uuid.UUID) (bool, error) {
	column, err := uniqueColumn(field)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
        SELECT EXISTS (
            SELECT 1 FROM account
            WHERE %s = $1 AND id <> $2 AND NOT is_deleted
        )
    `, column)
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, value, excludeID); err != nil {
		return false, err
	}
	return exists, nil
}

func uniqueColumn(field domain.UniqueField) (string, error) {
	switch field {
	case domain.UniqueEmail, domain.UniqueUserName, domain.UniqueMobileNo:
		return string(field), nil
	default:
		return "", fmt.Errorf("postgres: unknown unique field %q", field)
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrAccountNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &ports.DuplicateKeyError{Field: constraintFields[pgErr.ConstraintName]}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return &ports.DuplicateKeyError{Field: constraintFields[pqErr.Constraint]}
	}
	return err
}
