package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

const passwordResetSchema = `
CREATE TABLE IF NOT EXISTS password_reset (
    email      TEXT PRIMARY KEY,
    code_hash  BYTEA       NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS password_reset_expires_idx ON password_reset (expires_at);
`

type PasswordResetRepository struct {
	db *sqlx.DB
}

func NewPasswordResetRepo(db *sqlx.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, passwordResetSchema)
	return err
}

func (r *PasswordResetRepository) Upsert(ctx context.Context, reset domain.PasswordReset) error {
	const query = `
        INSERT INTO password_reset (email, code_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE
        SET code_hash = EXCLUDED.code_hash,
            expires_at = EXCLUDED.expires_at,
            created_at = EXCLUDED.created_at
    `
	_, err := r.db.ExecContext(ctx, query, reset.Email, reset.CodeHash, reset.ExpiresAt, reset.CreatedAt)
	return err
}

func (r *PasswordResetRepository) FindByEmail(ctx context.Context, email string) (*domain.PasswordReset, error) {
	const query = `
        SELECT email, code_hash, expires_at, created_at
        FROM password_reset
        WHERE email = $1
    `
	var reset domain.PasswordReset
	if err := r.db.GetContext(ctx, &reset, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrResetNotFound
		}
		return nil, err
	}
	return &reset, nil
}

func (r *PasswordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_reset WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ports.ErrResetNotFound
	}
	return nil
}

// DeleteExpired removes resets that expired before now.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_reset WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
