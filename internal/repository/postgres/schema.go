package postgres

import "github.com/njprem/hubmarket-accounts/internal/domain"

const accountSchema = `
CREATE TABLE IF NOT EXISTS account (
    id            UUID PRIMARY KEY,
    first_name    TEXT        NOT NULL,
    last_name     TEXT        NOT NULL,
    user_name     TEXT        NOT NULL,
    email         TEXT        NOT NULL,
    address       TEXT        NOT NULL,
    mobile_no     BIGINT      NOT NULL,
    gender        TEXT        NOT NULL,
    password_hash TEXT        NOT NULL,
    photo_ref     TEXT,
    is_deleted    BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS account_email_live_key ON account (email) WHERE NOT is_deleted;
CREATE UNIQUE INDEX IF NOT EXISTS account_user_name_live_key ON account (user_name) WHERE NOT is_deleted;
CREATE UNIQUE INDEX IF NOT EXISTS account_mobile_no_live_key ON account (mobile_no) WHERE NOT is_deleted;
CREATE INDEX IF NOT EXISTS account_email_idx ON account (email);
`

// constraintFields maps unique index names to the field they guard.
var constraintFields = map[string]domain.UniqueField{
	"account_email_live_key":     domain.UniqueEmail,
	"account_user_name_live_key": domain.UniqueUserName,
	"account_mobile_no_live_key": domain.UniqueMobileNo,
}
