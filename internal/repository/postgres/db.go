package postgres

import (
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const defaultDriver = "pgx"

// New opens a pool with the named database/sql driver ("pgx" or "postgres").
func New(driver, dsn string) (*sqlx.DB, error) {
	driver = strings.TrimSpace(driver)
	if driver == "" {
		driver = defaultDriver
	}
	return sqlx.Connect(driver, dsn)
}
