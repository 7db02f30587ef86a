package store

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewPostgresDB wraps a pooled postgres handle with bun's postgres dialect.
// The pool stays owned by the host application.
func NewPostgresDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}

// NewSQLiteDB wraps a sqlite handle with bun's sqlite dialect. Single-writer
// deployments and tests use this; the caller is responsible for limiting the
// connection count on in-memory databases.
func NewSQLiteDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, sqlitedialect.New())
}
