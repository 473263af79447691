// Package dbx provides a minimal DB abstraction shared by SQL repositories:
// an interface (DBTX) implemented by both *sql.DB and *sql.Tx, so a repository
// can run either standalone or inside a caller-managed transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
