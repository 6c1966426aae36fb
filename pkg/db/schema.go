// pkg/db/schema.go
package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for the wallets and transactions tables.
func Schema() string {
	return schemaSQL
}

// EnsureSchema creates the tables, indexes and the immutability trigger if they do not exist.
// It is a bootstrap for local runs and tests, not a migration tool.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
