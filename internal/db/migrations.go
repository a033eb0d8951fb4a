package db

import (
	"context"
	"fmt"
)

// migrate brings caches created by older versions up to the current
// schema.
func (db *DB) migrate() error {
	return db.addColumn("sources", "zone", "TEXT NOT NULL DEFAULT ''")
}

// addColumn adds a column to table unless it already exists.
func (db *DB) addColumn(table, column, decl string) error {
	ctx := context.Background()

	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
	}
	return nil
}
