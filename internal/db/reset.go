package db

import (
	"context"
	"fmt"
)

// ResetScope selects which tables Reset clears
type ResetScope int

const (
	// ResetInvoices deletes invoices and their lines and restarts numbering
	ResetInvoices ResetScope = iota
	// ResetAll also deletes clients
	ResetAll
)

// Reset deletes data in a single transaction. The invoice counter goes back
// to zero so numbering restarts at 0001.
func (db *DB) Reset(ctx context.Context, scope ResetScope) error {
	// Order matters due to foreign keys
	tables := []string{"invoice_lines", "invoices"}
	if scope == ResetAll {
		tables = append(tables, "clients")
	}

	return db.RunInTx(ctx, func(ctx context.Context) error {
		q := db.Handle(ctx)
		for _, table := range tables {
			if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		if _, err := q.ExecContext(ctx, "UPDATE invoice_counter SET value = 0 WHERE id = 1"); err != nil {
			return fmt.Errorf("failed to reset invoice counter: %w", err)
		}
		return nil
	})
}
