package repository

import (
	"fmt"
	"time"

	"github.com/andy/invoicer/internal/domain"
)

// timeLayout is the RFC3339 format for storing times in SQLite
const timeLayout = time.RFC3339

// parseTime parses a time string in RFC3339 format
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// storageErr tags a driver failure with domain.ErrStorage, keeping the
// cause in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrStorage, op, err)
}

func notFound(kind string, key any) error {
	return fmt.Errorf("%w: %s %v", domain.ErrNotFound, kind, key)
}
