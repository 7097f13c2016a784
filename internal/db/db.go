package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

type DB struct {
	*sql.DB
}

// Open opens an encrypted SQLite database with the given password.
// dbPath is the full path to the database file.
func Open(dbPath, password string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(dbPath, password))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// dsn builds the driver connection string. Pragmas go in the DSN so every
// connection the pool opens gets them, not just the first one.
func dsn(dbPath, password string) string {
	params := url.Values{}
	// The driver sends this as PRAGMA key = "<value>".
	params.Set("_pragma_key", strings.ReplaceAll(password, `"`, `""`))
	params.Set("_foreign_keys", "1")
	params.Set("_journal_mode", "WAL")
	return dbPath + "?" + params.Encode()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
