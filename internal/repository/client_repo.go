package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/domain"
	"golang.org/x/text/cases"
)

const clientColumns = `id, name, email, phone, address, created_at`

// ClientRepo is a SQLite implementation of ClientRepository
type ClientRepo struct {
	db *db.DB
}

// NewClientRepo creates a new ClientRepo
func NewClientRepo(database *db.DB) *ClientRepo {
	return &ClientRepo{db: database}
}

// Create inserts a new client into the database
func (r *ClientRepo) Create(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("invalid client: %w", err)
	}

	query := `
		INSERT INTO clients (name, email, phone, address, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Handle(ctx).ExecContext(ctx, query,
		client.Name,
		client.Email,
		client.Phone,
		client.Address,
		formatTime(client.CreatedAt),
	)
	if err != nil {
		return storageErr("create client", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get client ID", err)
	}

	client.ID = id
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(r.db.Handle(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("client", id)
		}
		return nil, storageErr("get client", err)
	}
	return client, nil
}

// List retrieves all clients ordered by name
func (r *ClientRepo) List(ctx context.Context) ([]*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name COLLATE NOCASE, id`

	rows, err := r.db.Handle(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("list clients", err)
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, storageErr("scan client", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate clients", err)
	}

	return clients, nil
}

// Update updates an existing client. CreatedAt is never written.
func (r *ClientRepo) Update(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("invalid client: %w", err)
	}

	query := `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, address = ?
		WHERE id = ?
	`

	result, err := r.db.Handle(ctx).ExecContext(ctx, query,
		client.Name,
		client.Email,
		client.Phone,
		client.Address,
		client.ID,
	)
	if err != nil {
		return storageErr("update client", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("get rows affected", err)
	}
	if rows == 0 {
		return notFound("client", client.ID)
	}

	return nil
}

// Delete removes a client and, through the foreign keys, its invoices. It
// reports whether a row was removed.
func (r *ClientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Handle(ctx).ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("delete client", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("get rows affected", err)
	}
	return rows > 0, nil
}

// Count returns the number of clients
func (r *ClientRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Handle(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, storageErr("count clients", err)
	}
	return n, nil
}

// EmailExists reports whether another client has exactly this email.
func (r *ClientRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}

	query := `SELECT EXISTS (SELECT 1 FROM clients WHERE email = ? AND id <> ?)`

	var exists bool
	if err := r.db.Handle(ctx).QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, storageErr("check email", err)
	}
	return exists, nil
}

// NameExists reports whether another client has this name, ignoring case.
// SQLite's NOCASE only folds ASCII, so names are folded here.
func (r *ClientRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}

	fold := cases.Fold()
	want := fold.String(name)

	return r.anyColumn(ctx, "name", excludeID, func(v string) bool {
		return fold.String(strings.TrimSpace(v)) == want
	})
}

// PhoneExists reports whether another client has the same phone once
// separators are stripped.
func (r *ClientRepo) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	want := domain.NormalizePhone(phone)
	if want == "" {
		return false, nil
	}

	return r.anyColumn(ctx, "phone", excludeID, func(v string) bool {
		return domain.NormalizePhone(v) == want
	})
}

// anyColumn scans a text column of every other client until match accepts
// a value. column is always a constant from this file.
func (r *ClientRepo) anyColumn(ctx context.Context, column string, excludeID int64, match func(string) bool) (bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id <> ? AND %s <> ''`, column, column)

	rows, err := r.db.Handle(ctx).QueryContext(ctx, query, excludeID)
	if err != nil {
		return false, storageErr("check "+column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return false, storageErr("scan "+column, err)
		}
		if match(v) {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, storageErr("iterate "+column, err)
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*domain.Client, error) {
	client := &domain.Client{}
	var createdAt string

	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.Address,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if client.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return client, nil
}
