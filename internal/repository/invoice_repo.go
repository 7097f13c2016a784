package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/domain"
	"github.com/shopspring/decimal"
)

// numberAttempts bounds retries when a generated number collides.
const numberAttempts = 3

const invoiceSelect = `
	SELECT i.id, i.number, i.date, i.status, i.client_id,
	       i.total_ht, i.tva, i.total_ttc,
	       c.id, c.name, c.email, c.phone, c.address, c.created_at
	FROM invoices i
	JOIN clients c ON c.id = i.client_id
`

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

// Create assigns invoice.Number from the counter and inserts the invoice
// with its lines in one transaction. A number already taken (for instance
// by a row imported without going through the counter) is skipped.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice, prefix string) error {
	return r.db.RunInTx(ctx, func(ctx context.Context) error {
		var lastErr error
		created := false
		for attempt := 0; attempt < numberAttempts && !created; attempt++ {
			seq, err := r.NextSequence(ctx)
			if err != nil {
				return err
			}
			invoice.Number = domain.FormatInvoiceNumber(prefix, invoice.Date, seq)
			if err := invoice.CheckFields(); err != nil {
				return fmt.Errorf("invalid invoice: %w", err)
			}

			switch err := r.insert(ctx, invoice); {
			case err == nil:
				created = true
			case db.IsUniqueViolation(err):
				lastErr = err
			default:
				return storageErr("create invoice", err)
			}
		}
		if !created {
			return storageErr("allocate invoice number", lastErr)
		}

		for _, line := range invoice.Lines {
			if err := r.AddLine(ctx, invoice.ID, line); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *InvoiceRepo) insert(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (number, date, status, client_id, total_ht, tva, total_ttc)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Handle(ctx).ExecContext(ctx, query,
		invoice.Number,
		formatTime(invoice.Date),
		string(invoice.Status),
		invoice.ClientID,
		invoice.TotalHT,
		invoice.TVA,
		invoice.TotalTTC,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	invoice.ID = id
	return nil
}

// NextSequence increments the singleton counter and returns the new value.
func (r *InvoiceRepo) NextSequence(ctx context.Context) (int, error) {
	q := r.db.Handle(ctx)

	if _, err := q.ExecContext(ctx, `UPDATE invoice_counter SET value = value + 1 WHERE id = 1`); err != nil {
		return 0, storageErr("advance invoice counter", err)
	}

	var seq int
	if err := q.QueryRowContext(ctx, `SELECT value FROM invoice_counter WHERE id = 1`).Scan(&seq); err != nil {
		return 0, storageErr("read invoice counter", err)
	}
	return seq, nil
}

// GetByID retrieves an invoice header with its client
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := scanInvoice(r.db.Handle(ctx).QueryRowContext(ctx, invoiceSelect+` WHERE i.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("invoice", id)
		}
		return nil, storageErr("get invoice", err)
	}
	return invoice, nil
}

// GetWithLines retrieves an invoice with its client and lines
func (r *InvoiceRepo) GetWithLines(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if invoice.Lines, err = r.GetLines(ctx, id); err != nil {
		return nil, err
	}
	return invoice, nil
}

// GetByNumber retrieves an invoice by invoice number
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	invoice, err := scanInvoice(r.db.Handle(ctx).QueryRowContext(ctx, invoiceSelect+` WHERE i.number = ?`, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("invoice", number)
		}
		return nil, storageErr("get invoice", err)
	}
	return invoice, nil
}

// List retrieves invoices with optional filters, newest first
func (r *InvoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error) {
	query := invoiceSelect + ` WHERE 1=1`
	args := make([]any, 0)

	if filter.ClientID != nil {
		query += " AND i.client_id = ?"
		args = append(args, *filter.ClientID)
	}

	if filter.Status != nil {
		query += " AND i.status = ?"
		args = append(args, string(*filter.Status))
	}

	if filter.Number != "" {
		query += " AND i.number LIKE ?"
		args = append(args, "%"+filter.Number+"%")
	}

	query += " ORDER BY i.date DESC, i.id DESC"

	rows, err := r.db.Handle(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list invoices", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, storageErr("scan invoice", err)
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate invoices", err)
	}

	return invoices, nil
}

// Update writes the invoice header and totals. The number never changes.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.CheckFields(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	query := `
		UPDATE invoices
		SET date = ?, status = ?, client_id = ?, total_ht = ?, tva = ?, total_ttc = ?
		WHERE id = ?
	`

	result, err := r.db.Handle(ctx).ExecContext(ctx, query,
		formatTime(invoice.Date),
		string(invoice.Status),
		invoice.ClientID,
		invoice.TotalHT,
		invoice.TVA,
		invoice.TotalTTC,
		invoice.ID,
	)
	if err != nil {
		return storageErr("update invoice", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("get rows affected", err)
	}
	if rows == 0 {
		return notFound("invoice", invoice.ID)
	}

	return nil
}

// Delete removes an invoice and its lines, reporting whether it existed.
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Handle(ctx).ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("delete invoice", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("get rows affected", err)
	}
	return rows > 0, nil
}

// Count returns the number of invoices
func (r *InvoiceRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Handle(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil {
		return 0, storageErr("count invoices", err)
	}
	return n, nil
}

// SumTTC adds up TotalTTC of every invoice in status. Amounts are stored as
// text, so the sum is done in decimal rather than by SQLite.
func (r *InvoiceRepo) SumTTC(ctx context.Context, status domain.InvoiceStatus) (decimal.Decimal, error) {
	rows, err := r.db.Handle(ctx).QueryContext(ctx, `SELECT total_ttc FROM invoices WHERE status = ?`, string(status))
	if err != nil {
		return decimal.Zero, storageErr("sum invoices", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var ttc decimal.Decimal
		if err := rows.Scan(&ttc); err != nil {
			return decimal.Zero, storageErr("scan total", err)
		}
		sum = sum.Add(ttc)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, storageErr("iterate totals", err)
	}
	return sum, nil
}

// AddLine inserts a line for an invoice
func (r *InvoiceRepo) AddLine(ctx context.Context, invoiceID int64, line *domain.InvoiceLine) error {
	if err := line.Validate(); err != nil {
		return fmt.Errorf("invalid line: %w", err)
	}

	query := `
		INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Handle(ctx).ExecContext(ctx, query,
		invoiceID,
		line.Description,
		line.Quantity,
		line.UnitPrice,
	)
	if err != nil {
		return storageErr("add line", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("get line ID", err)
	}

	line.ID = id
	line.InvoiceID = invoiceID
	return nil
}

// UpdateLine overwrites description, quantity and unit price of a line
func (r *InvoiceRepo) UpdateLine(ctx context.Context, line *domain.InvoiceLine) error {
	if err := line.Validate(); err != nil {
		return fmt.Errorf("invalid line: %w", err)
	}

	query := `
		UPDATE invoice_lines
		SET description = ?, quantity = ?, unit_price = ?
		WHERE id = ? AND invoice_id = ?
	`

	result, err := r.db.Handle(ctx).ExecContext(ctx, query,
		line.Description,
		line.Quantity,
		line.UnitPrice,
		line.ID,
		line.InvoiceID,
	)
	if err != nil {
		return storageErr("update line", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("get rows affected", err)
	}
	if rows == 0 {
		return notFound("invoice line", line.ID)
	}
	return nil
}

// DeleteLine removes a specific line from an invoice
func (r *InvoiceRepo) DeleteLine(ctx context.Context, invoiceID int64, lineID int64) error {
	query := `
		DELETE FROM invoice_lines
		WHERE id = ? AND invoice_id = ?
	`

	result, err := r.db.Handle(ctx).ExecContext(ctx, query, lineID, invoiceID)
	if err != nil {
		return storageErr("delete line", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("get rows affected", err)
	}

	if rows == 0 {
		return notFound("invoice line", lineID)
	}

	return nil
}

// GetLines retrieves all lines for an invoice in insertion order
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price
		FROM invoice_lines
		WHERE invoice_id = ?
		ORDER BY id
	`

	rows, err := r.db.Handle(ctx).QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, storageErr("get lines", err)
	}
	defer rows.Close()

	lines := make([]*domain.InvoiceLine, 0)
	for rows.Next() {
		line := &domain.InvoiceLine{}

		err := rows.Scan(
			&line.ID,
			&line.InvoiceID,
			&line.Description,
			&line.Quantity,
			&line.UnitPrice,
		)
		if err != nil {
			return nil, storageErr("scan line", err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate lines", err)
	}

	return lines, nil
}

// scanInvoice reads one row of invoiceSelect
func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{Client: &domain.Client{}}
	var date, status, clientCreatedAt string

	err := row.Scan(
		&invoice.ID,
		&invoice.Number,
		&date,
		&status,
		&invoice.ClientID,
		&invoice.TotalHT,
		&invoice.TVA,
		&invoice.TotalTTC,
		&invoice.Client.ID,
		&invoice.Client.Name,
		&invoice.Client.Email,
		&invoice.Client.Phone,
		&invoice.Client.Address,
		&clientCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if invoice.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if invoice.Client.CreatedAt, err = parseTime(clientCreatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse client created_at: %w", err)
	}

	invoice.Status = domain.InvoiceStatus(status)
	return invoice, nil
}
