package repository

import (
	"context"

	"github.com/andy/invoicer/internal/domain"
	"github.com/shopspring/decimal"
)

// ClientRepository manages client persistence
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error) // Ordered by name
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id int64) (bool, error) // Cascades to invoices and lines
	Count(ctx context.Context) (int, error)

	// Uniqueness lookups; an empty value never matches and excludeID (0 for
	// none) skips the client being edited.
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error)
}

// InvoiceFilter narrows List. Zero values mean no filter.
type InvoiceFilter struct {
	ClientID *int64
	Status   *domain.InvoiceStatus
	Number   string // Substring match
}

// InvoiceRepository manages invoice and line persistence
type InvoiceRepository interface {
	// Create allocates the next number with prefix, then inserts the
	// invoice and its lines.
	Create(ctx context.Context, invoice *domain.Invoice, prefix string) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)      // Header and client
	GetWithLines(ctx context.Context, id int64) (*domain.Invoice, error) // Header, client and lines
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error) // Newest first
	Update(ctx context.Context, invoice *domain.Invoice) error                 // Header and totals only
	Delete(ctx context.Context, id int64) (bool, error)                        // Cascades to lines
	Count(ctx context.Context) (int, error)
	SumTTC(ctx context.Context, status domain.InvoiceStatus) (decimal.Decimal, error)

	AddLine(ctx context.Context, invoiceID int64, line *domain.InvoiceLine) error
	UpdateLine(ctx context.Context, line *domain.InvoiceLine) error
	DeleteLine(ctx context.Context, invoiceID int64, lineID int64) error
	GetLines(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLine, error)

	// NextSequence increments and returns the invoice counter.
	NextSequence(ctx context.Context) (int, error)
}
