package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceOptions carries the configured invoice rules
type InvoiceOptions struct {
	TaxRate      decimal.Decimal
	NumberPrefix string

	// StrictReconcile rejects edits that reference line IDs the invoice
	// doesn't have, instead of ignoring them.
	StrictReconcile bool
}

// DefaultInvoiceOptions returns the 20% rate and the FAC prefix
func DefaultInvoiceOptions() InvoiceOptions {
	return InvoiceOptions{
		TaxRate:      domain.DefaultTaxRate,
		NumberPrefix: domain.DefaultNumberPrefix,
	}
}

// InvoiceEdit is the new content of a draft invoice. Lines replaces the
// whole line set: lines with an ID update the matching persisted line, lines
// with ID 0 are added, and persisted lines left out are removed.
type InvoiceEdit struct {
	Date     *time.Time
	ClientID *int64
	Lines    []*domain.InvoiceLine
}

// InvoiceService manages invoice lifecycle, lines and totals
type InvoiceService interface {
	// Create creates a draft invoice dated now with an auto-generated number
	Create(ctx context.Context, clientID int64, lines []*domain.InvoiceLine) (*domain.Invoice, error)

	// Get retrieves an invoice with its client and lines
	Get(ctx context.Context, id int64) (*domain.Invoice, error)

	// GetByNumber retrieves an invoice with its client and lines by number
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)

	// List lists invoices with their client, newest first
	List(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error)

	// Update applies edit to a draft invoice and recomputes its totals
	Update(ctx context.Context, id int64, edit InvoiceEdit) (*domain.Invoice, error)

	// Delete removes a draft invoice. Missing invoices are ignored.
	Delete(ctx context.Context, id int64) error

	// Validate moves a draft to Validated
	Validate(ctx context.Context, id int64) (*domain.Invoice, error)

	// Cancel moves a validated invoice to Cancelled
	Cancel(ctx context.Context, id int64) (*domain.Invoice, error)

	// RecomputeTotals recomputes and saves the totals of a draft invoice
	RecomputeTotals(ctx context.Context, id int64) (*domain.Invoice, error)
}

type invoiceService struct {
	tx          TxRunner
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	opts        InvoiceOptions
	log         *zap.Logger
	now         func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	tx TxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	opts InvoiceOptions,
	log *zap.Logger,
) (InvoiceService, error) {
	if err := domain.CheckTaxRate(opts.TaxRate); err != nil {
		return nil, err
	}
	if opts.NumberPrefix == "" {
		opts.NumberPrefix = domain.DefaultNumberPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &invoiceService{
		tx:          tx,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		opts:        opts,
		log:         log.Named("invoices"),
		now:         time.Now,
	}, nil
}

func (s *invoiceService) Create(ctx context.Context, clientID int64, lines []*domain.InvoiceLine) (*domain.Invoice, error) {
	if err := domain.ValidateLines(lines); err != nil {
		s.log.Warn("rejected invoice lines", zap.Int64("client_id", clientID), zap.Error(err))
		return nil, err
	}

	// The number takes its month from the local date the user sees.
	invoice := domain.NewInvoice("", clientID, s.now())
	for _, l := range lines {
		if l != nil {
			invoice.Lines = append(invoice.Lines, domain.NewInvoiceLine(l.Description, l.Quantity, l.UnitPrice))
		}
	}
	invoice.RecomputeTotals(s.opts.TaxRate)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		client, err := s.requireClient(ctx, clientID)
		if err != nil {
			return err
		}
		invoice.Client = client

		return s.invoiceRepo.Create(ctx, invoice, s.opts.NumberPrefix)
	})
	if err != nil {
		s.logFailure("failed to create invoice", 0, err)
		return nil, err
	}

	s.log.Info("invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("number", invoice.Number),
		zap.Int64("client_id", clientID),
		zap.Stringer("total_ttc", invoice.TotalTTC),
	)
	return invoice, nil
}

func (s *invoiceService) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.GetWithLines(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		found, err := s.invoiceRepo.GetByNumber(ctx, number)
		if err != nil {
			return err
		}
		if found.Lines, err = s.invoiceRepo.GetLines(ctx, found.ID); err != nil {
			return err
		}
		invoice = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error) {
	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		s.log.Error("failed to list invoices", zap.Error(err))
		return nil, err
	}
	return invoices, nil
}

func (s *invoiceService) Update(ctx context.Context, id int64, edit InvoiceEdit) (*domain.Invoice, error) {
	if err := domain.ValidateLines(edit.Lines); err != nil {
		s.log.Warn("rejected invoice lines", zap.Int64("invoice_id", id), zap.Error(err))
		return nil, err
	}

	var invoice *domain.Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if invoice, err = s.invoiceRepo.GetWithLines(ctx, id); err != nil {
			return err
		}
		if err := invoice.EnsureEditable(); err != nil {
			return err
		}

		if edit.ClientID != nil && *edit.ClientID != invoice.ClientID {
			client, err := s.requireClient(ctx, *edit.ClientID)
			if err != nil {
				return err
			}
			invoice.ClientID = client.ID
			invoice.Client = client
		}
		if edit.Date != nil {
			invoice.Date = edit.Date.UTC()
		}

		if err := s.applyLines(ctx, invoice, edit.Lines); err != nil {
			return err
		}

		invoice.RecomputeTotals(s.opts.TaxRate)
		return s.invoiceRepo.Update(ctx, invoice)
	})
	if err != nil {
		s.logFailure("failed to update invoice", id, err)
		return nil, err
	}

	s.log.Info("invoice updated",
		zap.Int64("invoice_id", id),
		zap.Int("lines", len(invoice.Lines)),
		zap.Stringer("total_ttc", invoice.TotalTTC),
	)
	return invoice, nil
}

// applyLines reconciles incoming against the invoice's persisted lines and
// writes the difference. invoice.Lines ends up as the final set.
func (s *invoiceService) applyLines(ctx context.Context, invoice *domain.Invoice, incoming []*domain.InvoiceLine) error {
	opts := []domain.ReconcileOption{domain.ForInvoice(invoice.ID)}
	if s.opts.StrictReconcile {
		opts = append(opts, domain.StrictUnmatched())
	}

	rec, err := domain.ReconcileLines(invoice.Lines, incoming, opts...)
	if err != nil {
		return err
	}
	if len(rec.Unmatched) > 0 {
		s.log.Warn("ignored lines not on invoice",
			zap.Int64("invoice_id", invoice.ID),
			zap.Int64s("line_ids", rec.Unmatched),
		)
	}

	for _, l := range rec.ToDelete {
		if err := s.invoiceRepo.DeleteLine(ctx, invoice.ID, l.ID); err != nil {
			return err
		}
	}
	for _, l := range rec.ToUpdate {
		if err := s.invoiceRepo.UpdateLine(ctx, l); err != nil {
			return err
		}
	}
	for _, l := range rec.ToInsert {
		if err := s.invoiceRepo.AddLine(ctx, invoice.ID, l); err != nil {
			return err
		}
	}

	s.log.Debug("reconciled invoice lines",
		zap.Int64("invoice_id", invoice.ID),
		zap.Int("inserted", len(rec.ToInsert)),
		zap.Int("updated", len(rec.ToUpdate)),
		zap.Int("deleted", len(rec.ToDelete)),
	)

	invoice.Lines = rec.Final
	return nil
}

func (s *invoiceService) Delete(ctx context.Context, id int64) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		invoice, err := s.invoiceRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := invoice.EnsureEditable(); err != nil {
			return err
		}
		_, err = s.invoiceRepo.Delete(ctx, id)
		return err
	})

	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.log.Warn("invoice to delete not found", zap.Int64("invoice_id", id))
		return nil
	case err != nil:
		s.logFailure("failed to delete invoice", id, err)
		return err
	}

	s.log.Info("invoice deleted", zap.Int64("invoice_id", id))
	return nil
}

func (s *invoiceService) Validate(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.transition(ctx, id, (*domain.Invoice).Validate)
	if err != nil {
		s.logFailure("failed to validate invoice", id, err)
		return nil, err
	}

	s.log.Info("invoice validated",
		zap.Int64("invoice_id", id),
		zap.String("number", invoice.Number),
		zap.Stringer("total_ttc", invoice.TotalTTC),
	)
	return invoice, nil
}

func (s *invoiceService) Cancel(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.transition(ctx, id, (*domain.Invoice).Cancel)
	if err != nil {
		s.logFailure("failed to cancel invoice", id, err)
		return nil, err
	}

	s.log.Info("invoice cancelled", zap.Int64("invoice_id", id), zap.String("number", invoice.Number))
	return invoice, nil
}

func (s *invoiceService) RecomputeTotals(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.transition(ctx, id, (*domain.Invoice).EnsureEditable)
	if err != nil {
		s.logFailure("failed to recompute totals", id, err)
		return nil, err
	}

	s.log.Info("invoice totals recomputed",
		zap.Int64("invoice_id", id),
		zap.Stringer("total_ht", invoice.TotalHT),
		zap.Stringer("tva", invoice.TVA),
		zap.Stringer("total_ttc", invoice.TotalTTC),
	)
	return invoice, nil
}

// transition loads an invoice with its lines, applies step and saves it,
// all in one transaction. Totals are recomputed only when the invoice was
// a draft; validated and cancelled invoices keep the totals they were
// validated with.
func (s *invoiceService) transition(ctx context.Context, id int64, step func(*domain.Invoice) error) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if invoice, err = s.invoiceRepo.GetWithLines(ctx, id); err != nil {
			return err
		}

		draft := invoice.IsEditable()
		if err := step(invoice); err != nil {
			return err
		}

		if draft {
			invoice.RecomputeTotals(s.opts.TaxRate)
		}
		return s.invoiceRepo.Update(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// requireClient loads a client, reporting a missing one as a validation
// failure of the invoice.
func (s *invoiceService) requireClient(ctx context.Context, clientID int64) (*domain.Client, error) {
	if clientID <= 0 {
		return nil, fmt.Errorf("%w: client is required", domain.ErrValidationFailed)
	}

	client, err := s.clientRepo.GetByID(ctx, clientID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: client %d does not exist", domain.ErrValidationFailed, clientID)
	}
	return client, err
}

func (s *invoiceService) logFailure(msg string, id int64, err error) {
	fields := []zap.Field{zap.Error(err)}
	if id != 0 {
		fields = append(fields, zap.Int64("invoice_id", id))
	}

	if errors.Is(err, domain.ErrStorage) {
		s.log.Error(msg, fields...)
		return
	}
	s.log.Warn(msg, fields...)
}
