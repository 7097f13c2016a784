package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusValidated InvoiceStatus = "validated"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusValidated, InvoiceStatusCancelled:
		return true
	}
	return false
}

type Invoice struct {
	ID       int64
	Number   string
	Date     time.Time
	Status   InvoiceStatus
	ClientID int64

	// Derived from Lines by RecomputeTotals
	TotalHT  decimal.Decimal
	TVA      decimal.Decimal
	TotalTTC decimal.Decimal

	// Related data (populated by repository)
	Lines  []*InvoiceLine
	Client *Client
}

// NewInvoice creates a new draft invoice
func NewInvoice(number string, clientID int64, date time.Time) *Invoice {
	return &Invoice{
		Number:   number,
		Date:     date,
		Status:   InvoiceStatusDraft,
		ClientID: clientID,
		TotalHT:  decimal.Zero,
		TVA:      decimal.Zero,
		TotalTTC: decimal.Zero,
		Lines:    make([]*InvoiceLine, 0),
	}
}

// IsEditable returns true if the invoice content can be modified
func (i *Invoice) IsEditable() bool {
	return i.Status == InvoiceStatusDraft
}

// EnsureEditable returns ErrInvalidState unless the invoice is a draft.
func (i *Invoice) EnsureEditable() error {
	if !i.IsEditable() {
		return invalidStatef("cannot modify a validated or cancelled invoice")
	}
	return nil
}

// Validate moves a draft with at least one line and a client to Validated.
// Totals are expected to be current already.
func (i *Invoice) Validate() error {
	if i.Status != InvoiceStatusDraft {
		return invalidStatef("only a draft invoice can be validated (status is %s)", i.Status)
	}
	if i.ClientID == 0 {
		return validationf("cannot validate an invoice without a client")
	}
	if len(i.Lines) == 0 {
		return validationf("cannot validate an invoice with no lines")
	}
	i.Status = InvoiceStatusValidated
	return nil
}

// Cancel moves a validated invoice to Cancelled, which is terminal.
func (i *Invoice) Cancel() error {
	if i.Status != InvoiceStatusValidated {
		return invalidStatef("only a validated invoice can be cancelled (status is %s)", i.Status)
	}
	i.Status = InvoiceStatusCancelled
	return nil
}

// RecomputeTotals derives HT, TVA and TTC from the current lines.
func (i *Invoice) RecomputeTotals(taxRate decimal.Decimal) {
	t := ComputeTotals(i.Lines, taxRate)
	i.TotalHT = t.HT
	i.TVA = t.TVA
	i.TotalTTC = t.TTC
}

// CheckFields returns an error if the invoice header is invalid
func (i *Invoice) CheckFields() error {
	errs := make(ValidationErrors)
	if i.Number == "" {
		errs["number"] = "invoice number is required"
	}
	if i.ClientID <= 0 {
		errs["client_id"] = "client is required"
	}
	if i.Date.IsZero() {
		errs["date"] = "invoice date is required"
	}
	if !i.Status.Valid() {
		errs["status"] = "unknown status " + string(i.Status)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate is the function form of (*Invoice).Validate.
func Validate(inv *Invoice) error { return inv.Validate() }

// Cancel is the function form of (*Invoice).Cancel.
func Cancel(inv *Invoice) error { return inv.Cancel() }

// IsEditable is the function form of (*Invoice).IsEditable.
func IsEditable(inv *Invoice) bool { return inv.IsEditable() }
