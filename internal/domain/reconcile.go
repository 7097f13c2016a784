package domain

// Reconciliation is the outcome of merging an edited line set into the
// persisted one.
type Reconciliation struct {
	ToInsert []*InvoiceLine
	ToUpdate []*InvoiceLine
	ToDelete []*InvoiceLine

	// Final is the resulting line set: surviving persisted lines in their
	// original order, then inserts.
	Final []*InvoiceLine

	// Unmatched holds incoming IDs that have no persisted counterpart.
	Unmatched []int64
}

type reconcileOptions struct {
	strict    bool
	invoiceID int64
}

// ReconcileOption tunes ReconcileLines.
type ReconcileOption func(*reconcileOptions)

// StrictUnmatched makes an incoming ID without a persisted match fail with
// ErrValidationFailed instead of being ignored.
func StrictUnmatched() ReconcileOption {
	return func(o *reconcileOptions) { o.strict = true }
}

// ForInvoice sets the InvoiceID of inserted lines.
func ForInvoice(id int64) ReconcileOption {
	return func(o *reconcileOptions) { o.invoiceID = id }
}

// ReconcileLines matches incoming lines against persisted ones by ID.
// Persisted lines missing from incoming are deleted, matched ones are
// overwritten in place, and ID 0 lines are inserted. Without ForInvoice,
// inserts take the InvoiceID of the persisted lines, which is 0 when there
// are none.
func ReconcileLines(persisted, incoming []*InvoiceLine, opts ...ReconcileOption) (Reconciliation, error) {
	var o reconcileOptions
	for _, opt := range opts {
		opt(&o)
	}

	var withID, fresh []*InvoiceLine
	for _, l := range incoming {
		if l == nil {
			continue
		}
		if l.IsNew() {
			fresh = append(fresh, l)
		} else {
			withID = append(withID, l)
		}
	}

	keep := make(map[int64]*InvoiceLine, len(withID))
	for _, l := range withID {
		keep[l.ID] = l
	}

	var r Reconciliation
	known := make(map[int64]bool, len(persisted))
	for _, p := range persisted {
		known[p.ID] = true
	}
	for _, l := range withID {
		if !known[l.ID] {
			r.Unmatched = append(r.Unmatched, l.ID)
		}
	}
	if o.strict && len(r.Unmatched) > 0 {
		return Reconciliation{}, validationf("line %d does not belong to this invoice", r.Unmatched[0])
	}

	for _, p := range persisted {
		in, ok := keep[p.ID]
		if !ok {
			r.ToDelete = append(r.ToDelete, p)
			continue
		}
		p.Description = in.Description
		p.Quantity = in.Quantity
		p.UnitPrice = in.UnitPrice
		r.ToUpdate = append(r.ToUpdate, p)
		r.Final = append(r.Final, p)
	}

	invoiceID := o.invoiceID
	if invoiceID == 0 && len(persisted) > 0 {
		invoiceID = persisted[0].InvoiceID
	}
	for _, l := range fresh {
		line := &InvoiceLine{
			InvoiceID:   invoiceID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
		r.ToInsert = append(r.ToInsert, line)
		r.Final = append(r.Final, line)
	}

	return r, nil
}
