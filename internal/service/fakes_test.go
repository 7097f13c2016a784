package service

import (
	"context"
	"sort"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/shopspring/decimal"
)

// noTx runs fn directly
type noTx struct{ calls int }

func (n *noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	n.calls++
	return fn(ctx)
}

// in-memory client store
type fakeClientRepo struct {
	clients map[int64]*domain.Client
	nextID  int64
}

func newFakeClientRepo(clients ...*domain.Client) *fakeClientRepo {
	r := &fakeClientRepo{clients: make(map[int64]*domain.Client)}
	for _, c := range clients {
		_ = r.Create(context.Background(), c)
	}
	return r
}

func (r *fakeClientRepo) Create(ctx context.Context, client *domain.Client) error {
	r.nextID++
	client.ID = r.nextID
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

func (r *fakeClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) List(ctx context.Context) ([]*domain.Client, error) {
	out := make([]*domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *domain.Client) error {
	if _, ok := r.clients[client.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := r.clients[id]
	delete(r.clients, id)
	return ok, nil
}

func (r *fakeClientRepo) Count(ctx context.Context) (int, error) { return len(r.clients), nil }

func (r *fakeClientRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.any(excludeID, func(c *domain.Client) bool { return email != "" && c.Email == email }), nil
}

func (r *fakeClientRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	return r.any(excludeID, func(c *domain.Client) bool { return name != "" && strings.EqualFold(c.Name, name) }), nil
}

func (r *fakeClientRepo) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	want := domain.NormalizePhone(phone)
	return r.any(excludeID, func(c *domain.Client) bool { return want != "" && domain.NormalizePhone(c.Phone) == want }), nil
}

func (r *fakeClientRepo) any(excludeID int64, match func(*domain.Client) bool) bool {
	for id, c := range r.clients {
		if id != excludeID && match(c) {
			return true
		}
	}
	return false
}

// in-memory invoice store; headers and lines are kept as copies so tests
// observe only what the service explicitly saved
type fakeInvoiceRepo struct {
	clients   *fakeClientRepo
	invoices  map[int64]*domain.Invoice
	lines     map[int64][]*domain.InvoiceLine
	counter   int
	nextID    int64
	nextLine  int64
	updates   int
	updateErr error
}

func newFakeInvoiceRepo(clients *fakeClientRepo) *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		clients:  clients,
		invoices: make(map[int64]*domain.Invoice),
		lines:    make(map[int64][]*domain.InvoiceLine),
	}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice, prefix string) error {
	seq, _ := r.NextSequence(ctx)
	invoice.Number = domain.FormatInvoiceNumber(prefix, invoice.Date, seq)

	r.nextID++
	invoice.ID = r.nextID
	r.invoices[invoice.ID] = header(invoice)

	for _, l := range invoice.Lines {
		if err := r.AddLine(ctx, invoice.ID, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := header(inv)
	out.Client, _ = r.clients.GetByID(ctx, inv.ClientID)
	return out, nil
}

func (r *fakeInvoiceRepo) GetWithLines(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines, _ = r.GetLines(ctx, id)
	return inv, nil
}

func (r *fakeInvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	for id, inv := range r.invoices {
		if inv.Number == number {
			return r.GetByID(ctx, id)
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error) {
	out := make([]*domain.Invoice, 0)
	for id, inv := range r.invoices {
		if filter.ClientID != nil && inv.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.Number != "" && !strings.Contains(inv.Number, filter.Number) {
			continue
		}
		got, _ := r.GetByID(ctx, id)
		out = append(out, got)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.invoices[invoice.ID]; !ok {
		return domain.ErrNotFound
	}
	r.updates++
	r.invoices[invoice.ID] = header(invoice)
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := r.invoices[id]
	delete(r.invoices, id)
	delete(r.lines, id)
	return ok, nil
}

func (r *fakeInvoiceRepo) Count(ctx context.Context) (int, error) { return len(r.invoices), nil }

func (r *fakeInvoiceRepo) SumTTC(ctx context.Context, status domain.InvoiceStatus) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, inv := range r.invoices {
		if inv.Status == status {
			sum = sum.Add(inv.TotalTTC)
		}
	}
	return sum, nil
}

func (r *fakeInvoiceRepo) AddLine(ctx context.Context, invoiceID int64, line *domain.InvoiceLine) error {
	r.nextLine++
	line.ID = r.nextLine
	line.InvoiceID = invoiceID
	cp := *line
	r.lines[invoiceID] = append(r.lines[invoiceID], &cp)
	return nil
}

func (r *fakeInvoiceRepo) UpdateLine(ctx context.Context, line *domain.InvoiceLine) error {
	for _, l := range r.lines[line.InvoiceID] {
		if l.ID == line.ID {
			*l = *line
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeInvoiceRepo) DeleteLine(ctx context.Context, invoiceID int64, lineID int64) error {
	lines := r.lines[invoiceID]
	for i, l := range lines {
		if l.ID == lineID {
			r.lines[invoiceID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeInvoiceRepo) GetLines(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLine, error) {
	out := make([]*domain.InvoiceLine, 0, len(r.lines[invoiceID]))
	for _, l := range r.lines[invoiceID] {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) NextSequence(ctx context.Context) (int, error) {
	r.counter++
	return r.counter, nil
}

// stored returns the persisted header of id
func (r *fakeInvoiceRepo) stored(id int64) *domain.Invoice {
	return r.invoices[id]
}

func header(inv *domain.Invoice) *domain.Invoice {
	cp := *inv
	cp.Lines = nil
	cp.Client = nil
	return &cp
}
