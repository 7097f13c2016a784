package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockClientRepo struct {
	mock.Mock
}

func (m *mockClientRepo) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	if id, ok := args.Get(1).(int64); ok {
		client.ID = id
	}
	return args.Error(0)
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*domain.Client)
	return c, args.Error(1)
}

func (m *mockClientRepo) List(ctx context.Context) ([]*domain.Client, error) {
	args := m.Called(ctx)
	clients, _ := args.Get(0).([]*domain.Client)
	return clients, args.Error(1)
}

func (m *mockClientRepo) Update(ctx context.Context, client *domain.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockClientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockClientRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockClientRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockClientRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockClientRepo) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	args := m.Called(ctx, phone, excludeID)
	return args.Bool(0), args.Error(1)
}

func newClientSvc(t *testing.T, repo *mockClientRepo) *clientService {
	t.Helper()
	svc := NewClientService(&noTx{}, repo, newFakeInvoiceRepo(newFakeClientRepo()), zaptest.NewLogger(t))
	s := svc.(*clientService)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestClientService_Add(t *testing.T) {
	ctx := context.Background()
	repo := &mockClientRepo{}
	svc := newClientSvc(t, repo)

	repo.On("Create", ctx, mock.MatchedBy(func(c *domain.Client) bool {
		return c.Name == "Rasoa" && c.CreatedAt.Equal(fixedNow)
	})).Return(nil, int64(5))

	c := &domain.Client{Name: "  Rasoa ", Email: "rasoa@example.mg"}
	require.NoError(t, svc.Add(ctx, c))
	assert.Equal(t, int64(5), c.ID)

	repo.AssertExpectations(t)
}

func TestClientService_AddInvalid(t *testing.T) {
	repo := &mockClientRepo{}
	svc := newClientSvc(t, repo)

	err := svc.Add(context.Background(), &domain.Client{Name: "Rasoa", Email: "nope"})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	assert.Equal(t, "email: email address is not valid", UserMessage(err))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestClientService_UpdatePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := &mockClientRepo{}
	svc := newClientSvc(t, repo)

	created := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	repo.On("GetByID", ctx, int64(3)).Return(&domain.Client{ID: 3, Name: "Rasoa", CreatedAt: created}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(c *domain.Client) bool {
		return c.CreatedAt.Equal(created) && c.Phone == "034 00 000 00"
	})).Return(nil)

	edit := &domain.Client{ID: 3, Name: "Rasoa", Phone: "034 00 000 00", CreatedAt: time.Now()}
	require.NoError(t, svc.Update(ctx, edit))
	assert.Equal(t, created, edit.CreatedAt)

	repo.AssertExpectations(t)
}

func TestClientService_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	repo := &mockClientRepo{}
	svc := newClientSvc(t, repo)

	repo.On("GetByID", ctx, int64(9)).Return(nil, domain.ErrNotFound)

	err := svc.Update(ctx, &domain.Client{ID: 9, Name: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestClientService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := &mockClientRepo{}
	svc := newClientSvc(t, repo)

	repo.On("Delete", ctx, int64(1)).Return(true, nil)
	repo.On("Delete", ctx, int64(2)).Return(false, nil)
	repo.On("Delete", ctx, int64(3)).Return(false, domain.ErrStorage)

	assert.NoError(t, svc.Delete(ctx, 1))
	assert.NoError(t, svc.Delete(ctx, 2), "deleting a missing client is a no-op")
	assert.ErrorIs(t, svc.Delete(ctx, 3), domain.ErrStorage)
}

func TestClientService_CheckUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := &mockClientRepo{}
	svc := newClientSvc(t, repo)

	c := &domain.Client{ID: 4, Name: "rasoa", Email: "rasoa@example.mg", Phone: "0612 3456"}
	repo.On("NameExists", ctx, "rasoa", int64(4)).Return(true, nil)
	repo.On("EmailExists", ctx, "rasoa@example.mg", int64(4)).Return(false, nil)
	repo.On("PhoneExists", ctx, "0612 3456", int64(4)).Return(true, nil)

	out, err := svc.CheckUniqueness(ctx, c)
	require.NoError(t, err)

	assert.True(t, out.HasErrors())
	assert.NotEmpty(t, out.NameError)
	assert.Empty(t, out.EmailError)
	assert.NotEmpty(t, out.PhoneError)

	var verrs domain.ValidationErrors
	require.ErrorAs(t, out.Err(), &verrs)
	assert.Contains(t, verrs, "name")
	assert.Contains(t, verrs, "phone")
	assert.NotContains(t, verrs, "email")
}

func TestClientService_CheckUniquenessStorageError(t *testing.T) {
	ctx := context.Background()
	repo := &mockClientRepo{}
	svc := newClientSvc(t, repo)

	boom := errors.Join(domain.ErrStorage, errors.New("locked"))
	repo.On("NameExists", ctx, "Rasoa", int64(0)).Return(false, boom)

	_, err := svc.CheckUniqueness(ctx, &domain.Client{Name: "Rasoa"})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestClientValidationErrors_Empty(t *testing.T) {
	var e ClientValidationErrors
	assert.False(t, e.HasErrors())
	assert.NoError(t, e.Err())
}

func TestClientService_GetWithInvoices(t *testing.T) {
	ctx := context.Background()

	clients := newFakeClientRepo(domain.NewClient("Rasoa"), domain.NewClient("Andry"))
	invoices := newFakeInvoiceRepo(clients)
	inv := domain.NewInvoice("", 1, fixedNow)
	require.NoError(t, invoices.Create(ctx, inv, "FAC"))
	other := domain.NewInvoice("", 2, fixedNow)
	require.NoError(t, invoices.Create(ctx, other, "FAC"))

	svc := NewClientService(&noTx{}, clients, invoices, nil)

	c, err := svc.GetWithInvoices(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Rasoa", c.Name)
	require.Len(t, c.Invoices, 1)
	assert.Equal(t, inv.ID, c.Invoices[0].ID)

	_, err = svc.GetWithInvoices(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
