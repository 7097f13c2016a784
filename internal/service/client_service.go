package service

import (
	"context"
	"errors"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"go.uber.org/zap"
)

// ClientValidationErrors collects uniqueness conflicts per field, for forms
// that want to flag fields before submitting.
type ClientValidationErrors struct {
	NameError  string
	EmailError string
	PhoneError string
}

// HasErrors reports whether any field has a conflict
func (e ClientValidationErrors) HasErrors() bool {
	return e.NameError != "" || e.EmailError != "" || e.PhoneError != ""
}

// Err returns the conflicts as domain.ValidationErrors, or nil.
func (e ClientValidationErrors) Err() error {
	if !e.HasErrors() {
		return nil
	}
	errs := make(domain.ValidationErrors)
	if e.NameError != "" {
		errs["name"] = e.NameError
	}
	if e.EmailError != "" {
		errs["email"] = e.EmailError
	}
	if e.PhoneError != "" {
		errs["phone"] = e.PhoneError
	}
	return errs
}

// ClientService manages clients
type ClientService interface {
	// Add creates a client; CreatedAt is stamped if unset
	Add(ctx context.Context, client *domain.Client) error

	// Get retrieves a client by ID
	Get(ctx context.Context, id int64) (*domain.Client, error)

	// GetWithInvoices retrieves a client and its invoices, newest first
	GetWithInvoices(ctx context.Context, id int64) (*domain.Client, error)

	// List returns all clients ordered by name
	List(ctx context.Context) ([]*domain.Client, error)

	// Update saves name, email, phone and address; CreatedAt is preserved
	Update(ctx context.Context, client *domain.Client) error

	// Delete removes a client with its invoices. Missing clients are ignored.
	Delete(ctx context.Context, id int64) error

	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error)

	// CheckUniqueness runs the three lookups for client, excluding itself
	CheckUniqueness(ctx context.Context, client *domain.Client) (ClientValidationErrors, error)
}

type clientService struct {
	tx          TxRunner
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
	log         *zap.Logger
	now         func() time.Time
}

// NewClientService creates a new client service
func NewClientService(
	tx TxRunner,
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	log *zap.Logger,
) ClientService {
	if log == nil {
		log = zap.NewNop()
	}
	return &clientService{
		tx:          tx,
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		log:         log.Named("clients"),
		now:         time.Now,
	}
}

func (s *clientService) Add(ctx context.Context, client *domain.Client) error {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = s.now().UTC()
	}

	if err := client.Validate(); err != nil {
		s.log.Warn("rejected client", zap.String("name", client.Name), zap.Error(err))
		return err
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		s.log.Error("failed to add client", zap.String("name", client.Name), zap.Error(err))
		return err
	}

	s.log.Info("client added", zap.Int64("client_id", client.ID), zap.String("name", client.Name))
	return nil
}

func (s *clientService) Get(ctx context.Context, id int64) (*domain.Client, error) {
	return s.clientRepo.GetByID(ctx, id)
}

func (s *clientService) GetWithInvoices(ctx context.Context, id int64) (*domain.Client, error) {
	var client *domain.Client
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if client, err = s.clientRepo.GetByID(ctx, id); err != nil {
			return err
		}
		client.Invoices, err = s.invoiceRepo.List(ctx, repository.InvoiceFilter{ClientID: &id})
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) List(ctx context.Context) ([]*domain.Client, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		s.log.Error("failed to list clients", zap.Error(err))
		return nil, err
	}
	return clients, nil
}

func (s *clientService) Update(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		s.log.Warn("rejected client update", zap.Int64("client_id", client.ID), zap.Error(err))
		return err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.clientRepo.GetByID(ctx, client.ID)
		if err != nil {
			return err
		}
		client.CreatedAt = existing.CreatedAt

		return s.clientRepo.Update(ctx, client)
	})
	if err != nil {
		s.logFailure("failed to update client", client.ID, err)
		return err
	}

	s.log.Info("client updated", zap.Int64("client_id", client.ID))
	return nil
}

func (s *clientService) Delete(ctx context.Context, id int64) error {
	removed, err := s.clientRepo.Delete(ctx, id)
	if err != nil {
		s.log.Error("failed to delete client", zap.Int64("client_id", id), zap.Error(err))
		return err
	}
	if !removed {
		s.log.Warn("client to delete not found", zap.Int64("client_id", id))
		return nil
	}

	s.log.Info("client deleted", zap.Int64("client_id", id))
	return nil
}

func (s *clientService) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return s.clientRepo.EmailExists(ctx, email, excludeID)
}

func (s *clientService) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	return s.clientRepo.NameExists(ctx, name, excludeID)
}

func (s *clientService) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	return s.clientRepo.PhoneExists(ctx, phone, excludeID)
}

func (s *clientService) CheckUniqueness(ctx context.Context, client *domain.Client) (ClientValidationErrors, error) {
	var out ClientValidationErrors

	exists, err := s.clientRepo.NameExists(ctx, client.Name, client.ID)
	if err != nil {
		return out, err
	}
	if exists {
		out.NameError = "a client with this name already exists"
	}

	if exists, err = s.clientRepo.EmailExists(ctx, client.Email, client.ID); err != nil {
		return out, err
	}
	if exists {
		out.EmailError = "this email address is already used by another client"
	}

	if exists, err = s.clientRepo.PhoneExists(ctx, client.Phone, client.ID); err != nil {
		return out, err
	}
	if exists {
		out.PhoneError = "this phone number is already used by another client"
	}

	return out, nil
}

func (s *clientService) logFailure(msg string, id int64, err error) {
	if errors.Is(err, domain.ErrStorage) {
		s.log.Error(msg, zap.Int64("client_id", id), zap.Error(err))
		return
	}
	s.log.Warn(msg, zap.Int64("client_id", id), zap.Error(err))
}
