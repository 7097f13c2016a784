package service

import (
	"context"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Stats is the dashboard summary
type Stats struct {
	TotalClients  int
	TotalInvoices int

	// ValidatedRevenue sums TotalTTC over validated invoices; drafts and
	// cancelled invoices don't count.
	ValidatedRevenue decimal.Decimal
}

// StatsService provides dashboard aggregates
type StatsService interface {
	Refresh(ctx context.Context) (*Stats, error)
}

type statsService struct {
	tx          TxRunner
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
	log         *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	tx TxRunner,
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	log *zap.Logger,
) StatsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &statsService{
		tx:          tx,
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		log:         log.Named("stats"),
	}
}

func (s *statsService) Refresh(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if stats.TotalClients, err = s.clientRepo.Count(ctx); err != nil {
			return err
		}
		if stats.TotalInvoices, err = s.invoiceRepo.Count(ctx); err != nil {
			return err
		}
		stats.ValidatedRevenue, err = s.invoiceRepo.SumTTC(ctx, domain.InvoiceStatusValidated)
		return err
	})
	if err != nil {
		s.log.Error("failed to compute statistics", zap.Error(err))
		return nil, err
	}

	s.log.Debug("statistics refreshed",
		zap.Int("clients", stats.TotalClients),
		zap.Int("invoices", stats.TotalInvoices),
		zap.Stringer("validated_revenue", stats.ValidatedRevenue),
	)
	return stats, nil
}
