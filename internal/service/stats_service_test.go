package service

import (
	"context"
	"testing"

	"github.com/andy/invoicer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_Refresh(t *testing.T) {
	ctx := context.Background()
	f := newInvoiceFixture(t, DefaultInvoiceOptions())

	validated, err := f.svc.Create(ctx, f.client.ID, []*domain.InvoiceLine{serviceA()})
	require.NoError(t, err)
	_, err = f.svc.Validate(ctx, validated.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Create(ctx, f.client.ID, []*domain.InvoiceLine{serviceA()})
	require.NoError(t, err)
	_, err = f.svc.Validate(ctx, cancelled.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.client.ID, []*domain.InvoiceLine{serviceA()})
	require.NoError(t, err)

	tx := &noTx{}
	stats, err := NewStatsService(tx, f.clients, f.invoices, nil).Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalClients)
	assert.Equal(t, 3, stats.TotalInvoices)
	assert.True(t, stats.ValidatedRevenue.Equal(dec("120000")), stats.ValidatedRevenue.String())
	assert.Equal(t, 1, tx.calls)
}
