package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persistedLines() []*InvoiceLine {
	return []*InvoiceLine{
		{ID: 1, InvoiceID: 10, Description: "L1", Quantity: 1, UnitPrice: dec("10.00")},
		{ID: 2, InvoiceID: 10, Description: "L2", Quantity: 2, UnitPrice: dec("20.00")},
	}
}

func TestReconcileLines_UpdateDeleteInsert(t *testing.T) {
	persisted := persistedLines()
	incoming := []*InvoiceLine{
		{ID: 1, Description: "L1", Quantity: 1, UnitPrice: dec("15.00")},
		{ID: 0, Description: "L3", Quantity: 4, UnitPrice: dec("2.50")},
	}

	r, err := ReconcileLines(persisted, incoming)
	require.NoError(t, err)

	require.Len(t, r.ToUpdate, 1)
	assert.Equal(t, int64(1), r.ToUpdate[0].ID)
	assert.Equal(t, int64(10), r.ToUpdate[0].InvoiceID)
	assert.True(t, r.ToUpdate[0].UnitPrice.Equal(dec("15.00")))

	require.Len(t, r.ToDelete, 1)
	assert.Equal(t, int64(2), r.ToDelete[0].ID)

	require.Len(t, r.ToInsert, 1)
	assert.True(t, r.ToInsert[0].IsNew())
	assert.Equal(t, "L3", r.ToInsert[0].Description)

	require.Len(t, r.Final, 2)
	assert.Equal(t, int64(1), r.Final[0].ID)
	assert.Equal(t, "L3", r.Final[1].Description)
	assert.Empty(t, r.Unmatched)
}

func TestReconcileLines_OverwritesInPlace(t *testing.T) {
	persisted := persistedLines()
	incoming := []*InvoiceLine{
		{ID: 2, Description: "changed", Quantity: 9, UnitPrice: dec("1.00")},
	}

	_, err := ReconcileLines(persisted, incoming)
	require.NoError(t, err)

	assert.Equal(t, "changed", persisted[1].Description)
	assert.Equal(t, 9, persisted[1].Quantity)
	assert.Equal(t, "L1", persisted[0].Description)
}

func TestReconcileLines_EmptyIncomingDeletesAll(t *testing.T) {
	r, err := ReconcileLines(persistedLines(), nil)
	require.NoError(t, err)

	assert.Len(t, r.ToDelete, 2)
	assert.Empty(t, r.ToUpdate)
	assert.Empty(t, r.ToInsert)
	assert.Empty(t, r.Final)
}

func TestReconcileLines_AllNew(t *testing.T) {
	incoming := []*InvoiceLine{
		NewInvoiceLine("a", 1, dec("1")),
		NewInvoiceLine("b", 2, dec("2")),
	}

	r, err := ReconcileLines(nil, incoming)
	require.NoError(t, err)

	assert.Len(t, r.ToInsert, 2)
	assert.Len(t, r.Final, 2)
	assert.Empty(t, r.ToDelete)
	assert.NotSame(t, incoming[0], r.ToInsert[0])
	assert.Zero(t, r.ToInsert[0].InvoiceID)
}

func TestReconcileLines_ForInvoice(t *testing.T) {
	incoming := []*InvoiceLine{NewInvoiceLine("a", 1, dec("1"))}

	r, err := ReconcileLines(nil, incoming, ForInvoice(7))
	require.NoError(t, err)
	require.Len(t, r.ToInsert, 1)
	assert.Equal(t, int64(7), r.ToInsert[0].InvoiceID)
	assert.Same(t, r.ToInsert[0], r.Final[0])

	r, err = ReconcileLines(persistedLines(), incoming)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.ToInsert[0].InvoiceID)
}

func TestReconcileLines_UnmatchedID(t *testing.T) {
	incoming := []*InvoiceLine{
		{ID: 1, Description: "L1", Quantity: 1, UnitPrice: dec("10.00")},
		{ID: 99, Description: "ghost", Quantity: 1, UnitPrice: dec("1.00")},
	}

	t.Run("ignored by default", func(t *testing.T) {
		r, err := ReconcileLines(persistedLines(), incoming)
		require.NoError(t, err)

		assert.Equal(t, []int64{99}, r.Unmatched)
		assert.Len(t, r.Final, 1)
		assert.Len(t, r.ToDelete, 1)
	})

	t.Run("strict fails without touching persisted lines", func(t *testing.T) {
		persisted := persistedLines()
		changed := []*InvoiceLine{
			{ID: 1, Description: "edited", Quantity: 1, UnitPrice: dec("10.00")},
			{ID: 99, Description: "ghost", Quantity: 1, UnitPrice: dec("1.00")},
		}

		_, err := ReconcileLines(persisted, changed, StrictUnmatched())
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Equal(t, "L1", persisted[0].Description)
	})
}

func TestReconcileLines_ThenTotals(t *testing.T) {
	r, err := ReconcileLines(persistedLines(), []*InvoiceLine{
		{ID: 1, Description: "L1", Quantity: 1, UnitPrice: dec("15.00")},
		{Description: "L3", Quantity: 2, UnitPrice: dec("2.50")},
	})
	require.NoError(t, err)

	got := ComputeTotals(r.Final, DefaultTaxRate)
	assert.True(t, got.HT.Equal(dec("20.00")))
	assert.True(t, got.TTC.Equal(dec("24.00")))
}
