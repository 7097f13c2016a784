package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func draftWithLine() *Invoice {
	inv := NewInvoice("FAC-202601-0001", 1, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	inv.Lines = append(inv.Lines, NewInvoiceLine("Service A", 2, dec("50000.00")))
	return inv
}

func TestNewInvoice_StartsAsDraft(t *testing.T) {
	inv := NewInvoice("FAC-202601-0001", 7, time.Now())

	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	assert.True(t, inv.IsEditable())
	assert.True(t, inv.TotalHT.IsZero())
	assert.Empty(t, inv.Lines)
}

func TestInvoice_Validate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Invoice)
		wantErr error
		want    InvoiceStatus
	}{
		{
			name:  "draft with lines and client",
			setup: func(*Invoice) {},
			want:  InvoiceStatusValidated,
		},
		{
			name:    "no lines",
			setup:   func(i *Invoice) { i.Lines = nil },
			wantErr: ErrValidationFailed,
			want:    InvoiceStatusDraft,
		},
		{
			name:    "no client",
			setup:   func(i *Invoice) { i.ClientID = 0 },
			wantErr: ErrValidationFailed,
			want:    InvoiceStatusDraft,
		},
		{
			name:    "already validated",
			setup:   func(i *Invoice) { i.Status = InvoiceStatusValidated },
			wantErr: ErrInvalidState,
			want:    InvoiceStatusValidated,
		},
		{
			name:    "cancelled",
			setup:   func(i *Invoice) { i.Status = InvoiceStatusCancelled },
			wantErr: ErrInvalidState,
			want:    InvoiceStatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := draftWithLine()
			tt.setup(inv)

			err := Validate(inv)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, inv.Status)
		})
	}
}

func TestInvoice_ValidateEmptyMessage(t *testing.T) {
	inv := draftWithLine()
	inv.Lines = nil

	err := inv.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot validate an invoice with no lines")
}

func TestInvoice_Cancel(t *testing.T) {
	for _, status := range []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			inv := draftWithLine()
			inv.Status = status

			err := Cancel(inv)
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, status, inv.Status)
		})
	}

	t.Run("validated", func(t *testing.T) {
		inv := draftWithLine()
		require.NoError(t, inv.Validate())

		require.NoError(t, inv.Cancel())
		assert.Equal(t, InvoiceStatusCancelled, inv.Status)

		assert.ErrorIs(t, inv.Cancel(), ErrInvalidState)
	})
}

func TestInvoice_IsEditable(t *testing.T) {
	cases := map[InvoiceStatus]bool{
		InvoiceStatusDraft:     true,
		InvoiceStatusValidated: false,
		InvoiceStatusCancelled: false,
	}
	for status, want := range cases {
		inv := &Invoice{Status: status}
		assert.Equal(t, want, IsEditable(inv), status)

		err := inv.EnsureEditable()
		if want {
			assert.NoError(t, err)
		} else {
			assert.True(t, errors.Is(err, ErrInvalidState))
			assert.Contains(t, err.Error(), "cannot modify a validated or cancelled invoice")
		}
	}
}

func TestInvoice_CheckFields(t *testing.T) {
	inv := &Invoice{Status: "paid"}

	err := inv.CheckFields()
	require.ErrorIs(t, err, ErrValidationFailed)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "number")
	assert.Contains(t, verrs, "client_id")
	assert.Contains(t, verrs, "date")
	assert.Contains(t, verrs, "status")

	assert.NoError(t, draftWithLine().CheckFields())
}
