package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineTotal_Exact(t *testing.T) {
	tests := []struct {
		qty   int
		price string
		want  string
	}{
		{1, "0.01", "0.01"},
		{3, "0.10", "0.3"},
		{7, "19.99", "139.93"},
		{100000, "0.07", "7000"},
		{2, "50000.00", "100000"},
		{0, "12.34", "0"},
	}

	for _, tt := range tests {
		got := LineTotal(tt.qty, dec(tt.price))
		assert.True(t, got.Equal(dec(tt.want)), "%d × %s = %s, want %s", tt.qty, tt.price, got, tt.want)
	}
}

func TestComputeTotals(t *testing.T) {
	lines := []*InvoiceLine{
		NewInvoiceLine("A", 3, dec("0.10")),
		NewInvoiceLine("B", 1, dec("0.20")),
		NewInvoiceLine("C", 2, dec("1234.55")),
	}

	got := ComputeTotals(lines, DefaultTaxRate)

	assert.True(t, got.HT.Equal(dec("2469.60")), "HT = %s", got.HT)
	assert.True(t, got.TVA.Equal(dec("493.92")), "TVA = %s", got.TVA)
	assert.True(t, got.TTC.Equal(dec("2963.52")), "TTC = %s", got.TTC)
}

func TestComputeTotals_Idempotent(t *testing.T) {
	lines := []*InvoiceLine{
		NewInvoiceLine("A", 5, dec("33.33")),
		NewInvoiceLine("B", 1, dec("0.01")),
	}

	first := ComputeTotals(lines, dec("0.055"))
	second := ComputeTotals(lines, dec("0.055"))

	assert.True(t, first.HT.Equal(second.HT))
	assert.True(t, first.TVA.Equal(second.TVA))
	assert.True(t, first.TTC.Equal(second.TTC))
}

func TestComputeTotals_Relations(t *testing.T) {
	lines := []*InvoiceLine{
		NewInvoiceLine("A", 9, dec("0.01")),
		NewInvoiceLine("B", 13, dec("7.77")),
	}

	for _, rate := range []string{"0", "0.055", "0.20", "1", "2.5"} {
		r := dec(rate)
		got := ComputeTotals(lines, r)

		assert.True(t, got.TTC.Equal(got.HT.Add(got.TVA)), "rate %s", rate)
		assert.True(t, got.TVA.Equal(got.HT.Mul(r)), "rate %s", rate)
	}
}

func TestComputeTotals_Empty(t *testing.T) {
	got := ComputeTotals(nil, DefaultTaxRate)

	assert.True(t, got.HT.IsZero())
	assert.True(t, got.TVA.IsZero())
	assert.True(t, got.TTC.IsZero())
}

func TestInvoice_RecomputeTotals(t *testing.T) {
	inv := draftWithLine()

	inv.RecomputeTotals(DefaultTaxRate)

	assert.Equal(t, "100000.00", inv.TotalHT.StringFixed(2))
	assert.Equal(t, "20000.00", inv.TVA.StringFixed(2))
	assert.Equal(t, "120000.00", inv.TotalTTC.StringFixed(2))
}

func TestCheckTaxRate(t *testing.T) {
	assert.NoError(t, CheckTaxRate(decimal.Zero))
	assert.NoError(t, CheckTaxRate(DefaultTaxRate))
	assert.ErrorIs(t, CheckTaxRate(dec("-0.01")), ErrValidationFailed)
}
