package domain

import "github.com/shopspring/decimal"

// DefaultTaxRate is the TVA rate applied when none is configured.
var DefaultTaxRate = decimal.RequireFromString("0.20")

// Totals holds the derived amounts of an invoice.
type Totals struct {
	HT  decimal.Decimal
	TVA decimal.Decimal
	TTC decimal.Decimal
}

// ComputeTotals sums line totals and applies taxRate. All arithmetic is
// exact; rounding happens only when amounts are formatted.
func ComputeTotals(lines []*InvoiceLine, taxRate decimal.Decimal) Totals {
	ht := decimal.Zero
	for _, l := range lines {
		if l == nil {
			continue
		}
		ht = ht.Add(l.Total())
	}
	tva := ht.Mul(taxRate)
	return Totals{
		HT:  ht,
		TVA: tva,
		TTC: ht.Add(tva),
	}
}

// CheckTaxRate rejects negative rates.
func CheckTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return validationf("tax rate cannot be negative")
	}
	return nil
}
