package domain

import (
	"fmt"
	"time"
)

// DefaultNumberPrefix prefixes generated invoice numbers.
const DefaultNumberPrefix = "FAC"

// FormatInvoiceNumber renders PREFIX-yyyyMM-NNNN. The month is read in
// now's location.
func FormatInvoiceNumber(prefix string, now time.Time, seq int) string {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("200601"), seq)
}

// NextInvoiceNumber derives a number from the current invoice count. It is
// not safe under concurrent creation; the repository allocates sequences
// from a counter instead.
func NextInvoiceNumber(currentCount int, now time.Time) string {
	return FormatInvoiceNumber(DefaultNumberPrefix, now, currentCount+1)
}
