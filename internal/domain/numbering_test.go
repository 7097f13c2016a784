package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextInvoiceNumber(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "FAC-202603-0001", NextInvoiceNumber(0, now))
	assert.Equal(t, "FAC-202603-0042", NextInvoiceNumber(41, now))
	assert.Equal(t, "FAC-202603-12345", NextInvoiceNumber(12344, now))
	assert.Equal(t, "INV-202603-0007", FormatInvoiceNumber("INV", now, 7))
}
