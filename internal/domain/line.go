package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits kept on unit prices.
const PriceScale = 2

// InvoiceLine is one billable entry. ID 0 means the line is not persisted yet.
type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	Description string          `field:"description" validate:"required"`
	Quantity    int             `field:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `field:"unit_price" validate:"gte=0"`
}

var lineMessages = map[string]string{
	"description.required": "description is required",
	"quantity.gte":         "quantity must be at least 1",
	"unit_price.gte":       "unit price cannot be negative",
}

// NewInvoiceLine creates an unsaved line with the price rounded to PriceScale.
func NewInvoiceLine(description string, quantity int, unitPrice decimal.Decimal) *InvoiceLine {
	return &InvoiceLine{
		Description: strings.TrimSpace(description),
		Quantity:    quantity,
		UnitPrice:   unitPrice.Round(PriceScale),
	}
}

// Total returns quantity × unit price. It is never stored.
func (l *InvoiceLine) Total() decimal.Decimal {
	return LineTotal(l.Quantity, l.UnitPrice)
}

// IsNew reports whether the line has not been persisted.
func (l *InvoiceLine) IsNew() bool {
	return l.ID == 0
}

// Validate checks description, quantity and price constraints.
func (l *InvoiceLine) Validate() error {
	l.Description = strings.TrimSpace(l.Description)
	if err := checkStruct(l, lineMessages); err != nil {
		return err
	}
	if !l.UnitPrice.Equal(l.UnitPrice.Round(PriceScale)) {
		return ValidationErrors{"unit_price": "unit price has more than 2 decimal places"}
	}
	return nil
}

// LineTotal computes q × p exactly.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// ValidateLines validates every line, prefixing field names with the index.
func ValidateLines(lines []*InvoiceLine) error {
	out := make(ValidationErrors)
	for i, l := range lines {
		if l == nil {
			out[lineField(i, "line")] = "line is missing"
			continue
		}
		err := l.Validate()
		if err == nil {
			continue
		}
		if verrs, ok := err.(ValidationErrors); ok {
			for f, msg := range verrs {
				out[lineField(i, f)] = msg
			}
			continue
		}
		return err
	}
	if len(out) > 0 {
		return out
	}
	return nil
}

func lineField(i int, field string) string {
	return "lines[" + strconv.Itoa(i) + "]." + field
}
