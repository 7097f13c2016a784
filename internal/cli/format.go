package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/money"
	"github.com/andy/invoicer/internal/service"
	"github.com/shopspring/decimal"
)

// parseLine reads "description:quantity:unit_price". The description may
// itself contain colons; only the last two separate fields.
func parseLine(s string) (*domain.InvoiceLine, error) {
	priceSep := strings.LastIndexByte(s, ':')
	if priceSep < 0 {
		return nil, fmt.Errorf("line %q: expected description:quantity:price", s)
	}
	qtySep := strings.LastIndexByte(s[:priceSep], ':')
	if qtySep < 0 {
		return nil, fmt.Errorf("line %q: expected description:quantity:price", s)
	}

	qty, err := strconv.Atoi(strings.TrimSpace(s[qtySep+1 : priceSep]))
	if err != nil {
		return nil, fmt.Errorf("line %q: invalid quantity", s)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(s[priceSep+1:]))
	if err != nil {
		return nil, fmt.Errorf("line %q: invalid price", s)
	}

	return domain.NewInvoiceLine(s[:qtySep], qty, price), nil
}

// parseLineEdit is parseLine with an optional leading "id=" selecting the
// persisted line to update.
func parseLineEdit(s string) (*domain.InvoiceLine, error) {
	var id int64
	if head, rest, ok := strings.Cut(s, "="); ok {
		if n, err := strconv.ParseInt(head, 10, 64); err == nil {
			id, s = n, rest
		}
	}

	line, err := parseLine(s)
	if err != nil {
		return nil, err
	}
	line.ID = id
	return line, nil
}

func parseID(arg, kind string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %q", kind, arg)
	}
	return id, nil
}

// failure turns a service error into the message shown to the user
func failure(action string, err error) error {
	return fmt.Errorf("%s: %s", action, service.UserMessage(err))
}

func formatMoney(d decimal.Decimal) string {
	return money.Format(d, appInstance.Config.Currency)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func parseDate(s string) (time.Time, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	switch s {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	default:
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("expected format: YYYY-MM-DD, 'today', or 'yesterday'")
		}
		return t, nil
	}
}
