package tui

import (
	"github.com/andy/invoicer/internal/money"
	"github.com/andy/invoicer/internal/service"
	"github.com/shopspring/decimal"
)

// formatMoney renders amount with the configured currency
func formatMoney(amount decimal.Decimal, cfg money.FormatConfig) string {
	return money.Format(amount, cfg)
}

// errorLine renders err the way users should read it
func errorLine(err error) string {
	return errorStyle.Render("  Error: " + service.UserMessage(err))
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
