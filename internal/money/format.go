// Package money renders decimal amounts for display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatConfig describes how amounts are rendered. It is passed explicitly
// to Format; there is no package-level default state.
type FormatConfig struct {
	Symbol           string `yaml:"symbol" envconfig:"SYMBOL"`
	Name             string `yaml:"name" envconfig:"NAME"`
	GroupSeparator   string `yaml:"group_separator" envconfig:"GROUP_SEPARATOR"`
	DecimalSeparator string `yaml:"decimal_separator" envconfig:"DECIMAL_SEPARATOR"`
	Decimals         int32  `yaml:"decimals" envconfig:"DECIMALS"`
	SymbolAfter      bool   `yaml:"symbol_after" envconfig:"SYMBOL_AFTER"`
}

// Ariary renders amounts as "25 000 Ar".
func Ariary() FormatConfig {
	return FormatConfig{
		Symbol:           "Ar",
		Name:             "Ariary Malgache",
		GroupSeparator:   " ",
		DecimalSeparator: ",",
		Decimals:         0,
		SymbolAfter:      true,
	}
}

// Format renders amount using cfg, e.g. "120 000 Ar" or "-1 234,50 Ar".
func Format(amount decimal.Decimal, cfg FormatConfig) string {
	s := Number(amount, cfg)
	if cfg.Symbol == "" {
		return s
	}
	if cfg.SymbolAfter {
		return s + " " + cfg.Symbol
	}
	if strings.HasPrefix(s, "-") {
		return "-" + cfg.Symbol + s[1:]
	}
	return cfg.Symbol + s
}

// Number renders amount with grouping and cfg.Decimals fractional digits,
// without the currency symbol.
func Number(amount decimal.Decimal, cfg FormatConfig) string {
	decimals := cfg.Decimals
	if decimals < 0 {
		decimals = 0
	}

	rounded := amount.Round(decimals)
	negative := rounded.IsNegative()
	s := rounded.Abs().StringFixed(decimals)

	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(cfg.GroupSeparator)
		}
		b.WriteRune(c)
	}
	if fracPart != "" {
		sep := cfg.DecimalSeparator
		if sep == "" {
			sep = "."
		}
		b.WriteString(sep)
		b.WriteString(fracPart)
	}
	return b.String()
}
