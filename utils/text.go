package utils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/radhian/ledger-reconciliation/consts"
	"github.com/shopspring/decimal"
)

const byteOrderMark = "\uFEFF"

// NormalizeText strips byte-order marks and quotes, trims and upper-cases a
// cell so that identifiers and category tokens compare reliably.
func NormalizeText(raw string) string {
	s := strings.ReplaceAll(raw, byteOrderMark, "")
	s = strings.ReplaceAll(s, `"`, "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseAmount reads a pt-BR formatted number ("1.234,56"). Empty or garbled
// input yields zero.
func ParseAmount(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// ParseDotAmount reads a number with a dot decimal separator ("1234.56").
// Commas are taken as grouping separators. Garbled input yields zero.
func ParseDotAmount(raw string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// AmountParser returns the parser for an amount notation. An empty format
// means pt-BR.
func AmountParser(format string) (func(string) decimal.Decimal, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", consts.AmountFormatBR:
		return ParseAmount, nil
	case consts.AmountFormatDot:
		return ParseDotAmount, nil
	}
	return nil, fmt.Errorf("unknown amount format %q", format)
}
