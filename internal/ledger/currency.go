package ledger

import (
	"sort"
	"strings"
)

// DefaultCurrency is used for seeded accounts and accounts created without
// one.
const DefaultCurrency = "CNY"

type CurrencyDef struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

var Currencies = map[string]CurrencyDef{
	"CNY": {Code: "CNY", Name: "Chinese Yuan", Symbol: "¥"},
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$"},
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€"},
	"GBP": {Code: "GBP", Name: "Pound Sterling", Symbol: "£"},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
	"HKD": {Code: "HKD", Name: "Hong Kong Dollar", Symbol: "HK$"},
	"TWD": {Code: "TWD", Name: "New Taiwan Dollar", Symbol: "NT$"},
	"SGD": {Code: "SGD", Name: "Singapore Dollar", Symbol: "S$"},
	"AUD": {Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Symbol: "C$"},
	"CHF": {Code: "CHF", Name: "Swiss Franc", Symbol: "CHF"},
	"KRW": {Code: "KRW", Name: "South Korean Won", Symbol: "₩"},
}

func ValidCurrency(code string) bool {
	_, ok := Currencies[code]
	return ok
}

// CurrencySymbol falls back to the code itself for unknown currencies.
func CurrencySymbol(code string) string {
	if c, ok := Currencies[strings.ToUpper(code)]; ok {
		return c.Symbol
	}
	return code
}

// CurrencyCodes returns a sorted list of supported currency codes.
func CurrencyCodes() []string {
	codes := make([]string, 0, len(Currencies))
	for code := range Currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
