package shared

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatAmount renders an amount with two decimals and Indian digit grouping,
// e.g. 123456.5 as "1,23,456.50".
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return inPrinter.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatRupees prefixes FormatAmount with the rupee sign.
func FormatRupees(d decimal.Decimal) string {
	return "₹" + FormatAmount(d)
}
