package assistant

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "₹"

// Money renders decimal amounts with locale digit grouping and at most two
// fraction digits. The zero value uses English grouping.
type Money struct {
	p *message.Printer
}

// NewMoney returns a formatter for the given BCP 47 locale. Unparseable
// tags fall back to English.
func NewMoney(locale string) Money {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return Money{p: message.NewPrinter(tag)}
}

// Format renders d as "₹1,234.5".
func (m Money) Format(d decimal.Decimal) string {
	p := m.p
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	// x/text formats floats. After rounding to paise the value is exact up
	// to about 9e13 rupees, far beyond any amount in the record tables.
	f := d.Round(2).InexactFloat64()
	return CurrencySymbol + p.Sprint(number.Decimal(f, number.MaxFractionDigits(2)))
}
