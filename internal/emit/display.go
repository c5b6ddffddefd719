package emit

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DisplayAmount renders a monetary amount the way the event's country's
// webshop would show it, e.g. "€ 125,95" under nl-NL. Used only for
// display columns; all arithmetic stays on the decimal values.
func DisplayAmount(amount decimal.Decimal, currencyCode, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.EUR
	}
	f, _ := amount.Float64()
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.NarrowSymbol(unit.Amount(f)))
}
