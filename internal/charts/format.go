package charts

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormatter returns a function printing whole salary amounts with the
// digit grouping of locale (a BCP 47 tag such as "en-GB" or "de-DE").
// Unknown tags fall back to English grouping.
func MoneyFormatter(locale string) func(float64) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	return func(v float64) string {
		return p.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
	}
}
