// Package format centralizes number and date rendering for user-facing text.
// Both the prompt context blocks and the REST layer go through here, so the
// AI model and the UI always see the same rupiah/date shapes.
package format

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Indonesian)

// Rupiah renders an amount as "Rp" plus id-ID digit grouping,
// e.g. 750000 → "Rp750.000". Fractions are kept only when present.
func Rupiah(amount float64) string {
	if amount == math.Trunc(amount) {
		return printer.Sprintf("Rp%v", number.Decimal(int64(amount)))
	}
	return printer.Sprintf("Rp%v", number.Decimal(amount, number.MaxFractionDigits(2)))
}

// Date renders a calendar date the way id-ID locales do: d/m/yyyy without
// leading zeros. Accepts YYYY-MM-DD or RFC3339 input; anything else is
// returned unchanged rather than dropped from the context block.
func Date(raw string) string {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

// ISODate renders a time as YYYY-MM-DD, the shape the action grammar and the
// transactions table use.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}
