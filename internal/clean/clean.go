// Package clean implements the one-time preprocessing pass over raw bank
// transactions: age derivation, implausible-age filtering, and calendar-month
// bucketing.
package clean

import (
	"time"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// Age bounds for retained rows, inclusive.
const (
	MinAge = 18
	MaxAge = 100
)

// AgeAt returns the whole-year age of someone born at dob as of ref.
// The second return is false when dob is the zero time (unparseable source
// cell) or after ref.
//
// The age is floor(days/365), matching the upstream dataset's convention.
// It drifts from calendar-accurate ages around leap years; keep it as is,
// downstream numbers were produced with the same approximation.
func AgeAt(dob, ref time.Time) (int, bool) {
	if dob.IsZero() || dob.After(ref) {
		return 0, false
	}
	days := int(ref.Sub(dob).Hours() / 24)
	return days / 365, true
}

// MonthKey returns the "YYYY-MM" bucket for a transaction date, or "" for
// the zero time. The key sorts lexicographically in calendar order.
func MonthKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}

// Run derives Age and Month for each raw transaction and keeps the rows
// whose age falls in [MinAge, MaxAge]. Rows with an unparseable date of
// birth have no age and are dropped. Surviving rows keep their input order.
func Run(rows []model.RawTransaction, ref time.Time) []model.CleanedTransaction {
	var out []model.CleanedTransaction
	for _, row := range rows {
		age, ok := AgeAt(row.CustomerDOB, ref)
		if !ok || age < MinAge || age > MaxAge {
			continue
		}
		out = append(out, model.CleanedTransaction{
			RawTransaction: row,
			Age:            age,
			Month:          MonthKey(row.TransactionDate),
		})
	}
	return out
}
