package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction represents one row of the raw bank transaction CSV.
// Date fields are the zero time when the source cell was malformed;
// a bad date never aborts a batch, the row is dropped later by the
// age filter instead.
type RawTransaction struct {
	TransactionID   string
	CustomerDOB     time.Time // zero = unparseable
	TransactionDate time.Time // zero = unparseable
	CustLocation    string
	Amount          decimal.Decimal
}

// CleanedTransaction is a RawTransaction that survived cleaning, plus
// the derived age and calendar-month bucket.
type CleanedTransaction struct {
	RawTransaction
	Age   int
	Month string // "YYYY-MM"
}
