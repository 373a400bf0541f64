package clean

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// Header is the CSV header of the cleaned output file.
const Header = "TransactionID,CustomerDOB,TransactionDate,CustLocation,TransactionAmount,Age,Month"

const (
	numOutFields = 7
	dateFormat   = "2006-01-02"
	colTxnID     = 0
	colDOB       = 1
	colTxnDate   = 2
	colLocation  = 3
	colAmount    = 4
	colAge       = 5
	colMonth     = 6
)

// Required input columns, matched by header name. Column order in the input
// file does not matter and extra columns are ignored.
var requiredColumns = []string{
	"TransactionID",
	"CustomerDOB",
	"TransactionDate",
	"CustLocation",
	"TransactionAmount",
}

// headerAliases maps alternate header spellings to canonical column names.
// The upstream bank export labels the amount column with its currency.
var headerAliases = map[string]string{
	"TransactionAmount (INR)": "TransactionAmount",
}

// Source exports carry day-first dates, some with two-digit years.
var dateLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"2/1/06",
}

// parseDate coerces a possibly-malformed date cell to a time, or the zero
// time when no layout matches. Bad dates are data, not errors.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// indexColumns resolves the required columns against a header row.
// A missing required column is fatal: aggregating without it would produce
// silently wrong output.
func indexColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if canonical, ok := headerAliases[name]; ok {
			name = canonical
		}
		idx[name] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// ReadRaw reads a raw transaction CSV. Malformed dates become the zero time;
// a malformed amount or a missing column is an error.
func ReadRaw(r io.Reader) ([]model.RawTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty transactions CSV: %s", strings.Join(requiredColumns, ", "))
	}

	idx, err := indexColumns(records[0])
	if err != nil {
		return nil, err
	}

	var txns []model.RawTransaction
	for i, rec := range records[1:] {
		txn, err := unmarshalRaw(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func unmarshalRaw(rec []string, idx map[string]int) (model.RawTransaction, error) {
	cell := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(cell("TransactionAmount")))
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parsing amount %q: %w", cell("TransactionAmount"), err)
	}

	return model.RawTransaction{
		TransactionID:   cell("TransactionID"),
		CustomerDOB:     parseDate(cell("CustomerDOB")),
		TransactionDate: parseDate(cell("TransactionDate")),
		CustLocation:    cell("CustLocation"),
		Amount:          amount,
	}, nil
}

// WriteCleaned writes cleaned transactions (including header). Dates are
// normalized to ISO form; a still-unparseable transaction date writes as an
// empty cell alongside an empty month bucket.
func WriteCleaned(w io.Writer, rows []model.CleanedTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(marshalCleaned(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

func marshalCleaned(t model.CleanedTransaction) []string {
	row := make([]string, numOutFields)
	row[colTxnID] = t.TransactionID
	if !t.CustomerDOB.IsZero() {
		row[colDOB] = t.CustomerDOB.Format(dateFormat)
	}
	if !t.TransactionDate.IsZero() {
		row[colTxnDate] = t.TransactionDate.Format(dateFormat)
	}
	row[colLocation] = t.CustLocation
	row[colAmount] = t.Amount.String()
	row[colAge] = strconv.Itoa(t.Age)
	row[colMonth] = t.Month
	return row
}
