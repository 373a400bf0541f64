// Package runlog records batch runs (preprocess, export) to an append-only
// CSV under logs/.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp time.Time
	Action    string // "preprocess", "export", ...
	Detail    string
	RowsIn    int
	RowsOut   int
	Output    string // path of the file written, if any
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,action,detail,rows_in,rows_out,output"

const (
	numFields    = 6
	logFile      = "logs/run-log.csv"
	colTimestamp = 0
	colAction    = 1
	colDetail    = 2
	colRowsIn    = 3
	colRowsOut   = 4
	colOutput    = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colAction] = e.Action
	row[colDetail] = e.Detail
	row[colRowsIn] = strconv.Itoa(e.RowsIn)
	row[colRowsOut] = strconv.Itoa(e.RowsOut)
	row[colOutput] = e.Output
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(rec []string) (Entry, error) {
	if len(rec) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	ts, err := time.Parse(time.RFC3339, rec[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", rec[colTimestamp], err)
	}
	rowsIn, err := strconv.Atoi(rec[colRowsIn])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rows_in %q: %w", rec[colRowsIn], err)
	}
	rowsOut, err := strconv.Atoi(rec[colRowsOut])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rows_out %q: %w", rec[colRowsOut], err)
	}

	return Entry{
		Timestamp: ts,
		Action:    rec[colAction],
		Detail:    rec[colDetail],
		RowsIn:    rowsIn,
		RowsOut:   rowsOut,
		Output:    rec[colOutput],
	}, nil
}

// Append writes an entry to <root>/logs/run-log.csv, creating the file and
// header on first use.
func Append(root string, e Entry) error {
	path := filepath.Join(root, logFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(MarshalEntry(e)); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// Read reads all run log entries from r.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if strings.Join(records[0], ",") != Header {
		return nil, fmt.Errorf("unexpected header: %s", strings.Join(records[0], ","))
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
