package rfm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// Header is the CSV header of the segmented customer table, in canonical
// column order. Exports preserve this order.
const Header = "CustomerID,Recency,Frequency,Monetary,Cluster,Segment"

const (
	numFields    = 6
	colCustomer  = 0
	colRecency   = 1
	colFrequency = 2
	colMonetary  = 3
	colCluster   = 4
	colSegment   = 5
)

// ReadRecords reads a segmented customer CSV. All six columns are required,
// matched by header name; a missing column is fatal at load time. Extra
// columns are ignored.
func ReadRecords(r io.Reader) ([]model.CustomerRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading customer CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty customer CSV: %s", Header)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range strings.Split(Header, ",") {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}

	var recs []model.CustomerRecord
	for i, rec := range records[1:] {
		customer, err := unmarshalRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		recs = append(recs, customer)
	}
	return recs, nil
}

func unmarshalRecord(rec []string, idx map[string]int) (model.CustomerRecord, error) {
	cell := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	recency, err := strconv.Atoi(cell("Recency"))
	if err != nil {
		return model.CustomerRecord{}, fmt.Errorf("parsing Recency %q: %w", cell("Recency"), err)
	}
	frequency, err := strconv.Atoi(cell("Frequency"))
	if err != nil {
		return model.CustomerRecord{}, fmt.Errorf("parsing Frequency %q: %w", cell("Frequency"), err)
	}
	monetary, err := decimal.NewFromString(cell("Monetary"))
	if err != nil {
		return model.CustomerRecord{}, fmt.Errorf("parsing Monetary %q: %w", cell("Monetary"), err)
	}
	cluster, err := strconv.Atoi(cell("Cluster"))
	if err != nil {
		return model.CustomerRecord{}, fmt.Errorf("parsing Cluster %q: %w", cell("Cluster"), err)
	}

	return model.CustomerRecord{
		CustomerID: cell("CustomerID"),
		Recency:    recency,
		Frequency:  frequency,
		Monetary:   monetary,
		Cluster:    cluster,
		Segment:    cell("Segment"),
	}, nil
}

// WriteRecords writes customer records (including header) in canonical
// column order. Values round-trip through ReadRecords unchanged.
func WriteRecords(w io.Writer, recs []model.CustomerRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range recs {
		if err := cw.Write(marshalRecord(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

func marshalRecord(rec model.CustomerRecord) []string {
	row := make([]string, numFields)
	row[colCustomer] = rec.CustomerID
	row[colRecency] = strconv.Itoa(rec.Recency)
	row[colFrequency] = strconv.Itoa(rec.Frequency)
	row[colMonetary] = rec.Monetary.String()
	row[colCluster] = strconv.Itoa(rec.Cluster)
	row[colSegment] = rec.Segment
	return row
}

// LoadTable reads a segmented customer CSV into an immutable Table.
func LoadTable(r io.Reader) (*Table, error) {
	recs, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}
	return NewTable(recs), nil
}
