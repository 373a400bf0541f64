package clean

import (
	"sort"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// MonthVolume is the transaction count for one calendar-month bucket.
type MonthVolume struct {
	Month string
	Count int
}

// LocationVolume is the transaction count for one customer location.
type LocationVolume struct {
	Location string
	Count    int
}

// MonthlyVolume counts cleaned transactions per month bucket, in month order.
// Rows without a month bucket (unparseable transaction date) are skipped.
func MonthlyVolume(rows []model.CleanedTransaction) []MonthVolume {
	counts := make(map[string]int)
	for _, row := range rows {
		if row.Month == "" {
			continue
		}
		counts[row.Month]++
	}

	out := make([]MonthVolume, 0, len(counts))
	for month, n := range counts {
		out = append(out, MonthVolume{Month: month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TopLocations returns the n locations with the most transactions, count
// descending, name ascending on ties.
func TopLocations(rows []model.CleanedTransaction, n int) []LocationVolume {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.CustLocation]++
	}

	out := make([]LocationVolume, 0, len(counts))
	for loc, c := range counts {
		out = append(out, LocationVolume{Location: loc, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Location < out[j].Location
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
