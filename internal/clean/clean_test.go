package clean

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// ref is the fixed "today" used across preprocessing tests.
var ref = date(2016, 9, 1)

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"mid twenties", date(1990, 5, 10), 26},
		{"mid sixties", date(1950, 3, 15), 66},
		{"forty", date(1975, 12, 1), 40},
		{"child", date(2005, 1, 1), 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AgeAt(tt.dob, ref)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgeAt_Invalid(t *testing.T) {
	_, ok := AgeAt(time.Time{}, ref)
	assert.False(t, ok, "zero dob has no age")

	_, ok = AgeAt(ref.AddDate(1, 0, 0), ref)
	assert.False(t, ok, "future dob has no age")
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2016-08", MonthKey(date(2016, 8, 15)))
	assert.Equal(t, "1994-01", MonthKey(date(1994, 1, 1)))
	assert.Empty(t, MonthKey(time.Time{}))
}

func txn(id string, dob, txnDate time.Time) model.RawTransaction {
	return model.RawTransaction{
		TransactionID:   id,
		CustomerDOB:     dob,
		TransactionDate: txnDate,
		CustLocation:    "MUMBAI",
		Amount:          decimal.NewFromInt(100),
	}
}

func TestRun_AgeBounds(t *testing.T) {
	rows := []model.RawTransaction{
		txn("too-young", date(1999, 3, 1), date(2016, 8, 1)),   // 17
		txn("just-adult", date(1998, 3, 1), date(2016, 8, 1)),  // 18
		txn("centenary", date(1916, 3, 1), date(2016, 8, 1)),   // 100
		txn("too-old", date(1915, 3, 1), date(2016, 8, 1)),     // 101
		txn("no-dob", time.Time{}, date(2016, 8, 1)),           // dropped
		txn("mid-range", date(1975, 12, 1), date(2016, 7, 21)), // 40
	}

	cleaned := Run(rows, ref)
	require.Len(t, cleaned, 3)

	// Bounds are inclusive and survivor order is input order.
	assert.Equal(t, "just-adult", cleaned[0].TransactionID)
	assert.Equal(t, 18, cleaned[0].Age)
	assert.Equal(t, "centenary", cleaned[1].TransactionID)
	assert.Equal(t, 100, cleaned[1].Age)
	assert.Equal(t, "mid-range", cleaned[2].TransactionID)
	assert.Equal(t, 40, cleaned[2].Age)
}

func TestRun_MonthBuckets(t *testing.T) {
	rows := []model.RawTransaction{
		txn("a", date(1980, 1, 1), date(2016, 8, 2)),
		txn("b", date(1980, 1, 1), time.Time{}), // valid age, bad date
	}

	cleaned := Run(rows, ref)
	require.Len(t, cleaned, 2)
	assert.Equal(t, "2016-08", cleaned[0].Month)
	assert.Empty(t, cleaned[1].Month, "unparseable transaction date has no bucket")
}

func TestRun_Empty(t *testing.T) {
	assert.Nil(t, Run(nil, ref))
}

func TestMonthlyVolume(t *testing.T) {
	cleaned := Run([]model.RawTransaction{
		txn("a", date(1980, 1, 1), date(2016, 8, 2)),
		txn("b", date(1980, 1, 1), date(2016, 7, 21)),
		txn("c", date(1980, 1, 1), date(2016, 8, 30)),
		txn("d", date(1980, 1, 1), time.Time{}),
	}, ref)

	vols := MonthlyVolume(cleaned)
	require.Len(t, vols, 2)
	assert.Equal(t, MonthVolume{Month: "2016-07", Count: 1}, vols[0])
	assert.Equal(t, MonthVolume{Month: "2016-08", Count: 2}, vols[1])
}

func TestTopLocations(t *testing.T) {
	mk := func(id, loc string) model.RawTransaction {
		r := txn(id, date(1980, 1, 1), date(2016, 8, 1))
		r.CustLocation = loc
		return r
	}
	cleaned := Run([]model.RawTransaction{
		mk("a", "MUMBAI"), mk("b", "MUMBAI"), mk("c", "DELHI"),
		mk("d", "BANGALORE"), mk("e", "DELHI"), mk("f", "MUMBAI"),
	}, ref)

	top := TopLocations(cleaned, 2)
	require.Len(t, top, 2)
	assert.Equal(t, LocationVolume{Location: "MUMBAI", Count: 3}, top[0])
	assert.Equal(t, LocationVolume{Location: "DELHI", Count: 2}, top[1])

	// Ties break alphabetically.
	tied := TopLocations(cleaned[2:4], 2)
	require.Len(t, tied, 2)
	assert.Equal(t, LocationVolume{Location: "BANGALORE", Count: 1}, tied[0])
	assert.Equal(t, LocationVolume{Location: "DELHI", Count: 1}, tied[1])
}
