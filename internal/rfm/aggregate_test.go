package rfm

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func rec(id string, recency, frequency int, monetary string, cluster int, segment string) model.CustomerRecord {
	return model.CustomerRecord{
		CustomerID: id,
		Recency:    recency,
		Frequency:  frequency,
		Monetary:   dec(monetary),
		Cluster:    cluster,
		Segment:    segment,
	}
}

// twoCustomers is the worked example: one best customer, one churned.
func twoCustomers() *Table {
	return NewTable([]model.CustomerRecord{
		rec("C1", 5, 10, "1000", 0, "Best"),
		rec("C2", 50, 1, "50", 2, "Churned"),
	})
}

func TestFilterMatch(t *testing.T) {
	r := rec("C1", 5, 10, "1000", 0, "Best")

	assert.True(t, Filter{}.Match(r), "nil slices select everything")
	assert.True(t, Filter{Segments: []string{"Best"}, Clusters: []int{0}}.Match(r))
	assert.False(t, Filter{Segments: []string{}}.Match(r), "empty non-nil slice selects nothing")
	assert.False(t, Filter{Clusters: []int{}}.Match(r))
	assert.False(t, Filter{Segments: []string{"Best"}, Clusters: []int{1}}.Match(r),
		"both dimensions must match")
	assert.False(t, Filter{Segments: []string{"Churned"}, Clusters: []int{0}}.Match(r))
}

func TestComputeViews_WorkedExample(t *testing.T) {
	v := ComputeViews(twoCustomers(), Filter{Segments: []string{"Best"}}, DefaultTopN)

	assert.Equal(t, 1, v.KPI.Count)
	assert.InDelta(t, 5, v.KPI.AvgRecency, 0.001)
	assert.InDelta(t, 10, v.KPI.AvgFrequency, 0.001)
	assert.InDelta(t, 1000, v.KPI.AvgMonetary, 0.001)

	require.Len(t, v.Clusters, 1)
	assert.Equal(t, 0, v.Clusters[0].Cluster)
	assert.InDelta(t, 5.0, v.Clusters[0].AvgRecency, 0.001)

	require.Len(t, v.Records, 1)
	assert.Equal(t, "C1", v.Records[0].CustomerID)
}

func TestComputeViews_TopOne(t *testing.T) {
	v := ComputeViews(twoCustomers(), Filter{}, 1)
	require.Len(t, v.Top, 1)
	assert.Equal(t, "C1", v.Top[0].CustomerID)
}

func TestComputeViews_EmptySelection(t *testing.T) {
	v := ComputeViews(twoCustomers(), Filter{Segments: []string{}}, DefaultTopN)

	assert.Zero(t, v.KPI.Count)
	assert.True(t, math.IsNaN(v.KPI.AvgRecency))
	assert.True(t, math.IsNaN(v.KPI.AvgFrequency))
	assert.True(t, math.IsNaN(v.KPI.AvgMonetary))
	assert.Empty(t, v.Clusters)
	assert.Empty(t, v.Segments)
	assert.Empty(t, v.Top)
	assert.Empty(t, v.Records)
}

func TestComputeViews_SelectAllEqualsFullTable(t *testing.T) {
	table := twoCustomers()

	byDefault := ComputeViews(table, Filter{}, DefaultTopN)
	explicit := ComputeViews(table, Filter{
		Segments: table.Segments(),
		Clusters: table.Clusters(),
	}, DefaultTopN)

	assert.Equal(t, table.Records(), byDefault.Records)
	assert.Equal(t, byDefault.Records, explicit.Records)
}

func TestComputeViews_FilterIsConjunction(t *testing.T) {
	table := NewTable([]model.CustomerRecord{
		rec("A", 10, 2, "100", 0, "Best"),
		rec("B", 10, 2, "100", 1, "Best"),
		rec("C", 10, 2, "100", 0, "Churned"),
		rec("D", 10, 2, "100", 1, "Churned"),
	})

	v := ComputeViews(table, Filter{Segments: []string{"Best"}, Clusters: []int{0}}, DefaultTopN)
	require.Len(t, v.Records, 1)
	assert.Equal(t, "A", v.Records[0].CustomerID)
}

func TestClusterProfiles_Rounding(t *testing.T) {
	table := NewTable([]model.CustomerRecord{
		rec("A", 10, 1, "100.10", 0, "Best"),
		rec("B", 11, 2, "100.25", 0, "Best"),
		rec("C", 99, 9, "5.00", 3, "Churned"),
	})

	v := ComputeViews(table, Filter{}, DefaultTopN)
	require.Len(t, v.Clusters, 2)

	// Clusters are ordered by id, means rounded to one decimal.
	assert.Equal(t, 0, v.Clusters[0].Cluster)
	assert.Equal(t, 2, v.Clusters[0].Customers)
	assert.InDelta(t, 10.5, v.Clusters[0].AvgRecency, 0.001)
	assert.InDelta(t, 1.5, v.Clusters[0].AvgFrequency, 0.001)
	assert.InDelta(t, 100.2, v.Clusters[0].AvgMonetary, 0.001)
	assert.Equal(t, 3, v.Clusters[1].Cluster)
}

func TestClusterProfiles_Idempotent(t *testing.T) {
	table := NewTable([]model.CustomerRecord{
		rec("A", 10, 1, "100.10", 0, "Best"),
		rec("B", 11, 2, "100.25", 0, "Best"),
		rec("C", 99, 9, "5.00", 3, "Churned"),
	})
	f := Filter{Segments: []string{"Best", "Churned"}}

	first := ComputeViews(table, f, DefaultTopN)
	second := ComputeViews(table, f, DefaultTopN)
	assert.Equal(t, first.Clusters, second.Clusters)
	assert.Equal(t, first.Segments, second.Segments)
}

func TestSegmentShares(t *testing.T) {
	table := NewTable([]model.CustomerRecord{
		rec("A", 5, 10, "750", 0, "Best"),
		rec("B", 7, 9, "150", 0, "Best"),
		rec("C", 80, 1, "100", 2, "Churned"),
		rec("D", 90, 1, "0", 3, "Churned"),
	})

	v := ComputeViews(table, Filter{}, DefaultTopN)
	require.Len(t, v.Segments, 2)

	best := v.Segments[0]
	assert.Equal(t, "Best", best.Segment)
	assert.Equal(t, 2, best.Customers)
	assert.True(t, best.Monetary.Equal(dec("900")))
	assert.InDelta(t, 50.0, best.PctCustomers, 0.001)
	assert.InDelta(t, 90.0, best.PctMonetary, 0.001)

	churned := v.Segments[1]
	assert.InDelta(t, 50.0, churned.PctCustomers, 0.001)
	assert.InDelta(t, 10.0, churned.PctMonetary, 0.001)
}

func TestSegmentShares_PercentagesSumToHundred(t *testing.T) {
	table := NewTable([]model.CustomerRecord{
		rec("A", 5, 10, "333.33", 0, "Best"),
		rec("B", 7, 9, "333.33", 1, "Loyal"),
		rec("C", 80, 1, "333.34", 2, "At Risk"),
		rec("D", 90, 1, "123.45", 3, "Churned"),
		rec("E", 91, 1, "678.90", 3, "Churned"),
		rec("F", 12, 3, "88.88", 1, "Loyal"),
		rec("G", 33, 5, "444.44", 2, "At Risk"),
	})

	v := ComputeViews(table, Filter{}, DefaultTopN)

	var pctCustomers, pctMonetary float64
	for _, s := range v.Segments {
		pctCustomers += s.PctCustomers
		pctMonetary += s.PctMonetary
	}
	assert.InDelta(t, 100.0, pctCustomers, 0.2, "within rounding tolerance")
	assert.InDelta(t, 100.0, pctMonetary, 0.2, "within rounding tolerance")
}

func TestTopByMonetary_StableTies(t *testing.T) {
	view := []model.CustomerRecord{
		rec("A", 1, 1, "100", 0, "Best"),
		rec("B", 1, 1, "500", 0, "Best"),
		rec("C", 1, 1, "100", 0, "Best"),
		rec("D", 1, 1, "250", 0, "Best"),
	}

	top := TopByMonetary(view, 4)
	require.Len(t, top, 4)
	assert.Equal(t, "B", top[0].CustomerID)
	assert.Equal(t, "D", top[1].CustomerID)
	assert.Equal(t, "A", top[2].CustomerID, "ties keep original row order")
	assert.Equal(t, "C", top[3].CustomerID)

	// Truncation and short inputs.
	assert.Len(t, TopByMonetary(view, 2), 2)
	assert.Len(t, TopByMonetary(view, 10), 4)
	assert.Empty(t, TopByMonetary(nil, 10))
}

func TestTopByMonetary_DoesNotReorderInput(t *testing.T) {
	view := []model.CustomerRecord{
		rec("A", 1, 1, "100", 0, "Best"),
		rec("B", 1, 1, "500", 0, "Best"),
	}
	_ = TopByMonetary(view, 1)
	assert.Equal(t, "A", view[0].CustomerID, "input slice stays in original order")
}
