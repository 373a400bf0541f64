package rfm

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// DefaultTopN is the number of rows in the top-spenders view.
const DefaultTopN = 10

// Filter selects customers by segment and cluster. A nil slice means "all
// values" (the dashboard default); an empty non-nil slice means "none
// selected". Both dimensions must match (AND).
type Filter struct {
	Segments []string
	Clusters []int
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec model.CustomerRecord) bool {
	if f.Segments != nil && !containsString(f.Segments, rec.Segment) {
		return false
	}
	if f.Clusters != nil && !containsInt(f.Clusters, rec.Cluster) {
		return false
	}
	return true
}

// KPI summarizes the filtered view. The averages are NaN when Count is zero;
// callers render them as undefined rather than dividing themselves.
type KPI struct {
	Count        int
	AvgRecency   float64
	AvgFrequency float64
	AvgMonetary  float64
}

// ClusterProfile is the mean RFM of one cluster within the filtered view,
// rounded to one decimal place.
type ClusterProfile struct {
	Cluster      int
	Customers    int
	AvgRecency   float64
	AvgFrequency float64
	AvgMonetary  float64
}

// SegmentShare is one segment's share of the filtered view. Percentages are
// of the view's totals, not the full table, rounded to one decimal place.
type SegmentShare struct {
	Segment      string
	Customers    int
	Monetary     decimal.Decimal
	PctCustomers float64
	PctMonetary  float64
}

// Views holds every table derived from one filter selection. All slices are
// freshly allocated; recomputing on the same input yields equal results.
type Views struct {
	KPI      KPI
	Clusters []ClusterProfile
	Segments []SegmentShare
	Top      []model.CustomerRecord
	Records  []model.CustomerRecord
}

// ComputeViews filters the table and derives all aggregate views in one
// pass over the filtered subset. An empty selection degrades to empty
// tables and NaN averages; it never panics.
func ComputeViews(t *Table, f Filter, topN int) Views {
	var view []model.CustomerRecord
	for _, rec := range t.Records() {
		if f.Match(rec) {
			view = append(view, rec)
		}
	}

	return Views{
		KPI:      computeKPI(view),
		Clusters: clusterProfiles(view),
		Segments: segmentShares(view),
		Top:      TopByMonetary(view, topN),
		Records:  view,
	}
}

func computeKPI(view []model.CustomerRecord) KPI {
	k := KPI{Count: len(view)}
	if k.Count == 0 {
		k.AvgRecency = math.NaN()
		k.AvgFrequency = math.NaN()
		k.AvgMonetary = math.NaN()
		return k
	}

	var recency, frequency int
	monetary := decimal.Zero
	for _, rec := range view {
		recency += rec.Recency
		frequency += rec.Frequency
		monetary = monetary.Add(rec.Monetary)
	}
	n := float64(k.Count)
	k.AvgRecency = float64(recency) / n
	k.AvgFrequency = float64(frequency) / n
	k.AvgMonetary = monetary.InexactFloat64() / n
	return k
}

func clusterProfiles(view []model.CustomerRecord) []ClusterProfile {
	type sums struct {
		count     int
		recency   int
		frequency int
		monetary  decimal.Decimal
	}
	byCluster := make(map[int]*sums)
	for _, rec := range view {
		s, ok := byCluster[rec.Cluster]
		if !ok {
			s = &sums{}
			byCluster[rec.Cluster] = s
		}
		s.count++
		s.recency += rec.Recency
		s.frequency += rec.Frequency
		s.monetary = s.monetary.Add(rec.Monetary)
	}

	profiles := make([]ClusterProfile, 0, len(byCluster))
	for cluster, s := range byCluster {
		n := float64(s.count)
		profiles = append(profiles, ClusterProfile{
			Cluster:      cluster,
			Customers:    s.count,
			AvgRecency:   round1(float64(s.recency) / n),
			AvgFrequency: round1(float64(s.frequency) / n),
			AvgMonetary:  round1(s.monetary.InexactFloat64() / n),
		})
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Cluster < profiles[j].Cluster })
	return profiles
}

func segmentShares(view []model.CustomerRecord) []SegmentShare {
	type sums struct {
		count    int
		monetary decimal.Decimal
	}
	bySegment := make(map[string]*sums)
	var order []string
	totalMonetary := decimal.Zero
	for _, rec := range view {
		s, ok := bySegment[rec.Segment]
		if !ok {
			s = &sums{}
			bySegment[rec.Segment] = s
			order = append(order, rec.Segment)
		}
		s.count++
		s.monetary = s.monetary.Add(rec.Monetary)
		totalMonetary = totalMonetary.Add(rec.Monetary)
	}

	totalCount := float64(len(view))
	totalValue := totalMonetary.InexactFloat64()

	shares := make([]SegmentShare, 0, len(bySegment))
	for _, segment := range order {
		s := bySegment[segment]
		share := SegmentShare{
			Segment:      segment,
			Customers:    s.count,
			Monetary:     s.monetary,
			PctCustomers: round1(100 * float64(s.count) / totalCount),
		}
		if totalValue != 0 {
			share.PctMonetary = round1(100 * s.monetary.InexactFloat64() / totalValue)
		}
		shares = append(shares, share)
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Customers > shares[j].Customers })
	return shares
}

// TopByMonetary returns the n highest-spending records, descending, with
// ties kept in original row order.
func TopByMonetary(view []model.CustomerRecord, n int) []model.CustomerRecord {
	top := make([]model.CustomerRecord, len(view))
	copy(top, view)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Monetary.GreaterThan(top[j].Monetary) })
	if n > 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func containsString(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(vals []int, n int) bool {
	for _, v := range vals {
		if v == n {
			return true
		}
	}
	return false
}
