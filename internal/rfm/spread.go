package rfm

import (
	"sort"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// MetricSpread is a five-number summary of one RFM metric within a cluster.
type MetricSpread struct {
	Metric string
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// ClusterSpread holds the per-metric spreads for one cluster.
type ClusterSpread struct {
	Cluster int
	Metrics []MetricSpread
}

// Spread metric names, in display order.
const (
	MetricRecency   = "Recency"
	MetricFrequency = "Frequency"
	MetricMonetary  = "Monetary"
)

// ClusterSpreads computes five-number summaries of Recency, Frequency and
// Monetary per cluster, the numbers behind the per-cluster box plots.
// Quartiles use linear interpolation between closest ranks.
func ClusterSpreads(view []model.CustomerRecord) []ClusterSpread {
	byCluster := make(map[int][]model.CustomerRecord)
	for _, rec := range view {
		byCluster[rec.Cluster] = append(byCluster[rec.Cluster], rec)
	}

	clusters := make([]int, 0, len(byCluster))
	for c := range byCluster {
		clusters = append(clusters, c)
	}
	sort.Ints(clusters)

	out := make([]ClusterSpread, 0, len(clusters))
	for _, c := range clusters {
		recs := byCluster[c]
		recency := make([]float64, len(recs))
		frequency := make([]float64, len(recs))
		monetary := make([]float64, len(recs))
		for i, rec := range recs {
			recency[i] = float64(rec.Recency)
			frequency[i] = float64(rec.Frequency)
			monetary[i] = rec.Monetary.InexactFloat64()
		}
		out = append(out, ClusterSpread{
			Cluster: c,
			Metrics: []MetricSpread{
				fiveNumber(MetricRecency, recency),
				fiveNumber(MetricFrequency, frequency),
				fiveNumber(MetricMonetary, monetary),
			},
		})
	}
	return out
}

func fiveNumber(metric string, vals []float64) MetricSpread {
	sort.Float64s(vals)
	return MetricSpread{
		Metric: metric,
		Min:    vals[0],
		Q1:     quantile(vals, 0.25),
		Median: quantile(vals, 0.5),
		Q3:     quantile(vals, 0.75),
		Max:    vals[len(vals)-1],
	}
}

// quantile interpolates the q-th quantile of sorted vals.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
