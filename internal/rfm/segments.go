package rfm

// GuideRow maps an RFM score range to a segment name and description.
type GuideRow struct {
	ScoreRange  string `json:"score_range"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SegmentGuide is the fixed score-range reference table shown alongside the
// derived views. It is hand-authored marketing copy, not derived from data,
// and must match the published dashboard wording exactly.
var SegmentGuide = []GuideRow{
	{"9–12", "Best Customers", "Recently active, frequent, high spenders"},
	{"6–8", "Loyal Customers", "Good but less recent"},
	{"4–5", "At Risk", "Spending dropped, less frequent"},
	{"1–3", "Churned", "Long gone, infrequent, low spending"},
}

// ClusterDescriptions summarizes each upstream cluster for display.
var ClusterDescriptions = map[int]string{
	0: "High-value, frequent, recent – VIPs.",
	1: "Recent but less frequent – re-engage them.",
	2: "Low activity and value – low ROI or new.",
	3: "High recency, low frequency – likely to churn.",
}

// DescribeCluster returns the description for a cluster id, or a fallback
// for ids outside the known model output.
func DescribeCluster(cluster int) string {
	if desc, ok := ClusterDescriptions[cluster]; ok {
		return desc
	}
	return "No description."
}
