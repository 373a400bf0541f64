// Package rfm derives aggregate views over a segmented customer table:
// KPI means, per-cluster profiles, per-segment composition, and top spenders.
package rfm

import (
	"sort"

	"github.com/banktrust-dev/rfmboard/internal/model"
)

// Table is an immutable handle over a loaded customer table. It is safe to
// share across concurrent readers; filtering never mutates it.
type Table struct {
	records  []model.CustomerRecord
	segments []string
	clusters []int
}

// NewTable builds a Table and its distinct-value indexes. The records slice
// is retained by the Table; callers must not modify it afterwards.
func NewTable(records []model.CustomerRecord) *Table {
	segSeen := make(map[string]bool)
	clusSeen := make(map[int]bool)
	var segments []string
	var clusters []int
	for _, rec := range records {
		if !segSeen[rec.Segment] {
			segSeen[rec.Segment] = true
			segments = append(segments, rec.Segment)
		}
		if !clusSeen[rec.Cluster] {
			clusSeen[rec.Cluster] = true
			clusters = append(clusters, rec.Cluster)
		}
	}
	sort.Strings(segments)
	sort.Ints(clusters)
	return &Table{records: records, segments: segments, clusters: clusters}
}

// Len returns the number of loaded records.
func (t *Table) Len() int { return len(t.records) }

// Records returns the loaded records in file order.
func (t *Table) Records() []model.CustomerRecord { return t.records }

// Segments returns the distinct segment labels, sorted.
func (t *Table) Segments() []string { return t.segments }

// Clusters returns the distinct cluster ids, sorted.
func (t *Table) Clusters() []int { return t.clusters }
