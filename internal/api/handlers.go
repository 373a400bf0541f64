package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/banktrust-dev/rfmboard/internal/metrics"
	"github.com/banktrust-dev/rfmboard/internal/rfm"
)

// parseFilter builds a segment/cluster filter from query parameters.
// An absent parameter selects all values; a present-but-empty one selects
// none. Values are comma separated.
func parseFilter(q url.Values) (rfm.Filter, error) {
	var f rfm.Filter

	if vals, ok := q["segments"]; ok {
		f.Segments = []string{}
		for _, v := range vals {
			for _, s := range strings.Split(v, ",") {
				if s != "" {
					f.Segments = append(f.Segments, s)
				}
			}
		}
	}

	if vals, ok := q["clusters"]; ok {
		f.Clusters = []int{}
		for _, v := range vals {
			for _, s := range strings.Split(v, ",") {
				if s == "" {
					continue
				}
				n, err := strconv.Atoi(s)
				if err != nil {
					return rfm.Filter{}, fmt.Errorf("invalid cluster %q", s)
				}
				f.Clusters = append(f.Clusters, n)
			}
		}
	}

	return f, nil
}

func (s *Server) views(r *http.Request, topN int) (rfm.Views, error) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		return rfm.Views{}, err
	}
	metrics.RecordViewComputation()
	return rfm.ComputeViews(s.table, f, topN), nil
}

// nullable maps NaN to a JSON null.
func nullable(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}

type summaryResponse struct {
	Count        int      `json:"count"`
	AvgRecency   *float64 `json:"avg_recency"`
	AvgFrequency *float64 `json:"avg_frequency"`
	AvgMonetary  *float64 `json:"avg_monetary"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r, s.topN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Count:        v.KPI.Count,
		AvgRecency:   nullable(v.KPI.AvgRecency),
		AvgFrequency: nullable(v.KPI.AvgFrequency),
		AvgMonetary:  nullable(v.KPI.AvgMonetary),
	})
}

type clusterResponse struct {
	Cluster      int     `json:"cluster"`
	Customers    int     `json:"customers"`
	AvgRecency   float64 `json:"avg_recency"`
	AvgFrequency float64 `json:"avg_frequency"`
	AvgMonetary  float64 `json:"avg_monetary"`
	Description  string  `json:"description"`
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r, s.topN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out := make([]clusterResponse, 0, len(v.Clusters))
	for _, p := range v.Clusters {
		out = append(out, clusterResponse{
			Cluster:      p.Cluster,
			Customers:    p.Customers,
			AvgRecency:   p.AvgRecency,
			AvgFrequency: p.AvgFrequency,
			AvgMonetary:  p.AvgMonetary,
			Description:  rfm.DescribeCluster(p.Cluster),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type segmentResponse struct {
	Segment      string  `json:"segment"`
	Customers    int     `json:"customers"`
	Monetary     string  `json:"monetary"`
	PctCustomers float64 `json:"pct_customers"`
	PctMonetary  float64 `json:"pct_monetary"`
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r, s.topN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out := make([]segmentResponse, 0, len(v.Segments))
	for _, share := range v.Segments {
		out = append(out, segmentResponse{
			Segment:      share.Segment,
			Customers:    share.Customers,
			Monetary:     share.Monetary.String(),
			PctCustomers: share.PctCustomers,
			PctMonetary:  share.PctMonetary,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSpread(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r, s.topN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, rfm.ClusterSpreads(v.Records))
}

type topResponse struct {
	CustomerID string `json:"customer_id"`
	Recency    int    `json:"recency"`
	Frequency  int    `json:"frequency"`
	Monetary   string `json:"monetary"`
	Cluster    int    `json:"cluster"`
	Segment    string `json:"segment"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	limit := s.topN
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid limit %q", v))
			return
		}
		if n > s.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded",
				fmt.Errorf("limit %d exceeds maximum %d", n, s.maxLimit))
			return
		}
		limit = n
	}

	v, err := s.views(r, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out := make([]topResponse, 0, len(v.Top))
	for _, rec := range v.Top {
		out = append(out, topResponse{
			CustomerID: rec.CustomerID,
			Recency:    rec.Recency,
			Frequency:  rec.Frequency,
			Monetary:   rec.Monetary.String(),
			Cluster:    rec.Cluster,
			Segment:    rec.Segment,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r, s.topN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_rfm.csv"`)
	if err := rfm.WriteRecords(w, v.Records); err != nil {
		s.log.Error("writing export", "error", err)
	}
}

func (s *Server) handleGuide(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rfm.SegmentGuide)
}
