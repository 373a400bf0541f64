package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banktrust-dev/rfmboard/internal/model"
	"github.com/banktrust-dev/rfmboard/internal/rfm"
)

func testMux(t *testing.T) *http.ServeMux {
	t.Helper()

	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return d
	}

	table := rfm.NewTable([]model.CustomerRecord{
		{CustomerID: "C1", Recency: 5, Frequency: 10, Monetary: dec("1000"), Cluster: 0, Segment: "Best Customers"},
		{CustomerID: "C2", Recency: 50, Frequency: 1, Monetary: dec("50"), Cluster: 2, Segment: "Churned"},
		{CustomerID: "C3", Recency: 12, Frequency: 7, Monetary: dec("800"), Cluster: 0, Segment: "Best Customers"},
		{CustomerID: "C4", Recency: 90, Frequency: 2, Monetary: dec("300"), Cluster: 1, Segment: "At Risk"},
	})

	mux := http.NewServeMux()
	NewServer(table, 10, 20, slog.New(slog.DiscardHandler)).Register(mux)
	return mux
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestSummary_All(t *testing.T) {
	rr := get(t, testMux(t), "/api/summary")
	require.Equal(t, http.StatusOK, rr.Code)

	var got summaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Count)
	require.NotNil(t, got.AvgRecency)
	assert.InDelta(t, 39.25, *got.AvgRecency, 0.001)
	require.NotNil(t, got.AvgMonetary)
	assert.InDelta(t, 537.5, *got.AvgMonetary, 0.001)
}

func TestSummary_Filtered(t *testing.T) {
	rr := get(t, testMux(t), "/api/summary?segments=Best+Customers&clusters=0")
	require.Equal(t, http.StatusOK, rr.Code)

	var got summaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
	require.NotNil(t, got.AvgFrequency)
	assert.InDelta(t, 8.5, *got.AvgFrequency, 0.001)
}

func TestSummary_EmptySelection(t *testing.T) {
	// A present-but-empty parameter selects no segments.
	rr := get(t, testMux(t), "/api/summary?segments=")
	require.Equal(t, http.StatusOK, rr.Code)

	var got summaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Zero(t, got.Count)
	assert.Nil(t, got.AvgRecency, "empty view has undefined averages")
	assert.Nil(t, got.AvgFrequency)
	assert.Nil(t, got.AvgMonetary)
}

func TestSummary_BadCluster(t *testing.T) {
	rr := get(t, testMux(t), "/api/summary?clusters=zero")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClusters(t *testing.T) {
	rr := get(t, testMux(t), "/api/clusters")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []clusterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Cluster)
	assert.Equal(t, 2, got[0].Customers)
	assert.InDelta(t, 8.5, got[0].AvgRecency, 0.001)
	assert.Contains(t, got[0].Description, "VIP")
}

func TestSegments(t *testing.T) {
	rr := get(t, testMux(t), "/api/segments")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []segmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "Best Customers", got[0].Segment, "largest segment first")
	assert.Equal(t, 2, got[0].Customers)
	assert.Equal(t, "1800", got[0].Monetary)
	assert.InDelta(t, 50.0, got[0].PctCustomers, 0.001)
}

func TestTop_DefaultAndLimit(t *testing.T) {
	mux := testMux(t)

	rr := get(t, mux, "/api/top?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []topResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "C1", got[0].CustomerID)
	assert.Equal(t, "C3", got[1].CustomerID)
}

func TestTop_LimitExceeded(t *testing.T) {
	rr := get(t, testMux(t), "/api/top?limit=500")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "limit_exceeded")
}

func TestTop_InvalidLimit(t *testing.T) {
	rr := get(t, testMux(t), "/api/top?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExport_RoundTrips(t *testing.T) {
	rr := get(t, testMux(t), "/api/export?segments=Churned")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "filtered_rfm.csv")

	recs, err := rfm.ReadRecords(strings.NewReader(rr.Body.String()))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "C2", recs[0].CustomerID)
	assert.Equal(t, "Churned", recs[0].Segment)
}

func TestGuide(t *testing.T) {
	rr := get(t, testMux(t), "/api/guide")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []rfm.GuideRow
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "Best Customers", got[0].Name)
}

func TestSpread(t *testing.T) {
	rr := get(t, testMux(t), "/api/spread?clusters=0")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []rfm.ClusterSpread
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Cluster)
}

func TestRequestIDHeader(t *testing.T) {
	rr := get(t, testMux(t), "/api/summary")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rr = httptest.NewRecorder()
	testMux(t).ServeHTTP(rr, req)
	assert.Equal(t, "given-id", rr.Header().Get("X-Request-ID"))
}

func TestHealthzServesMetrics(t *testing.T) {
	mux := testMux(t)
	get(t, mux, "/api/summary")

	rr := get(t, mux, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "rfmboard_http_requests_total")
}
