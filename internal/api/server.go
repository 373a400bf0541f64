// Package api exposes the derived RFM views over HTTP. Every request
// recomputes its views from the shared immutable table, so handlers are
// stateless and safe for concurrent use.
package api

import (
	"log/slog"
	"net/http"

	"github.com/banktrust-dev/rfmboard/internal/metrics"
	"github.com/banktrust-dev/rfmboard/internal/rfm"
)

// Server wires the HTTP routes for the dashboard API.
type Server struct {
	table    *rfm.Table
	topN     int
	maxLimit int
	log      *slog.Logger
}

// NewServer creates a Server over a loaded table. topN is the default size
// of the top-spenders view; maxLimit caps the ?limit query parameter.
func NewServer(table *rfm.Table, topN, maxLimit int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	metrics.SetTableRows(table.Len())
	return &Server{table: table, topN: topN, maxLimit: maxLimit, log: log}
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.log))
	}

	handle("GET /api/summary", "summary", s.handleSummary)
	handle("GET /api/clusters", "clusters", s.handleClusters)
	handle("GET /api/segments", "segments", s.handleSegments)
	handle("GET /api/spread", "spread", s.handleSpread)
	handle("GET /api/top", "top", s.handleTop)
	handle("GET /api/export", "export", s.handleExport)
	handle("GET /api/guide", "guide", s.handleGuide)
	mux.Handle("GET /healthz", metrics.Handler())
}
