package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"freelancedesk/internal/analytics"
	"freelancedesk/internal/export"
	"freelancedesk/internal/log"
)

// handleDashboard serves the overview for ?month=YYYY-MM with a
// ?months= revenue series and ?top= client ranking.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	defaults := analytics.DefaultOptions()

	month, err := ParseMonthParam(query, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := ParseIntParam(query, "months", defaults.SeriesMonths, 1, 24)
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := ParseIntParam(query, "top", defaults.TopClients, 1, 50)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.svc.Dashboard.Overview(r.Context(), owner(r), month, analytics.Options{SeriesMonths: months, TopClients: top})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, snap)
}

// handleExport streams one collection as CSV. The path is
// /api/export/{collection}.csv with an optional ?month=YYYY-MM filter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".csv")
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	collection, err := export.ParseCollection(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := ParseMonthParam(r.URL.Query(), "month")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ds, err := s.svc.Dashboard.Load(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	rows, err := export.Write(&buf, collection, ds, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Export written",
		log.FieldOperation, log.OpExport,
		log.FieldEntity, string(collection),
		"rows", rows)

	filename := string(collection)
	if !month.IsZero() {
		filename += "-" + month.Format(analytics.MonthKeyLayout)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
