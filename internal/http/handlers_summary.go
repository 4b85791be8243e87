package http

import (
	"log/slog"
	"net/http"
)

// handleSummary serves the dashboard aggregate. The view is cached per user
// and dropped by every mutating endpoint, so a hit is never stale beyond the
// cache TTL.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	if view, ok := s.summaryCache.Get(p.UserID); ok {
		slog.DebugContext(r.Context(), "Summary cache hit", "user_id", p.UserID)
		writeJSON(w, http.StatusOK, view)
		return
	}

	view, err := s.ledger.Summary(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.summaryCache.Set(p.UserID, view)
	writeJSON(w, http.StatusOK, view)
}
