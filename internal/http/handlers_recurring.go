package http

import (
	"net/http"
	"time"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

type templateRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	RecurrenceDay int             `json:"recurrenceDay"`
	Notes         string          `json:"notes,omitempty"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	templates, err := s.ledger.ListTemplates(r.Context(), p.UserID, kindFromPath(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if templates == nil {
		templates = []core.RecurringTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	saved, err := s.ledger.AddTemplate(r.Context(), p.UserID, core.RecurringTemplate{
		Kind:          kindFromPath(r),
		Amount:        req.Amount,
		Category:      req.Category,
		RecurrenceDay: req.RecurrenceDay,
		Notes:         req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	err := s.ledger.DeleteTemplate(r.Context(), p.UserID, kindFromPath(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMaterialize fires the caller's due templates immediately instead of
// waiting for the next worker sweep. Safe to call repeatedly; the storage
// marker keeps each template at one firing per cycle.
func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	fired, err := s.processor.ProcessDue(r.Context(), p.UserID, time.Now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if fired > 0 {
		s.invalidateSummary(p.UserID)
	}
	writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}
