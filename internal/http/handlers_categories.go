package http

import (
	"net/http"

	"finanzas/internal/categories"
	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

func (s *Server) registryFor(kind core.Kind) *categories.Registry {
	if kind == core.Income {
		return s.incomeCats
	}
	return s.expenseCats
}

type categoryRequest struct {
	Kind string `json:"kind,omitempty"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	kind, err := kindFromQuery(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "unknown kind")
		return
	}

	cats, err := s.registryFor(kind).List(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	kind := core.Expense
	if req.Kind != "" {
		kind = core.Kind(req.Kind)
		if err := kind.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "unknown kind")
			return
		}
	}

	cat, err := s.registryFor(kind).Add(r.Context(), p.UserID, req.Name, req.Icon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSummary(p.UserID)
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	kind, err := kindFromQuery(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "unknown kind")
		return
	}

	if err := s.registryFor(kind).Delete(r.Context(), p.UserID, r.PathValue("value")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSummary(p.UserID)
	w.WriteHeader(http.StatusNoContent)
}

type budgetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	budgets, err := s.expenseCats.Budgets(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.expenseCats.SetBudget(r.Context(), p.UserID, r.PathValue("category"), req.Amount); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSummary(p.UserID)
	w.WriteHeader(http.StatusNoContent)
}
