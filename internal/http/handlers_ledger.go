package http

import (
	"net/http"
	"time"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     *time.Time      `json:"date,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	txns, err := s.ledger.ListTransactions(r.Context(), p.UserID, kindFromPath(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	txn := core.Transaction{
		Kind:     kindFromPath(r),
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
		Notes:    req.Notes,
	}
	if req.Date != nil {
		txn.Date = *req.Date
	}

	saved, err := s.ledger.AddTransaction(r.Context(), p.UserID, txn)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSummary(p.UserID)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	err := s.ledger.DeleteTransaction(r.Context(), p.UserID, kindFromPath(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateSummary(p.UserID)
	w.WriteHeader(http.StatusNoContent)
}
