package http

import (
	"errors"
	"net/http"

	"spendly/internal/log"
	"spendly/internal/storage"
)

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	b, created, err := s.budgets.Set(r.Context(), req.email(), float64(req.Budget))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	if !created {
		log.FromContext(r.Context()).WithComponent(log.ComponentBudget).InfoContext(r.Context(), "Budget already set, keeping it",
			log.FieldEmail, b.Email,
			log.FieldBudget, b.Budget)
	}
	writeJSON(w, http.StatusOK, b)
}

// handleUpdateBudget answers null when the user has no budget yet.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	b, err := s.budgets.Update(r.Context(), req.email(), float64(req.Budget))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgets.Get(r.Context(), emailParam(r))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.budgets.Status(r.Context(), emailParam(r))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
