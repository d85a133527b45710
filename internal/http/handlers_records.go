package http

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/storage"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories())
}

func (s *Server) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.List(r.Context(), emailParam(r))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (s *Server) handleFilteredRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.Filtered(r.Context(), emailParam(r), recordFilterFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	saved, err := s.records.Add(r.Context(), req.record())
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.recordsCreated, 1)

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRecordSaved(r.Context(), log.OpCreate, saved.Email, saved.ID, saved.Date, saved.Category, saved.Amount)
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	saved, err := s.records.Update(r.Context(), pathParam(r, "id"), req.record())
	if errors.Is(err, storage.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgRecordNotFound)
		return
	}
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogRecordSaved(r.Context(), log.OpUpdate, saved.Email, saved.ID, saved.Date, saved.Category, saved.Amount)
	writeJSON(w, http.StatusOK, saved)
}

// handleDeleteRecord deletes by the legacy (email, date, category, amount,
// notes) tuple. It answers success whether or not a record matched.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	amount, err := parseAmount(pathParam(r, "amount"))
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	target := core.Record{
		Email:    emailParam(r),
		Date:     strings.TrimSpace(pathParam(r, "date")),
		Category: strings.TrimSpace(pathParam(r, "category")),
		Amount:   amount,
		Notes:    pathParam(r, "notes"),
	}

	deleted, err := s.records.DeleteMatching(r.Context(), target)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if !deleted {
		log.FromContext(r.Context()).WithComponent(log.ComponentRecords).DebugContext(r.Context(), "No record matched delete",
			log.FieldEmail, target.Email,
			log.FieldDate, target.Date,
			log.FieldCategory, target.Category)
	}
	writeJSON(w, http.StatusOK, msgDeleted)
}

func (s *Server) handleDeleteRecordByID(w http.ResponseWriter, r *http.Request) {
	err := s.records.Delete(r.Context(), emailParam(r), pathParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgRecordNotFound)
		return
	}
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, msgDeleted)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	d, err := s.records.Dashboard(r.Context(), email, periodFilterFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
