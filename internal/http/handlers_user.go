package http

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"spendly/internal/log"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpRegister, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.email(), req.Password)
	if err != nil {
		writeError(w, r, log.OpRegister, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.usersCreated, 1)

	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "User registered",
		log.FieldEmail, user.Email)
	writeMessage(w, http.StatusOK, fmt.Sprintf("User %s has been created!", user.Username))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpLogin, err)
		return
	}

	if _, err := s.users.Login(r.Context(), req.email(), req.Password); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Login rejected",
			log.FieldEmail, req.email(),
			log.FieldError, err)
		writeError(w, r, log.OpLogin, err)
		return
	}
	writeMessage(w, http.StatusOK, msgLoginOK)
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.Users(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
