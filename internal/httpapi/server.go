// Package httpapi is the portfolio backend: the OTP auth endpoints, the
// session-gated public project reads, and the Basic-auth admin surface.
package httpapi

import (
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"portfolio-site/internal/auth"
	"portfolio-site/internal/config"
	"portfolio-site/internal/store"
)

type Server struct {
	cfg   config.Config
	store store.Store
	auth  *auth.Service
	mux   *http.ServeMux

	adminPasswordHash []byte
}

func NewServer(cfg config.Config, st store.Store, authsvc *auth.Service) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		auth:  authsvc,
		mux:   http.NewServeMux(),
	}
	if cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash admin password: %v", err)
		}
		s.adminPasswordHash = hash
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.publicSessionMiddleware(h)
	h = recoverMiddleware(h)
	h = requestIDMiddleware(h)
	h = loggingMiddleware(h)
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/public/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/public/auth/request-code", s.handleRequestCode)
	s.mux.HandleFunc("POST /api/public/auth/verify-code", s.handleVerifyCode)
	s.mux.HandleFunc("GET /api/public/auth/session", s.handleSessionStatus)
	s.mux.HandleFunc("POST /api/public/auth/logout", s.handleLogout)

	s.mux.HandleFunc("GET /api/public/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /api/public/projects/{slug}", s.handleGetProject)

	admin := s.adminAuth
	s.mux.HandleFunc("GET /api/admin/projects/ping", admin(s.handleAdminPing))
	s.mux.HandleFunc("POST /api/admin/projects", admin(s.handleCreateProject))
	s.mux.HandleFunc("PUT /api/admin/projects/{id}", admin(s.handleUpdateProject))
	s.mux.HandleFunc("DELETE /api/admin/projects/{id}", admin(s.handleDeleteProject))

	s.mux.HandleFunc("POST /api/admin/access-codes", admin(s.handleIssueCode))
	s.mux.HandleFunc("GET /api/admin/access-codes", admin(s.handleListCodes))
	s.mux.HandleFunc("GET /api/admin/access-codes/attempts", admin(s.handleListAttempts))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
