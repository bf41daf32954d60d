// Package gateway is the public face of the portfolio site: it renders the
// pages and enforces the two authorization tiers in front of them, the
// session check on every request and the elevated credential on every
// content mutation.
package gateway

import (
	"net/http"

	"portfolio-site/internal/backend"
	"portfolio-site/internal/config"
)

const (
	loginPath        = "/auth"
	adminLoginPath   = "/admin/login"
	defaultAdminNext = "/projects/admin/new"
)

type Server struct {
	cfg    config.Config
	client *backend.Client
	mux    *http.ServeMux
	flows  *flowRegistry
}

func NewServer(cfg config.Config) (*Server, error) {
	client, err := backend.NewClient(cfg.APIBaseURL, cfg.SessionCookie)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		client: client,
		mux:    http.NewServeMux(),
		flows:  newFlowRegistry(),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.sessionMiddleware(h)
	h = recoverMiddleware(h)
	h = loggingMiddleware(h)
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", staticHandler()))

	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /projects", s.handleProjects)
	s.mux.HandleFunc("GET /projects/{slug}", s.handleProjectDetail)

	s.mux.HandleFunc("GET "+loginPath, s.handleAuthPage)
	s.mux.HandleFunc("POST /auth/request-code", s.handleRequestCode)
	s.mux.HandleFunc("POST /auth/verify-code", s.handleVerifyCode)
	s.mux.HandleFunc("POST /auth/logout", s.handleLogout)

	s.mux.HandleFunc("GET "+adminLoginPath, s.handleAdminLoginPage)
	s.mux.HandleFunc("POST "+adminLoginPath, s.handleAdminLogin)

	s.mux.HandleFunc("GET /projects/admin/new", s.handleNewProjectPage)
	s.mux.HandleFunc("POST /projects/admin/create", s.handleCreateProject)
	s.mux.HandleFunc("POST /projects/{id}/update", s.handleUpdateProject)
	s.mux.HandleFunc("POST /projects/{id}/delete", s.handleDeleteProject)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// guardFor builds a write guard bound to this browser's credential cookie.
func (s *Server) guardFor(w http.ResponseWriter, r *http.Request) *backend.Guard {
	return backend.NewGuard(s.client, s.credentialStore(w, r))
}

func (s *Server) credentialStore(w http.ResponseWriter, r *http.Request) backend.CredentialStore {
	return &cookieCredentialStore{
		w:      w,
		r:      r,
		name:   s.cfg.AdminCookie,
		secure: s.cfg.CookieSecure,
	}
}

func (s *Server) sessionToken(r *http.Request) string {
	c, err := r.Cookie(s.cfg.SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
