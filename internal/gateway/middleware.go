package gateway

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s in %s", r.Method, r.URL.Path, time.Since(start).String())
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[gateway] panic: %v", rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bypassed paths are never session-gated: static assets and the auth-flow
// form posts (they exist to obtain a session), plus anything under /api/
// which manages its own auth.
func bypassed(path string) bool {
	return strings.HasPrefix(path, "/static/") ||
		strings.HasPrefix(path, "/api/") ||
		strings.HasPrefix(path, "/auth/") ||
		path == "/healthz" ||
		path == "/favicon.ico" ||
		path == adminLoginPath
}

// sessionMiddleware runs once per inbound request, before any page logic.
//
//	no token,      not login page -> redirect to login, remember the path
//	no token,      login page     -> allow
//	valid token,   login page     -> redirect home
//	valid token,   not login page -> allow
//	invalid token, not login page -> clear token, redirect to login
//	invalid token, login page     -> clear token, allow
//
// Any failure talking to the validator counts as invalid. The whole check
// is skipped when the auth flag is off.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AuthEnabled {
			next.ServeHTTP(w, r)
			return
		}

		path := r.URL.Path
		if bypassed(path) {
			next.ServeHTTP(w, r)
			return
		}

		isLoginPage := path == loginPath
		token := s.sessionToken(r)

		if token == "" {
			if isLoginPage {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, loginPath+"?next="+url.QueryEscape(path), http.StatusFound)
			return
		}

		if !s.client.SessionValid(r.Context(), token) {
			s.clearSessionCookie(w)
			if isLoginPage {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}

		if isLoginPage {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext accepts only site-local paths as post-login targets.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	return next
}
