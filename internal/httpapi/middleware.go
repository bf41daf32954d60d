package httpapi

import (
	"crypto/subtle"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(requestIDHeader) == "" {
			r.Header.Set(requestIDHeader, uuid.NewString())
		}
		w.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s in %s", r.Method, r.URL.Path, r.Header.Get(requestIDHeader), time.Since(start).String())
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeError(w, http.StatusInternalServerError, "panic", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// publicSessionMiddleware gates the public read surface behind a live
// session cookie. Auth endpoints and health stay open so a session can be
// obtained in the first place, and the whole check is skipped when the auth
// flag is off.
func (s *Server) publicSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AuthEnabled {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		path := r.URL.Path
		if !strings.HasPrefix(path, "/api/public/") {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(path, "/api/public/auth/") || path == "/api/public/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := cookieValue(r, s.cfg.SessionCookie)
		if token == "" || !s.auth.SessionStatus(r.Context(), token).Authenticated {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication code is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminAuth requires HTTP Basic credentials matching the configured admin
// account. With no admin account configured every admin call is refused.
func (s *Server) adminAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminUsername == "" || len(s.adminPasswordHash) == 0 {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "admin account is not configured")
			return
		}

		username, password, ok := basicAuth(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="portfolio admin"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
		passOK := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)) == nil
		if !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="portfolio admin"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
			return
		}

		next(w, r)
	}
}

func basicAuth(r *http.Request) (username, password string, ok bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(decoded), ":")
	return username, password, ok
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if first, _, found := strings.Cut(ip, ","); found {
			return strings.TrimSpace(first)
		}
		return ip
	}
	return r.RemoteAddr
}
