package gateway

import (
	"encoding/base64"
	"net/http"
)

// cookieCredentialStore keeps the encoded elevated credential in its own
// browser-session cookie, the server-side analog of tab-scoped session
// storage. The cookie has no max-age, so closing the browser discards the
// credential; it is a different cookie from the session token and the two
// are never merged.
type cookieCredentialStore struct {
	w      http.ResponseWriter
	r      *http.Request
	name   string
	secure bool

	// cleared shadows the request cookie after Clear so a Get later in
	// the same request does not resurrect the credential.
	cleared bool
}

func (s *cookieCredentialStore) Get() string {
	if s.cleared {
		return ""
	}
	c, err := s.r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return ""
	}
	decoded, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func (s *cookieCredentialStore) Set(value string) {
	s.cleared = false
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.name,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *cookieCredentialStore) Clear() {
	s.cleared = true
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
