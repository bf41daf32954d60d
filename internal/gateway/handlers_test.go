package gateway

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/config"
)

func postForm(h http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func adminCookie(header string) *http.Cookie {
	return &http.Cookie{
		Name:  "PORTFOLIO_ADMIN_AUTH",
		Value: base64.RawURLEncoding.EncodeToString([]byte(header)),
	}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// newAdminStubAPI accepts admin:secret on the admin surface and records
// whether any admin endpoint was hit.
func newAdminStubAPI(t *testing.T, adminCalls *atomic.Int32) string {
	t.Helper()
	const accepted = "Basic YWRtaW46c2VjcmV0"

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/", func(w http.ResponseWriter, r *http.Request) {
		adminCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != accepted {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"missing or invalid credentials"}`))
			return
		}
		switch {
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"ok":true}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1,"title":"Portfolio Site","slug":"portfolio-site","category":"SOFTWARE"}`))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func newAdminTestGateway(t *testing.T, adminCalls *atomic.Int32) http.Handler {
	t.Helper()
	cfg := config.Config{
		APIBaseURL:    newAdminStubAPI(t, adminCalls),
		AuthEnabled:   false, // the admin tier is independent of the session tier
		SessionCookie: "PORTFOLIO_SESSION",
		AdminCookie:   "PORTFOLIO_ADMIN_AUTH",
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return srv.Handler()
}

func TestAdminLoginSetsCredentialCookie(t *testing.T) {
	var calls atomic.Int32
	h := newAdminTestGateway(t, &calls)

	rec := postForm(h, "/admin/login", url.Values{
		"username": {"admin"},
		"password": {"secret"},
		"next":     {"/projects/admin/new"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/projects/admin/new", rec.Header().Get("Location"))

	c := responseCookie(rec, "PORTFOLIO_ADMIN_AUTH")
	require.NotNil(t, c, "credential cookie must be set on success")
	decoded, err := base64.RawURLEncoding.DecodeString(c.Value)
	require.NoError(t, err)
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0", string(decoded))
	assert.Zero(t, c.MaxAge, "credential cookie must be browser-session scoped")
	assert.True(t, c.HttpOnly)
}

func TestAdminLoginFailureRendersError(t *testing.T) {
	var calls atomic.Int32
	h := newAdminTestGateway(t, &calls)

	rec := postForm(h, "/admin/login", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed.")
	assert.Nil(t, responseCookie(rec, "PORTFOLIO_ADMIN_AUTH"))
}

func TestCreateWithoutCredentialRedirects(t *testing.T) {
	var calls atomic.Int32
	h := newAdminTestGateway(t, &calls)

	rec := postForm(h, "/projects/admin/create", url.Values{
		"title":    {"Portfolio Site"},
		"category": {"SOFTWARE"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin/login", loc.Path)
	// The in-progress category rides along in the return target.
	assert.Contains(t, loc.Query().Get("next"), "category=SOFTWARE")

	assert.Zero(t, calls.Load(), "no backend call without a credential")
}

func TestCreateWithRejectedCredentialClearsAndRedirects(t *testing.T) {
	var calls atomic.Int32
	h := newAdminTestGateway(t, &calls)

	rec := postForm(h, "/projects/admin/create", url.Values{
		"title":    {"Portfolio Site"},
		"category": {"SOFTWARE"},
	}, adminCookie("Basic c3RhbGU6Y3JlZA"))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin/login", loc.Path)

	c := responseCookie(rec, "PORTFOLIO_ADMIN_AUTH")
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge, "rejected credential cookie must be cleared")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateWithCredentialSucceeds(t *testing.T) {
	var calls atomic.Int32
	h := newAdminTestGateway(t, &calls)

	rec := postForm(h, "/projects/admin/create", url.Values{
		"title":    {"Portfolio Site"},
		"category": {"SOFTWARE"},
	}, adminCookie("Basic YWRtaW46c2VjcmV0"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/projects/portfolio-site", rec.Header().Get("Location"))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	var calls atomic.Int32
	h := newAdminTestGateway(t, &calls)

	rec := postForm(h, "/projects/1/delete", url.Values{
		"return_path": {"/projects"},
	}, adminCookie("Basic YWRtaW46c2VjcmV0"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/projects", rec.Header().Get("Location"))
	assert.Zero(t, calls.Load(), "unconfirmed delete must not reach the backend")

	rec = postForm(h, "/projects/1/delete", url.Values{
		"return_path": {"/projects"},
		"confirm":     {"yes"},
	}, adminCookie("Basic YWRtaW46c2VjcmV0"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/projects", rec.Header().Get("Location"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "portfolio-site", slugify("Portfolio Site"))
	assert.Equal(t, "sensor-node-v2", slugify("  Sensor   Node v2!  "))
	assert.Equal(t, "abc", slugify("-abc-"))
	assert.Equal(t, "", slugify("!!!"))
}
