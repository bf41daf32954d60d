package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/auth"
	"portfolio-site/internal/config"
	"portfolio-site/internal/model"
	"portfolio-site/internal/store/memory"
)

type testSender struct {
	code string
}

func (s *testSender) Send(_ context.Context, _, code string, _ model.DeliveryChannel) error {
	s.code = code
	return nil
}

func newTestServer(t *testing.T, authEnabled bool) (*Server, *memory.Store, *testSender) {
	t.Helper()
	st := memory.NewStore()
	sender := &testSender{}
	cfg := config.Config{
		AuthEnabled:   authEnabled,
		SessionCookie: "PORTFOLIO_SESSION",
		AdminCookie:   "PORTFOLIO_ADMIN_AUTH",
		AdminUsername: "admin",
		AdminPassword: "secret",

		SessionHours:       1,
		CodeTTLMinutes:     5,
		CodeMaxAttempts:    5,
		MaxRequestsPerHour: 10,
	}
	svc := auth.NewService(st, sender, auth.Options{
		SessionHours:       cfg.SessionHours,
		CodeTTLMinutes:     cfg.CodeTTLMinutes,
		CodeMaxAttempts:    cfg.CodeMaxAttempts,
		MaxRequestsPerHour: cfg.MaxRequestsPerHour,
	})
	return NewServer(cfg, st, svc), st, sender
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", name)
	return nil
}

func TestAuthCodeRoundTrip(t *testing.T) {
	srv, _, sender := newTestServer(t, true)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/public/auth/request-code", map[string]string{
		"phoneNumber": "010-1234-5678",
		"channel":     "KAKAO",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reqResp struct {
		Sent              bool   `json:"sent"`
		MaskedPhoneNumber string `json:"maskedPhoneNumber"`
		MaxAttempts       int    `json:"maxAttempts"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reqResp))
	assert.True(t, reqResp.Sent)
	assert.Equal(t, "***5678", reqResp.MaskedPhoneNumber)
	assert.Equal(t, 5, reqResp.MaxAttempts)
	require.NotEmpty(t, sender.code)

	rec = doJSON(t, h, http.MethodPost, "/api/public/auth/verify-code", map[string]string{
		"phoneNumber": "01012345678",
		"channel":     "KAKAO",
		"code":        sender.code,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookie := sessionCookieFrom(t, rec, "PORTFOLIO_SESSION")
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	// Session status reflects the cookie.
	rec = doJSON(t, h, http.MethodGet, "/api/public/auth/session", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.Authenticated)
}

func TestVerifyCodeWrongCode(t *testing.T) {
	srv, _, sender := newTestServer(t, true)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/public/auth/request-code", map[string]string{
		"phoneNumber": "01012345678",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	wrong := "000000"
	if sender.code == wrong {
		wrong = "000001"
	}
	rec = doJSON(t, h, http.MethodPost, "/api/public/auth/verify-code", map[string]string{
		"phoneNumber": "01012345678",
		"code":        wrong,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "UNAUTHORIZED", errResp.Code)
	assert.NotEmpty(t, errResp.Message)
}

func TestPublicProjectsRequireSession(t *testing.T) {
	srv, st, sender := newTestServer(t, true)
	h := srv.Handler()

	_, err := st.CreateProject(context.Background(), model.Project{
		Category: model.CategorySoftware, Title: "a", Slug: "a",
	})
	require.NoError(t, err)

	// No cookie: refused.
	rec := doJSON(t, h, http.MethodGet, "/api/public/projects", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage cookie: refused.
	rec = doJSON(t, h, http.MethodGet, "/api/public/projects", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "PORTFOLIO_SESSION", Value: "bogus"})
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A real session passes.
	rec = doJSON(t, h, http.MethodPost, "/api/public/auth/request-code", map[string]string{"phoneNumber": "01012345678"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/api/public/auth/verify-code", map[string]string{
		"phoneNumber": "01012345678", "code": sender.code,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookieFrom(t, rec, "PORTFOLIO_SESSION")

	rec = doJSON(t, h, http.MethodGet, "/api/public/projects", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []model.Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&projects))
	assert.Len(t, projects, 1)
}

func TestPublicProjectsOpenWhenAuthDisabled(t *testing.T) {
	srv, _, _ := newTestServer(t, false)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/public/projects", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthBypassesSessionCheck(t *testing.T) {
	srv, _, _ := newTestServer(t, true)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/public/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	srv, _, sender := newTestServer(t, true)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/public/auth/request-code", map[string]string{"phoneNumber": "01012345678"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/api/public/auth/verify-code", map[string]string{
		"phoneNumber": "01012345678", "code": sender.code,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookieFrom(t, rec, "PORTFOLIO_SESSION")

	rec = doJSON(t, h, http.MethodPost, "/api/public/auth/logout", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/public/auth/session", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	var status struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.Authenticated)
}
