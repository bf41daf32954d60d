package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"portfolio-site/internal/auth"
	"portfolio-site/internal/model"
)

type requestCodeRequest struct {
	PhoneNumber string                `json:"phoneNumber"`
	Channel     model.DeliveryChannel `json:"channel"`
}

type requestCodeResponse struct {
	Sent              bool       `json:"sent"`
	MaskedPhoneNumber string     `json:"maskedPhoneNumber"`
	Channel           string     `json:"channel"`
	CodeExpiresAt     *time.Time `json:"codeExpiresAt,omitempty"`
	MaxAttempts       int        `json:"maxAttempts"`
}

type verifyCodeRequest struct {
	PhoneNumber string                `json:"phoneNumber"`
	Channel     model.DeliveryChannel `json:"channel"`
	Code        string                `json:"code"`
}

type verifyCodeResponse struct {
	Authenticated    bool       `json:"authenticated"`
	SessionExpiresAt *time.Time `json:"sessionExpiresAt,omitempty"`
}

type sessionStatusResponse struct {
	Authenticated    bool       `json:"authenticated"`
	SessionExpiresAt *time.Time `json:"sessionExpiresAt,omitempty"`
}

func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON")
		return
	}
	if req.Channel == "" {
		req.Channel = model.ChannelKakao
	}

	result, err := s.auth.RequestCode(r.Context(), req.PhoneNumber, req.Channel, clientIP(r), r.UserAgent())
	if err != nil {
		writeAuthError(w, err)
		return
	}

	exp := result.CodeExpiresAt
	writeJSON(w, http.StatusOK, requestCodeResponse{
		Sent:              true,
		MaskedPhoneNumber: result.MaskedPhoneNumber,
		Channel:           string(result.Channel),
		CodeExpiresAt:     &exp,
		MaxAttempts:       result.MaxAttempts,
	})
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON")
		return
	}
	if req.Channel == "" {
		req.Channel = model.ChannelKakao
	}

	result, err := s.auth.VerifyCode(r.Context(), req.PhoneNumber, req.Channel, req.Code, clientIP(r), r.UserAgent())
	if err != nil {
		writeAuthError(w, err)
		return
	}

	maxAge := int(time.Until(result.SessionExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	exp := result.SessionExpiresAt
	writeJSON(w, http.StatusOK, verifyCodeResponse{Authenticated: true, SessionExpiresAt: &exp})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	status := s.auth.SessionStatus(r.Context(), cookieValue(r, s.cfg.SessionCookie))
	writeJSON(w, http.StatusOK, sessionStatusResponse{
		Authenticated:    status.Authenticated,
		SessionExpiresAt: status.SessionExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.RevokeSession(r.Context(), cookieValue(r, s.cfg.SessionCookie))
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
