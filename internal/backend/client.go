// Package backend is the typed client of the portfolio API consumed by the
// gateway: session validation, the OTP flow, and the elevated-credential
// admin surface.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-site/internal/model"
)

// ErrorKind classifies a failed backend call. Callers switch on the kind,
// never on raw status codes.
type ErrorKind string

const (
	// KindTransport covers network failures and unreachable backends.
	KindTransport ErrorKind = "transport"
	// KindRejectedCredential covers 401/403: the presented session or
	// elevated credential is no longer accepted.
	KindRejectedCredential ErrorKind = "rejected-credential"
	// KindValidation covers other 4xx: the request itself was refused.
	KindValidation ErrorKind = "validation"
	// KindServer covers 5xx.
	KindServer ErrorKind = "server"
)

type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend: %s (status %d)", e.Kind, e.Status)
}

// AsError extracts a backend *Error from err, if present.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

type Client struct {
	baseURL       string
	sessionCookie string
	http          *http.Client
}

// NewClient fails when baseURL is blank: a missing API origin is a fatal
// configuration error, not something to limp along without.
func NewClient(baseURL, sessionCookie string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend: API base URL is not configured")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid API base URL: %w", err)
	}
	return &Client{
		baseURL:       baseURL,
		sessionCookie: sessionCookie,
		http:          &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// SessionValid reports whether the backend still accepts the session token.
// Every failure mode degrades to false: under ambiguity access is denied,
// never granted. No retries.
func (c *Client) SessionValid(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/public/auth/session", nil)
	if err != nil {
		return false
	}
	req.AddCookie(&http.Cookie{Name: c.sessionCookie, Value: token})

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var payload struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false
	}
	return payload.Authenticated
}

type Challenge struct {
	MaskedPhoneNumber string     `json:"maskedPhoneNumber"`
	Channel           string     `json:"channel"`
	CodeExpiresAt     *time.Time `json:"codeExpiresAt"`
	MaxAttempts       int        `json:"maxAttempts"`
}

func (c *Client) RequestCode(ctx context.Context, phone string, channel model.DeliveryChannel) (Challenge, error) {
	var payload struct {
		Sent bool `json:"sent"`
		Challenge
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/public/auth/request-code", "", map[string]any{
		"phoneNumber": phone,
		"channel":     channel,
	}, &payload, nil)
	if err != nil {
		return Challenge{}, err
	}
	if !payload.Sent {
		return Challenge{}, &Error{Kind: KindServer, Message: "code was not sent"}
	}
	return payload.Challenge, nil
}

type VerifyOutcome struct {
	Authenticated bool
	// SessionCookie is the cookie the backend set on success. The client
	// only reports it; forwarding it to the browser is the caller's job.
	SessionCookie *http.Cookie
}

func (c *Client) VerifyCode(ctx context.Context, phone string, channel model.DeliveryChannel, code string) (VerifyOutcome, error) {
	var payload struct {
		Authenticated bool `json:"authenticated"`
	}
	var out VerifyOutcome
	err := c.doJSON(ctx, http.MethodPost, "/api/public/auth/verify-code", "", map[string]any{
		"phoneNumber": phone,
		"channel":     channel,
		"code":        code,
	}, &payload, func(resp *http.Response) {
		for _, cookie := range resp.Cookies() {
			if cookie.Name == c.sessionCookie {
				out.SessionCookie = cookie
			}
		}
	})
	if err != nil {
		return VerifyOutcome{}, err
	}
	out.Authenticated = payload.Authenticated
	return out, nil
}

// Logout revokes the session server-side. Best effort: a failed revocation
// still leaves the caller free to drop the cookie locally.
func (c *Client) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/public/auth/logout", nil)
	if err != nil {
		return
	}
	req.AddCookie(&http.Cookie{Name: c.sessionCookie, Value: token})
	resp, err := c.http.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func (c *Client) FetchProjects(ctx context.Context, sessionToken string, category model.ProjectCategory) ([]model.Project, error) {
	path := "/api/public/projects"
	if category != "" {
		path += "?category=" + url.QueryEscape(string(category))
	}
	var out []model.Project
	if err := c.getWithSession(ctx, path, sessionToken, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchProjectBySlug(ctx context.Context, sessionToken, slug string) (model.Project, error) {
	var out model.Project
	err := c.getWithSession(ctx, "/api/public/projects/"+url.PathEscape(slug), sessionToken, &out)
	return out, err
}

func (c *Client) getWithSession(ctx context.Context, path, sessionToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionCookie, Value: sessionToken})
	}
	return c.send(req, out, nil)
}

// doJSON issues one call with an optional authorization header and decodes
// the response into out. respHook, when set, sees the raw response before
// the body is decoded.
func (c *Client) doJSON(ctx context.Context, method, path, authorization string, body, out any, respHook func(*http.Response)) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return c.send(req, out, respHook)
}

func (c *Client) send(req *http.Request, out any, respHook func(*http.Response)) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "request failed"}
	}
	defer resp.Body.Close()

	if respHook != nil {
		respHook(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response"}
	}
	return nil
}

// classify maps a non-2xx response to a tagged error, surfacing the
// backend's message verbatim when the body carries one.
func classify(resp *http.Response) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	e := &Error{Status: resp.StatusCode, Message: payload.Message}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.Kind = KindRejectedCredential
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	return e
}
