// Package auth implements the phone-verification flow: one-time code
// issuance and delivery, code verification, and the opaque session tokens
// minted on success.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRateLimited    = errors.New("rate_limited")
	ErrInvalidRequest = errors.New("invalid_request")
)

// authError carries a user-facing message while remaining matchable with
// errors.Is against the sentinels above.
type authError struct {
	kind error
	msg  string
}

func (e *authError) Error() string { return e.msg }
func (e *authError) Unwrap() error { return e.kind }

func unauthorized(msg string) error   { return &authError{kind: ErrUnauthorized, msg: msg} }
func rateLimited(msg string) error    { return &authError{kind: ErrRateLimited, msg: msg} }
func invalidRequest(msg string) error { return &authError{kind: ErrInvalidRequest, msg: msg} }

// OtpSender delivers a plaintext code to a phone over the given channel.
type OtpSender interface {
	Send(ctx context.Context, phone, code string, channel model.DeliveryChannel) error
}

// RateLimiter bounds code requests per phone. A nil limiter falls back to
// counting rows in the store.
type RateLimiter interface {
	Allow(ctx context.Context, phone string) (bool, error)
}

// Alerter is notified when a phone trips the request rate limit. Best
// effort only.
type Alerter interface {
	RateLimited(ctx context.Context, phone string)
}

type Service struct {
	store   store.Store
	sender  OtpSender
	limiter RateLimiter
	alerts  Alerter

	sessionTTL  time.Duration
	codeTTL     time.Duration
	maxAttempts int
	maxPerHour  int
}

type Options struct {
	SessionHours       int
	CodeTTLMinutes     int
	CodeMaxAttempts    int
	MaxRequestsPerHour int
	Limiter            RateLimiter
	Alerts             Alerter
}

func NewService(st store.Store, sender OtpSender, opts Options) *Service {
	if opts.SessionHours <= 0 {
		opts.SessionHours = 12
	}
	if opts.CodeTTLMinutes <= 0 {
		opts.CodeTTLMinutes = 5
	}
	if opts.CodeMaxAttempts <= 0 {
		opts.CodeMaxAttempts = 5
	}
	if opts.MaxRequestsPerHour <= 0 {
		opts.MaxRequestsPerHour = 10
	}
	return &Service{
		store:       st,
		sender:      sender,
		limiter:     opts.Limiter,
		alerts:      opts.Alerts,
		sessionTTL:  time.Duration(opts.SessionHours) * time.Hour,
		codeTTL:     time.Duration(opts.CodeTTLMinutes) * time.Minute,
		maxAttempts: opts.CodeMaxAttempts,
		maxPerHour:  opts.MaxRequestsPerHour,
	}
}

type RequestCodeResult struct {
	MaskedPhoneNumber string
	Channel           model.DeliveryChannel
	CodeExpiresAt     time.Time
	MaxAttempts       int
}

func (s *Service) RequestCode(ctx context.Context, phone string, channel model.DeliveryChannel, ip, ua string) (RequestCodeResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return RequestCodeResult{}, err
	}
	if !channel.Valid() {
		return RequestCodeResult{}, invalidRequest("channel is required")
	}
	now := time.Now().UTC()

	allowed, err := s.allowRequest(ctx, normalized, now)
	if err != nil {
		return RequestCodeResult{}, err
	}
	if !allowed {
		s.logAttempt(ctx, "", normalized, channel, false, "RATE_LIMITED", ip, ua)
		if s.alerts != nil {
			s.alerts.RateLimited(ctx, normalized)
		}
		return RequestCodeResult{}, rateLimited("Too many code requests. Try again later.")
	}

	code, created, err := s.createCode(ctx, normalized, channel, s.codeTTL, s.maxAttempts, now)
	if err != nil {
		return RequestCodeResult{}, err
	}

	if err := s.sender.Send(ctx, normalized, code, channel); err != nil {
		return RequestCodeResult{}, fmt.Errorf("send code: %w", err)
	}
	s.logAttempt(ctx, created.ID, normalized, channel, true, "CODE_SENT", ip, ua)

	return RequestCodeResult{
		MaskedPhoneNumber: MaskPhone(normalized),
		Channel:           channel,
		CodeExpiresAt:     created.ExpiresAt,
		MaxAttempts:       created.MaxAttempts,
	}, nil
}

type VerifyResult struct {
	SessionToken     string
	SessionExpiresAt time.Time
}

func (s *Service) VerifyCode(ctx context.Context, phone string, channel model.DeliveryChannel, plainCode, ip, ua string) (VerifyResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return VerifyResult{}, err
	}
	if !channel.Valid() {
		return VerifyResult{}, invalidRequest("channel is required")
	}
	if plainCode == "" {
		return VerifyResult{}, unauthorized("Code must not be blank")
	}
	now := time.Now().UTC()

	code, err := s.store.LatestActiveCode(ctx, normalized, channel, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logAttempt(ctx, "", normalized, channel, false, "NO_ACTIVE_CODE", ip, ua)
			return VerifyResult{}, unauthorized("No active access code")
		}
		return VerifyResult{}, err
	}

	if !code.Available(now) {
		s.logAttempt(ctx, code.ID, normalized, channel, false, "CODE_NOT_AVAILABLE", ip, ua)
		return VerifyResult{}, unauthorized("Code is expired or locked")
	}

	if bcrypt.CompareHashAndPassword([]byte(code.CodeHash), []byte(plainCode)) != nil {
		code.RegisterFailure(now)
		if err := s.store.UpdateAccessCode(ctx, code); err != nil {
			log.Printf("[auth] record code failure: %v", err)
		}
		s.logAttempt(ctx, code.ID, normalized, channel, false, "INVALID_CODE", ip, ua)
		return VerifyResult{}, unauthorized("Invalid code")
	}

	code.MarkUsed(now)
	if err := s.store.UpdateAccessCode(ctx, code); err != nil {
		return VerifyResult{}, err
	}

	token, err := newSessionToken()
	if err != nil {
		return VerifyResult{}, err
	}
	expiresAt := now.Add(s.sessionTTL)
	_, err = s.store.CreateSession(ctx, model.AuthSession{
		AccessCode: code.ID,
		TokenHash:  sha256Hex(token),
		IPAddress:  truncate(ip, 64),
		UserAgent:  truncate(ua, 400),
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return VerifyResult{}, err
	}
	s.logAttempt(ctx, code.ID, normalized, channel, true, "SUCCESS", ip, ua)

	return VerifyResult{SessionToken: token, SessionExpiresAt: expiresAt}, nil
}

type SessionStatus struct {
	Authenticated    bool
	SessionExpiresAt *time.Time
}

func (s *Service) SessionStatus(ctx context.Context, token string) SessionStatus {
	if token == "" {
		return SessionStatus{}
	}
	sess, err := s.store.ActiveSessionByTokenHash(ctx, sha256Hex(token), time.Now().UTC())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[auth] session lookup: %v", err)
		}
		return SessionStatus{}
	}
	exp := sess.ExpiresAt
	return SessionStatus{Authenticated: true, SessionExpiresAt: &exp}
}

func (s *Service) RevokeSession(ctx context.Context, token string) {
	if token == "" {
		return
	}
	err := s.store.RevokeSessionByTokenHash(ctx, sha256Hex(token), time.Now().UTC())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[auth] revoke session: %v", err)
	}
}

type IssuedCode struct {
	Code      model.AccessCode
	PlainCode string
}

// IssueCode mints a code on behalf of the admin console, with optional TTL
// and attempt overrides, optionally delivering it over the channel.
func (s *Service) IssueCode(ctx context.Context, phone string, channel model.DeliveryChannel, ttlMinutes, maxAttempts int, send bool) (IssuedCode, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return IssuedCode{}, err
	}
	if !channel.Valid() {
		return IssuedCode{}, invalidRequest("channel is required")
	}

	ttl := s.codeTTL
	if ttlMinutes > 0 {
		ttl = time.Duration(clamp(ttlMinutes, 1, 60*24*14)) * time.Minute
	}
	attempts := s.maxAttempts
	if maxAttempts > 0 {
		attempts = clamp(maxAttempts, 1, 20)
	}

	code, created, err := s.createCode(ctx, normalized, channel, ttl, attempts, time.Now().UTC())
	if err != nil {
		return IssuedCode{}, err
	}
	if send {
		if err := s.sender.Send(ctx, normalized, code, channel); err != nil {
			return IssuedCode{}, fmt.Errorf("send code: %w", err)
		}
	}
	return IssuedCode{Code: created, PlainCode: code}, nil
}

func (s *Service) ListRecentCodes(ctx context.Context, limit int) ([]model.AccessCode, error) {
	return s.store.ListRecentCodes(ctx, limit)
}

func (s *Service) ListRecentAttempts(ctx context.Context, limit int) ([]model.AuthAttempt, error) {
	return s.store.ListRecentAttempts(ctx, limit)
}

func (s *Service) allowRequest(ctx context.Context, phone string, now time.Time) (bool, error) {
	if s.limiter != nil {
		return s.limiter.Allow(ctx, phone)
	}
	n, err := s.store.CountCodesSince(ctx, phone, now.Add(-time.Hour))
	if err != nil {
		return false, err
	}
	return n < s.maxPerHour, nil
}

func (s *Service) createCode(ctx context.Context, phone string, channel model.DeliveryChannel, ttl time.Duration, maxAttempts int, now time.Time) (string, model.AccessCode, error) {
	plain, err := newNumericCode(6)
	if err != nil {
		return "", model.AccessCode{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", model.AccessCode{}, err
	}
	created, err := s.store.CreateAccessCode(ctx, model.AccessCode{
		CodeHash:    string(hash),
		PhoneNumber: phone,
		Channel:     channel,
		ExpiresAt:   now.Add(ttl),
		MaxAttempts: maxAttempts,
	})
	if err != nil {
		return "", model.AccessCode{}, err
	}
	return plain, created, nil
}

func (s *Service) logAttempt(ctx context.Context, codeID, phone string, channel model.DeliveryChannel, success bool, reason, ip, ua string) {
	_, err := s.store.CreateAttempt(ctx, model.AuthAttempt{
		AccessCode:  codeID,
		PhoneNumber: phone,
		Channel:     channel,
		Success:     success,
		Reason:      reason,
		IPAddress:   truncate(ip, 64),
		UserAgent:   truncate(ua, 400),
	})
	if err != nil {
		log.Printf("[auth] attempt log: %v", err)
	}
}

func newNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func sha256Hex(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func truncate(v string, max int) string {
	if len(v) <= max {
		return v
	}
	return v[:max]
}
