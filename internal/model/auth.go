package model

import "time"

// AccessCode is one outstanding OTP challenge. Only the bcrypt hash of the
// plaintext code is ever stored.
type AccessCode struct {
	ID           string          `json:"id"`
	CodeHash     string          `json:"-"`
	PhoneNumber  string          `json:"phoneNumber"`
	Channel      DeliveryChannel `json:"channel"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	MaxAttempts  int             `json:"maxAttempts"`
	AttemptCount int             `json:"attemptCount"`
	Used         bool            `json:"used"`
	CreatedAt    time.Time       `json:"createdAt"`
	UsedAt       *time.Time      `json:"usedAt,omitempty"`
}

// Available reports whether the code can still be verified: not consumed,
// not expired, attempts remaining.
func (a AccessCode) Available(now time.Time) bool {
	return !a.Used && a.ExpiresAt.After(now) && a.AttemptCount < a.MaxAttempts
}

// RegisterFailure counts a failed verification. Hitting the attempt limit
// consumes the code.
func (a *AccessCode) RegisterFailure(now time.Time) {
	a.AttemptCount++
	if a.AttemptCount >= a.MaxAttempts {
		a.Used = true
		t := now
		a.UsedAt = &t
	}
}

func (a *AccessCode) MarkUsed(now time.Time) {
	a.Used = true
	t := now
	a.UsedAt = &t
}

// AuthSession holds only the sha256 hex of the opaque session token; the
// plaintext token lives in the client cookie and nowhere else.
type AuthSession struct {
	ID         string     `json:"id"`
	TokenHash  string     `json:"-"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	AccessCode string     `json:"accessCodeId,omitempty"`
}

func (s AuthSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// AuthAttempt is one audit row per request-code or verify-code outcome.
type AuthAttempt struct {
	ID          string          `json:"id"`
	AccessCode  string          `json:"accessCodeId,omitempty"`
	PhoneNumber string          `json:"phoneNumber"`
	Channel     DeliveryChannel `json:"channel"`
	Success     bool            `json:"success"`
	Reason      string          `json:"reason"`
	IPAddress   string          `json:"ipAddress,omitempty"`
	UserAgent   string          `json:"userAgent,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
