package backend

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"portfolio-site/internal/model"
)

type FlowState string

const (
	StateIdle          FlowState = "idle"
	StateCodeRequested FlowState = "code_requested"
	StateVerified      FlowState = "verified"
)

var (
	// ErrFlowBusy means a request or verify call is already in flight on
	// this flow; the duplicate submission is dropped without network I/O.
	ErrFlowBusy = errors.New("a call is already in flight")
	// ErrNoChallenge means verify was attempted before any code was
	// requested on this flow.
	ErrNoChallenge = errors.New("no code has been requested")
)

// Flow drives one phone-verification exchange: request a code, then verify
// it. One flow belongs to one browser interaction and serializes its own
// calls; a second submission while one is pending is ignored rather than
// producing duplicate sends or verify races.
type Flow struct {
	client *Client

	mu      sync.Mutex
	pending bool
	state   FlowState

	phone     string
	channel   model.DeliveryChannel
	challenge Challenge

	sessionCookie *http.Cookie
}

func NewFlow(client *Client) *Flow {
	return &Flow{client: client, state: StateIdle}
}

func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Challenge returns the metadata of the outstanding challenge for display.
// Valid only in StateCodeRequested and later.
func (f *Flow) Challenge() Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.challenge
}

// SessionCookie returns the cookie recorded by a successful verify, for the
// caller to forward. The flow never stores it anywhere else.
func (f *Flow) SessionCookie() *http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionCookie
}

// RequestCode asks the backend to issue and deliver a code. On success the
// flow moves to StateCodeRequested and records the challenge metadata; on
// failure the state is unchanged and the error is surfaced for display.
func (f *Flow) RequestCode(ctx context.Context, phone string, channel model.DeliveryChannel) (Challenge, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return Challenge{}, ErrFlowBusy
	}
	f.pending = true
	f.mu.Unlock()

	challenge, err := f.client.RequestCode(ctx, phone, channel)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil {
		return Challenge{}, err
	}

	f.state = StateCodeRequested
	f.phone = phone
	f.channel = channel
	f.challenge = challenge
	return challenge, nil
}

// VerifyCode submits a code against the outstanding challenge. A failed
// verify keeps the challenge so the user can retry with a fresh code, up to
// the server-enforced attempt limit.
func (f *Flow) VerifyCode(ctx context.Context, code string) (VerifyOutcome, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return VerifyOutcome{}, ErrFlowBusy
	}
	if f.state == StateIdle {
		f.mu.Unlock()
		return VerifyOutcome{}, ErrNoChallenge
	}
	phone, channel := f.phone, f.channel
	f.pending = true
	f.mu.Unlock()

	outcome, err := f.client.VerifyCode(ctx, phone, channel, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil {
		return VerifyOutcome{}, err
	}
	if !outcome.Authenticated {
		return VerifyOutcome{}, &Error{Kind: KindRejectedCredential, Message: "verification failed"}
	}

	f.state = StateVerified
	f.sessionCookie = outcome.SessionCookie
	return outcome, nil
}
