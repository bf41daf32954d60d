package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-site/internal/backend"
)

const (
	flowCookie = "PORTFOLIO_AUTH_FLOW"
	flowTTL    = 15 * time.Minute
)

// flowRegistry keeps one OTP flow per browser, keyed by a short-lived flow
// cookie, so the request-code and verify-code posts land on the same state
// machine. Entries expire on their own; an abandoned flow just ages out.
type flowRegistry struct {
	mu      sync.Mutex
	entries map[string]*flowEntry
}

type flowEntry struct {
	flow    *backend.Flow
	expires time.Time
}

func newFlowRegistry() *flowRegistry {
	return &flowRegistry{entries: make(map[string]*flowEntry)}
}

// obtain returns the browser's current flow, creating one (and setting the
// flow cookie) when none exists.
func (fr *flowRegistry) obtain(w http.ResponseWriter, r *http.Request, client *backend.Client) *backend.Flow {
	if f := fr.lookup(r); f != nil {
		return f
	}

	id := uuid.NewString()
	flow := backend.NewFlow(client)

	fr.mu.Lock()
	fr.sweepLocked()
	fr.entries[id] = &flowEntry{flow: flow, expires: time.Now().Add(flowTTL)}
	fr.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     flowCookie,
		Value:    id,
		Path:     "/auth",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return flow
}

// lookup returns the browser's flow or nil.
func (fr *flowRegistry) lookup(r *http.Request) *backend.Flow {
	c, err := r.Cookie(flowCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()
	entry, ok := fr.entries[c.Value]
	if !ok || time.Now().After(entry.expires) {
		delete(fr.entries, c.Value)
		return nil
	}
	return entry.flow
}

func (fr *flowRegistry) drop(r *http.Request) {
	c, err := r.Cookie(flowCookie)
	if err != nil || c.Value == "" {
		return
	}
	fr.mu.Lock()
	delete(fr.entries, c.Value)
	fr.mu.Unlock()
}

func (fr *flowRegistry) sweepLocked() {
	now := time.Now()
	for id, entry := range fr.entries {
		if now.After(entry.expires) {
			delete(fr.entries, id)
		}
	}
}
