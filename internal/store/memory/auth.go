package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store"
)

func (s *Store) CreateAccessCode(_ context.Context, c model.AccessCode) (model.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(c.CodeHash) == "" {
		return model.AccessCode{}, errWithCode("code_hash_required")
	}
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return model.AccessCode{}, errWithCode("phone_number_required")
	}

	c.ID = newID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.codes[c.ID] = c
	return c, nil
}

func (s *Store) LatestActiveCode(_ context.Context, phone string, channel model.DeliveryChannel, now time.Time) (model.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *model.AccessCode
	for id := range s.codes {
		c := s.codes[id]
		if c.PhoneNumber != phone || c.Channel != channel {
			continue
		}
		if c.Used || !c.ExpiresAt.After(now) {
			continue
		}
		if best == nil || c.CreatedAt.After(best.CreatedAt) {
			best = &c
		}
	}
	if best == nil {
		return model.AccessCode{}, store.ErrNotFound
	}
	return *best, nil
}

func (s *Store) UpdateAccessCode(_ context.Context, c model.AccessCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[c.ID]; !ok {
		return store.ErrNotFound
	}
	s.codes[c.ID] = c
	return nil
}

func (s *Store) CountCodesSince(_ context.Context, phone string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.codes {
		if c.PhoneNumber == phone && c.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListRecentCodes(_ context.Context, limit int) ([]model.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AccessCode, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PurgeCodesBefore(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, c := range s.codes {
		if c.ExpiresAt.Before(before) {
			delete(s.codes, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateSession(_ context.Context, sess model.AuthSession) (model.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(sess.TokenHash) == "" {
		return model.AuthSession{}, errWithCode("token_hash_required")
	}

	sess.ID = newID()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) ActiveSessionByTokenHash(_ context.Context, tokenHash string, now time.Time) (model.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.TokenHash == tokenHash && sess.Active(now) {
			return sess, nil
		}
	}
	return model.AuthSession{}, store.ErrNotFound
}

func (s *Store) RevokeSessionByTokenHash(_ context.Context, tokenHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.TokenHash == tokenHash && sess.RevokedAt == nil {
			t := now
			sess.RevokedAt = &t
			s.sessions[id] = sess
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) PurgeSessionsBefore(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateAttempt(_ context.Context, a model.AuthAttempt) (model.AuthAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = newID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.attempts[a.ID] = a
	return a, nil
}

func (s *Store) ListRecentAttempts(_ context.Context, limit int) ([]model.AuthAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AuthAttempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
