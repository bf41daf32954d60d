package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store"
)

func TestLatestActiveCode(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	older, err := s.CreateAccessCode(ctx, model.AccessCode{
		CodeHash:    "hash-1",
		PhoneNumber: "+821012345678",
		Channel:     model.ChannelKakao,
		ExpiresAt:   now.Add(5 * time.Minute),
		MaxAttempts: 5,
		CreatedAt:   now.Add(-2 * time.Minute),
	})
	require.NoError(t, err)

	newer, err := s.CreateAccessCode(ctx, model.AccessCode{
		CodeHash:    "hash-2",
		PhoneNumber: "+821012345678",
		Channel:     model.ChannelKakao,
		ExpiresAt:   now.Add(5 * time.Minute),
		MaxAttempts: 5,
		CreatedAt:   now.Add(-1 * time.Minute),
	})
	require.NoError(t, err)

	got, err := s.LatestActiveCode(ctx, "+821012345678", model.ChannelKakao, now)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	// Consuming the newest surfaces the older one.
	got.MarkUsed(now)
	require.NoError(t, s.UpdateAccessCode(ctx, got))

	got, err = s.LatestActiveCode(ctx, "+821012345678", model.ChannelKakao, now)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	// Channel mismatch finds nothing.
	_, err = s.LatestActiveCode(ctx, "+821012345678", model.ChannelPass, now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPurgeCodesBefore(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.CreateAccessCode(ctx, model.AccessCode{
		CodeHash: "old", PhoneNumber: "+821011112222",
		Channel: model.ChannelKakao, ExpiresAt: now.Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	_, err = s.CreateAccessCode(ctx, model.AccessCode{
		CodeHash: "fresh", PhoneNumber: "+821011112222",
		Channel: model.ChannelKakao, ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	n, err := s.PurgeCodesBefore(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	sess, err := s.CreateSession(ctx, model.AuthSession{
		TokenHash: "abc123",
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	active, err := s.ActiveSessionByTokenHash(ctx, "abc123", now)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, active.ID)

	require.NoError(t, s.RevokeSessionByTokenHash(ctx, "abc123", now))
	_, err = s.ActiveSessionByTokenHash(ctx, "abc123", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Revoking twice reports not found.
	assert.ErrorIs(t, s.RevokeSessionByTokenHash(ctx, "abc123", now), store.ErrNotFound)
}

func TestExpiredSessionNotActive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.CreateSession(ctx, model.AuthSession{
		TokenHash: "expired",
		ExpiresAt: now.Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = s.ActiveSessionByTokenHash(ctx, "expired", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.PurgeSessionsBefore(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
