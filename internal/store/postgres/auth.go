package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store"
)

func (s *Store) CreateAccessCode(ctx context.Context, c model.AccessCode) (model.AccessCode, error) {
	var out model.AccessCode
	err := s.pool.QueryRow(ctx, `
		insert into public.access_codes (code_hash, phone_number, channel, expires_at, max_attempts)
		values ($1, $2, $3, $4, $5)
		returning id::text, code_hash, phone_number, channel, expires_at, max_attempts, attempt_count, used, created_at, used_at
	`, c.CodeHash, c.PhoneNumber, string(c.Channel), c.ExpiresAt, c.MaxAttempts).Scan(
		&out.ID, &out.CodeHash, &out.PhoneNumber, &out.Channel, &out.ExpiresAt, &out.MaxAttempts, &out.AttemptCount, &out.Used, &out.CreatedAt, &out.UsedAt,
	)
	if err != nil {
		return model.AccessCode{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) LatestActiveCode(ctx context.Context, phone string, channel model.DeliveryChannel, now time.Time) (model.AccessCode, error) {
	var out model.AccessCode
	err := s.pool.QueryRow(ctx, `
		select id::text, code_hash, phone_number, channel, expires_at, max_attempts, attempt_count, used, created_at, used_at
		from public.access_codes
		where phone_number = $1 and channel = $2 and used = false and expires_at > $3
		order by created_at desc
		limit 1
	`, phone, string(channel), now).Scan(
		&out.ID, &out.CodeHash, &out.PhoneNumber, &out.Channel, &out.ExpiresAt, &out.MaxAttempts, &out.AttemptCount, &out.Used, &out.CreatedAt, &out.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AccessCode{}, store.ErrNotFound
		}
		return model.AccessCode{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) UpdateAccessCode(ctx context.Context, c model.AccessCode) error {
	tag, err := s.pool.Exec(ctx, `
		update public.access_codes
		set attempt_count = $2, used = $3, used_at = $4
		where id = $1::uuid
	`, c.ID, c.AttemptCount, c.Used, c.UsedAt)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountCodesSince(ctx context.Context, phone string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		select count(*) from public.access_codes
		where phone_number = $1 and created_at > $2
	`, phone, since).Scan(&n)
	if err != nil {
		return 0, mapPgErr(err)
	}
	return n, nil
}

func (s *Store) ListRecentCodes(ctx context.Context, limit int) ([]model.AccessCode, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		select id::text, code_hash, phone_number, channel, expires_at, max_attempts, attempt_count, used, created_at, used_at
		from public.access_codes
		order by created_at desc
		limit $1
	`, limit)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	var out []model.AccessCode
	for rows.Next() {
		var c model.AccessCode
		if err := rows.Scan(&c.ID, &c.CodeHash, &c.PhoneNumber, &c.Channel, &c.ExpiresAt, &c.MaxAttempts, &c.AttemptCount, &c.Used, &c.CreatedAt, &c.UsedAt); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) PurgeCodesBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `delete from public.access_codes where expires_at < $1`, before)
	if err != nil {
		return 0, mapPgErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) CreateSession(ctx context.Context, sess model.AuthSession) (model.AuthSession, error) {
	var out model.AuthSession
	err := s.pool.QueryRow(ctx, `
		insert into public.auth_sessions (access_code_id, token_hash, ip_address, user_agent, expires_at)
		values (nullif($1, '')::uuid, $2, nullif($3, ''), nullif($4, ''), $5)
		returning id::text, coalesce(access_code_id::text, ''), token_hash, coalesce(ip_address, ''), coalesce(user_agent, ''), expires_at, revoked_at, created_at
	`, sess.AccessCode, sess.TokenHash, sess.IPAddress, sess.UserAgent, sess.ExpiresAt).Scan(
		&out.ID, &out.AccessCode, &out.TokenHash, &out.IPAddress, &out.UserAgent, &out.ExpiresAt, &out.RevokedAt, &out.CreatedAt,
	)
	if err != nil {
		return model.AuthSession{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) ActiveSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (model.AuthSession, error) {
	var out model.AuthSession
	err := s.pool.QueryRow(ctx, `
		select id::text, coalesce(access_code_id::text, ''), token_hash, coalesce(ip_address, ''), coalesce(user_agent, ''), expires_at, revoked_at, created_at
		from public.auth_sessions
		where token_hash = $1 and revoked_at is null and expires_at > $2
		order by created_at desc
		limit 1
	`, tokenHash, now).Scan(
		&out.ID, &out.AccessCode, &out.TokenHash, &out.IPAddress, &out.UserAgent, &out.ExpiresAt, &out.RevokedAt, &out.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AuthSession{}, store.ErrNotFound
		}
		return model.AuthSession{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) RevokeSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		update public.auth_sessions
		set revoked_at = $2
		where token_hash = $1 and revoked_at is null
	`, tokenHash, now)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) PurgeSessionsBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `delete from public.auth_sessions where expires_at < $1`, before)
	if err != nil {
		return 0, mapPgErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) CreateAttempt(ctx context.Context, a model.AuthAttempt) (model.AuthAttempt, error) {
	var out model.AuthAttempt
	err := s.pool.QueryRow(ctx, `
		insert into public.auth_attempts (access_code_id, phone_number, channel, success, reason, ip_address, user_agent)
		values (nullif($1, '')::uuid, $2, $3, $4, $5, nullif($6, ''), nullif($7, ''))
		returning id::text, coalesce(access_code_id::text, ''), phone_number, channel, success, reason, coalesce(ip_address, ''), coalesce(user_agent, ''), created_at
	`, a.AccessCode, a.PhoneNumber, string(a.Channel), a.Success, a.Reason, a.IPAddress, a.UserAgent).Scan(
		&out.ID, &out.AccessCode, &out.PhoneNumber, &out.Channel, &out.Success, &out.Reason, &out.IPAddress, &out.UserAgent, &out.CreatedAt,
	)
	if err != nil {
		return model.AuthAttempt{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) ListRecentAttempts(ctx context.Context, limit int) ([]model.AuthAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		select id::text, coalesce(access_code_id::text, ''), phone_number, channel, success, reason, coalesce(ip_address, ''), coalesce(user_agent, ''), created_at
		from public.auth_attempts
		order by created_at desc
		limit $1
	`, limit)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	var out []model.AuthAttempt
	for rows.Next() {
		var a model.AuthAttempt
		if err := rows.Scan(&a.ID, &a.AccessCode, &a.PhoneNumber, &a.Channel, &a.Success, &a.Reason, &a.IPAddress, &a.UserAgent, &a.CreatedAt); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
