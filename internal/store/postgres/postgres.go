package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// Ping to fail fast.
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		create table if not exists public.projects (
			id bigserial primary key,
			category text not null,
			title text not null,
			slug text not null unique,
			summary text not null default '',
			content_markdown text not null default '',
			github_url text,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		);
		create table if not exists public.access_codes (
			id uuid primary key default gen_random_uuid(),
			code_hash text not null,
			phone_number text not null,
			channel text not null,
			expires_at timestamptz not null,
			max_attempts int not null,
			attempt_count int not null default 0,
			used boolean not null default false,
			created_at timestamptz not null default now(),
			used_at timestamptz
		);
		create index if not exists idx_access_codes_phone_channel on public.access_codes (phone_number, channel, created_at desc);
		create table if not exists public.auth_sessions (
			id uuid primary key default gen_random_uuid(),
			access_code_id uuid references public.access_codes (id) on delete set null,
			token_hash text not null,
			ip_address text,
			user_agent text,
			expires_at timestamptz not null,
			revoked_at timestamptz,
			created_at timestamptz not null default now()
		);
		create index if not exists idx_auth_sessions_token_hash on public.auth_sessions (token_hash);
		create table if not exists public.auth_attempts (
			id uuid primary key default gen_random_uuid(),
			access_code_id uuid,
			phone_number text not null,
			channel text not null,
			success boolean not null,
			reason text not null,
			ip_address text,
			user_agent text,
			created_at timestamptz not null default now()
		);
	`)
	return err
}

func (s *Store) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	var out model.Project
	err := s.pool.QueryRow(ctx, `
		insert into public.projects (category, title, slug, summary, content_markdown, github_url)
		values ($1, $2, $3, $4, $5, nullif($6, ''))
		returning id, category, title, slug, summary, content_markdown, coalesce(github_url, ''), created_at, updated_at
	`, string(p.Category), p.Title, p.Slug, p.Summary, p.ContentMarkdown, p.GithubURL).Scan(
		&out.ID, &out.Category, &out.Title, &out.Slug, &out.Summary, &out.ContentMarkdown, &out.GithubURL, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (model.Project, error) {
	return s.scanProject(ctx, `where id = $1`, id)
}

func (s *Store) GetProjectBySlug(ctx context.Context, slug string) (model.Project, error) {
	return s.scanProject(ctx, `where slug = $1`, slug)
}

func (s *Store) scanProject(ctx context.Context, where string, arg any) (model.Project, error) {
	var out model.Project
	err := s.pool.QueryRow(ctx, `
		select id, category, title, slug, summary, content_markdown, coalesce(github_url, ''), created_at, updated_at
		from public.projects `+where,
		arg).Scan(&out.ID, &out.Category, &out.Title, &out.Slug, &out.Summary, &out.ContentMarkdown, &out.GithubURL, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Project{}, store.ErrNotFound
		}
		return model.Project{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) ListProjects(ctx context.Context, f store.ProjectFilter) ([]model.Project, error) {
	q := `
		select id, category, title, slug, summary, content_markdown, coalesce(github_url, ''), created_at, updated_at
		from public.projects
	`
	args := []any{}
	if f.Category != "" {
		q += ` where category = $1`
		args = append(args, string(f.Category))
	}
	q += ` order by created_at desc`
	if f.Limit > 0 {
		q += fmt.Sprintf(` limit %d`, f.Limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Category, &p.Title, &p.Slug, &p.Summary, &p.ContentMarkdown, &p.GithubURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p model.Project) (model.Project, error) {
	var out model.Project
	err := s.pool.QueryRow(ctx, `
		update public.projects
		set category = $2, title = $3, slug = $4, summary = $5, content_markdown = $6, github_url = nullif($7, ''), updated_at = now()
		where id = $1
		returning id, category, title, slug, summary, content_markdown, coalesce(github_url, ''), created_at, updated_at
	`, p.ID, string(p.Category), p.Title, p.Slug, p.Summary, p.ContentMarkdown, p.GithubURL).Scan(
		&out.ID, &out.Category, &out.Title, &out.Slug, &out.Summary, &out.ContentMarkdown, &out.GithubURL, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Project{}, store.ErrNotFound
		}
		return model.Project{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `delete from public.projects where id = $1`, id)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrConflict
		case "23503":
			return store.ErrNotFound
		default:
			return fmt.Errorf("db_error %s: %s", pgErr.Code, pgErr.Message)
		}
	}
	return err
}
