package store

import (
	"context"
	"errors"
	"time"

	"portfolio-site/internal/model"
)

var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

type ProjectFilter struct {
	Category model.ProjectCategory
	Limit    int
}

type Store interface {
	CreateProject(ctx context.Context, p model.Project) (model.Project, error)
	GetProject(ctx context.Context, id int64) (model.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (model.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, p model.Project) (model.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreateAccessCode(ctx context.Context, c model.AccessCode) (model.AccessCode, error)
	// LatestActiveCode returns the newest unused, unexpired code for the
	// phone/channel pair, or ErrNotFound.
	LatestActiveCode(ctx context.Context, phone string, channel model.DeliveryChannel, now time.Time) (model.AccessCode, error)
	UpdateAccessCode(ctx context.Context, c model.AccessCode) error
	CountCodesSince(ctx context.Context, phone string, since time.Time) (int, error)
	ListRecentCodes(ctx context.Context, limit int) ([]model.AccessCode, error)
	PurgeCodesBefore(ctx context.Context, before time.Time) (int, error)

	CreateSession(ctx context.Context, s model.AuthSession) (model.AuthSession, error)
	// ActiveSessionByTokenHash returns the live (unrevoked, unexpired)
	// session for the hash, or ErrNotFound.
	ActiveSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (model.AuthSession, error)
	RevokeSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) error
	PurgeSessionsBefore(ctx context.Context, before time.Time) (int, error)

	CreateAttempt(ctx context.Context, a model.AuthAttempt) (model.AuthAttempt, error)
	ListRecentAttempts(ctx context.Context, limit int) ([]model.AuthAttempt, error)
}
