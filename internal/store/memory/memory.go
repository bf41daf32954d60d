package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store"
)

type Store struct {
	mu sync.Mutex

	projects map[int64]model.Project
	codes    map[string]model.AccessCode
	sessions map[string]model.AuthSession
	attempts map[string]model.AuthAttempt

	nextProjectID int64
}

func NewStore() *Store {
	return &Store{
		projects: make(map[int64]model.Project),
		codes:    make(map[string]model.AccessCode),
		sessions: make(map[string]model.AuthSession),
		attempts: make(map[string]model.AuthAttempt),

		nextProjectID: 1,
	}
}

func (s *Store) CreateProject(_ context.Context, p model.Project) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(p.Slug) == "" {
		return model.Project{}, errWithCode("slug_required")
	}
	for _, existing := range s.projects {
		if strings.EqualFold(existing.Slug, p.Slug) {
			return model.Project{}, store.ErrConflict
		}
	}

	now := time.Now().UTC()
	p.ID = s.nextProjectID
	s.nextProjectID++
	p.CreatedAt = now
	p.UpdatedAt = now
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) GetProject(_ context.Context, id int64) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProjectBySlug(_ context.Context, slug string) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.projects {
		if strings.EqualFold(p.Slug, slug) {
			return p, nil
		}
	}
	return model.Project{}, store.ErrNotFound
}

func (s *Store) ListProjects(_ context.Context, f store.ProjectFilter) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateProject(_ context.Context, p model.Project) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[p.ID]
	if !ok {
		return model.Project{}, store.ErrNotFound
	}
	for _, other := range s.projects {
		if other.ID != p.ID && strings.EqualFold(other.Slug, p.Slug) {
			return model.Project{}, store.ErrConflict
		}
	}

	existing.Category = p.Category
	existing.Title = p.Title
	existing.Slug = p.Slug
	existing.Summary = p.Summary
	existing.ContentMarkdown = p.ContentMarkdown
	existing.GithubURL = p.GithubURL
	existing.UpdatedAt = time.Now().UTC()
	s.projects[p.ID] = existing
	return existing, nil
}

func (s *Store) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func newID() string {
	return uuid.NewString()
}

type codeError string

func (e codeError) Error() string { return string(e) }

func errWithCode(code string) error { return codeError(code) }
