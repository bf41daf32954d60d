package backend

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"portfolio-site/internal/model"
)

var (
	// ErrNoCredential means no elevated credential is stored; the call was
	// never attempted and the caller should route to admin login.
	ErrNoCredential = errors.New("no elevated credential stored")
	// ErrCredentialRejected means the backend refused the credential; it
	// has already been cleared and the caller should route to admin login
	// without surfacing any further error.
	ErrCredentialRejected = errors.New("elevated credential rejected")
)

// Guard wraps every content-mutating call. It enforces the elevated
// credential as a hard precondition, attaches it to each request, and
// discards it the moment the backend rejects it. The session tier plays no
// part here.
type Guard struct {
	client *Client
	creds  CredentialStore

	mu sync.Mutex
}

func NewGuard(client *Client, creds CredentialStore) *Guard {
	return &Guard{client: client, creds: creds}
}

// Login encodes the pair, probes the admin ping endpoint with it, and
// stores the encoded value only when the backend accepts it.
func (g *Guard) Login(ctx context.Context, username, password string) error {
	header, err := EncodeBasicAuth(username, password)
	if err != nil {
		return err
	}
	if err := g.client.doJSON(ctx, "GET", "/api/admin/projects/ping", header, nil, nil, nil); err != nil {
		return err
	}
	g.creds.Set(header)
	return nil
}

func (g *Guard) Ping(ctx context.Context) error {
	return g.call(ctx, "GET", "/api/admin/projects/ping", nil, nil)
}

func (g *Guard) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	var out model.Project
	err := g.call(ctx, "POST", "/api/admin/projects", projectBody(p), &out)
	return out, err
}

func (g *Guard) UpdateProject(ctx context.Context, id int64, p model.Project) (model.Project, error) {
	var out model.Project
	err := g.call(ctx, "PUT", "/api/admin/projects/"+strconv.FormatInt(id, 10), projectBody(p), &out)
	return out, err
}

func (g *Guard) DeleteProject(ctx context.Context, id int64) error {
	return g.call(ctx, "DELETE", "/api/admin/projects/"+strconv.FormatInt(id, 10), nil, nil)
}

// call serializes in-flight writes, checks the credential precondition
// before any network I/O, and translates a rejected credential into a
// cleared store plus ErrCredentialRejected.
func (g *Guard) call(ctx context.Context, method, path string, body, out any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	header := g.creds.Get()
	if header == "" {
		return ErrNoCredential
	}

	err := g.client.doJSON(ctx, method, path, header, body, out, nil)
	if err == nil {
		return nil
	}

	if be, ok := AsError(err); ok && be.Kind == KindRejectedCredential {
		g.creds.Clear()
		return ErrCredentialRejected
	}
	return err
}

func projectBody(p model.Project) map[string]any {
	return map[string]any{
		"category":        p.Category,
		"title":           p.Title,
		"slug":            p.Slug,
		"summary":         p.Summary,
		"contentMarkdown": p.ContentMarkdown,
		"githubUrl":       p.GithubURL,
	}
}
