package gateway

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"portfolio-site/internal/backend"
	"portfolio-site/internal/model"
)

type authPageData struct {
	Next      string
	Phone     string
	Channel   string
	Challenge *backend.Challenge
	Error     string
	Notice    string
}

type adminLoginData struct {
	Next  string
	Error string
}

type projectsPageData struct {
	Category string
	Projects []model.Project
	Error    string
}

type projectPageData struct {
	Project model.Project
	Error   string
}

type projectFormData struct {
	Mode       string // "create" or "edit"
	Project    model.Project
	ReturnPath string
	Error      string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	projects, err := s.client.FetchProjects(r.Context(), s.sessionToken(r), "")
	data := projectsPageData{Projects: projects}
	if err != nil {
		data.Error = errorMessage(err, "Failed to load projects.")
	}
	s.render(w, "home.html", data)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	category := model.ProjectCategory(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		category = ""
	}

	projects, err := s.client.FetchProjects(r.Context(), s.sessionToken(r), category)
	data := projectsPageData{Category: string(category), Projects: projects}
	if err != nil {
		data.Error = errorMessage(err, "Failed to load projects.")
	}
	s.render(w, "projects.html", data)
}

func (s *Server) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	project, err := s.client.FetchProjectBySlug(r.Context(), s.sessionToken(r), slug)
	if err != nil {
		if be, ok := backend.AsError(err); ok && be.Status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		s.render(w, "projects.html", projectsPageData{Error: errorMessage(err, "Failed to load project.")})
		return
	}
	s.render(w, "project.html", projectPageData{Project: project})
}

func (s *Server) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	data := authPageData{Next: safeNext(r.URL.Query().Get("next"), "/")}
	if flow := s.flows.lookup(r); flow != nil && flow.State() != backend.StateIdle {
		ch := flow.Challenge()
		data.Challenge = &ch
	}
	s.render(w, "auth.html", data)
}

func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	data := authPageData{
		Next:    safeNext(r.PostFormValue("next"), "/"),
		Phone:   strings.TrimSpace(r.PostFormValue("phone_number")),
		Channel: r.PostFormValue("channel"),
	}
	channel := model.DeliveryChannel(data.Channel)
	if channel == "" {
		channel = model.ChannelKakao
	}

	flow := s.flows.obtain(w, r, s.client)
	challenge, err := flow.RequestCode(r.Context(), data.Phone, channel)
	switch {
	case errors.Is(err, backend.ErrFlowBusy):
		// Duplicate submission while a call is pending: drop it.
		data.Notice = "A code request is already in progress."
		if flow.State() != backend.StateIdle {
			ch := flow.Challenge()
			data.Challenge = &ch
		}
	case err != nil:
		data.Error = errorMessage(err, "Failed to request a code.")
	default:
		data.Challenge = &challenge
		data.Notice = "A verification code was sent via " + challenge.Channel + "."
	}
	s.render(w, "auth.html", data)
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	next := safeNext(r.PostFormValue("next"), "/")
	data := authPageData{Next: next}

	flow := s.flows.lookup(r)
	if flow == nil {
		data.Error = "Request a verification code first."
		s.render(w, "auth.html", data)
		return
	}

	outcome, err := flow.VerifyCode(r.Context(), strings.TrimSpace(r.PostFormValue("code")))
	if err != nil {
		if ch := flow.Challenge(); flow.State() == backend.StateCodeRequested {
			data.Challenge = &ch
		}
		switch {
		case errors.Is(err, backend.ErrFlowBusy):
			data.Notice = "Verification is already in progress."
		case errors.Is(err, backend.ErrNoChallenge):
			data.Error = "Request a verification code first."
		default:
			data.Error = errorMessage(err, "Invalid verification code.")
		}
		s.render(w, "auth.html", data)
		return
	}

	// The backend owns the session cookie; the gateway only forwards it.
	if c := outcome.SessionCookie; c != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     "/",
			MaxAge:   c.MaxAge,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	s.flows.drop(r)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.client.Logout(r.Context(), s.sessionToken(r))
	s.clearSessionCookie(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (s *Server) handleAdminLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "admin_login.html", adminLoginData{
		Next: safeNext(r.URL.Query().Get("next"), defaultAdminNext),
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	next := safeNext(r.PostFormValue("next"), defaultAdminNext)

	guard := s.guardFor(w, r)
	err := guard.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.render(w, "admin_login.html", adminLoginData{Next: next, Error: "Login failed."})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleNewProjectPage(w http.ResponseWriter, r *http.Request) {
	project := model.Project{Category: model.CategorySoftware}
	if c := model.ProjectCategory(r.URL.Query().Get("category")); c.Valid() {
		project.Category = c
	}
	s.render(w, "project_form.html", projectFormData{
		Mode:       "create",
		Project:    project,
		ReturnPath: "/projects",
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	project := projectFromForm(r)
	origin := "/projects/admin/new?category=" + url.QueryEscape(string(project.Category))

	created, err := s.guardFor(w, r).CreateProject(r.Context(), project)
	if err != nil {
		if s.redirectToAdminLogin(w, r, err, origin) {
			return
		}
		s.render(w, "project_form.html", projectFormData{
			Mode:       "create",
			Project:    project,
			ReturnPath: "/projects",
			Error:      errorMessage(err, "Create failed."),
		})
		return
	}
	http.Redirect(w, r, "/projects/"+url.PathEscape(created.Slug), http.StatusSeeOther)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	project := projectFromForm(r)
	project.ID = id
	returnPath := safeNext(r.PostFormValue("return_path"), "/projects")

	updated, err := s.guardFor(w, r).UpdateProject(r.Context(), id, project)
	if err != nil {
		if s.redirectToAdminLogin(w, r, err, returnPath) {
			return
		}
		s.render(w, "project_form.html", projectFormData{
			Mode:       "edit",
			Project:    project,
			ReturnPath: returnPath,
			Error:      errorMessage(err, "Update failed."),
		})
		return
	}
	http.Redirect(w, r, "/projects/"+url.PathEscape(updated.Slug), http.StatusSeeOther)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	returnPath := safeNext(r.PostFormValue("return_path"), "/projects")

	// Deletion requires the explicit confirmation field; without it no
	// network call is made.
	if r.PostFormValue("confirm") != "yes" {
		http.Redirect(w, r, returnPath, http.StatusSeeOther)
		return
	}

	if err := s.guardFor(w, r).DeleteProject(r.Context(), id); err != nil {
		if s.redirectToAdminLogin(w, r, err, returnPath) {
			return
		}
		// Already-deleted items come back as a plain 404-class failure.
		s.render(w, "projects.html", projectsPageData{Error: errorMessage(err, "Delete failed.")})
		return
	}
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

// redirectToAdminLogin handles the two credential outcomes of a guarded
// call: missing credential (call never made) and rejected credential
// (store already cleared). Both route to admin login carrying the origin as
// the return target, with no error banner; the redirect is the feedback.
func (s *Server) redirectToAdminLogin(w http.ResponseWriter, r *http.Request, err error, origin string) bool {
	if errors.Is(err, backend.ErrNoCredential) || errors.Is(err, backend.ErrCredentialRejected) {
		http.Redirect(w, r, adminLoginPath+"?next="+url.QueryEscape(origin), http.StatusSeeOther)
		return true
	}
	return false
}

func projectFromForm(r *http.Request) model.Project {
	title := strings.TrimSpace(r.PostFormValue("title"))
	slug := strings.TrimSpace(r.PostFormValue("slug"))
	if slug == "" {
		slug = slugify(title)
	}
	category := model.ProjectCategory(r.PostFormValue("category"))
	if !category.Valid() {
		category = model.CategorySoftware
	}
	return model.Project{
		Category:        category,
		Title:           title,
		Slug:            slug,
		Summary:         strings.TrimSpace(r.PostFormValue("summary")),
		ContentMarkdown: r.PostFormValue("content_markdown"),
		GithubURL:       strings.TrimSpace(r.PostFormValue("github_url")),
	}
}

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

func slugify(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = slugSpaces.ReplaceAllString(v, "-")
	v = slugInvalid.ReplaceAllString(v, "")
	v = slugDashes.ReplaceAllString(v, "-")
	return strings.Trim(v, "-")
}

// errorMessage maps a tagged backend error to what the user sees: the
// backend's own message verbatim for validation-class failures, a generic
// line for transport and server failures.
func errorMessage(err error, fallback string) string {
	be, ok := backend.AsError(err)
	if !ok {
		return fallback
	}
	switch be.Kind {
	case backend.KindValidation, backend.KindRejectedCredential:
		if be.Message != "" {
			return be.Message
		}
		return fallback
	case backend.KindTransport:
		return "Could not reach the server."
	default:
		return fallback
	}
}
