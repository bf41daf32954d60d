package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"portfolio-site/internal/model"
	"portfolio-site/internal/store"
)

type projectRequest struct {
	Category        model.ProjectCategory `json:"category"`
	Title           string                `json:"title"`
	Slug            string                `json:"slug"`
	Summary         string                `json:"summary"`
	ContentMarkdown string                `json:"contentMarkdown"`
	GithubURL       string                `json:"githubUrl"`
}

func (p projectRequest) validate() string {
	if !p.Category.Valid() {
		return "category must be SOFTWARE or FIRMWARE"
	}
	if strings.TrimSpace(p.Title) == "" {
		return "title is required"
	}
	if strings.TrimSpace(p.Slug) == "" {
		return "slug is required"
	}
	return ""
}

func (p projectRequest) toModel() model.Project {
	return model.Project{
		Category:        p.Category,
		Title:           strings.TrimSpace(p.Title),
		Slug:            strings.TrimSpace(p.Slug),
		Summary:         strings.TrimSpace(p.Summary),
		ContentMarkdown: p.ContentMarkdown,
		GithubURL:       strings.TrimSpace(p.GithubURL),
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	filter := store.ProjectFilter{}
	if v := r.URL.Query().Get("category"); v != "" {
		category := model.ProjectCategory(v)
		if !category.Valid() {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown category")
			return
		}
		filter.Category = category
	}

	projects, err := s.store.ListProjects(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list projects")
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	project, err := s.store.GetProjectBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleAdminPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}

	created, err := s.store.CreateProject(r.Context(), req.toModel())
	if err != nil {
		writeProjectStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid project id")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}

	p := req.toModel()
	p.ID = id
	updated, err := s.store.UpdateProject(r.Context(), p)
	if err != nil {
		writeProjectStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid project id")
		return
	}

	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		writeProjectStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeProjectStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "project not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "slug already exists")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "project operation failed")
	}
}
