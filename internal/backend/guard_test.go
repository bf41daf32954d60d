package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/model"
)

func TestGuardRefusesWithoutCredential(t *testing.T) {
	called := false
	client := newBackendStub(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	guard := NewGuard(client, &MemoryCredentialStore{})

	err := guard.Ping(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)

	_, err = guard.CreateProject(context.Background(), model.Project{Title: "x", Slug: "x"})
	assert.ErrorIs(t, err, ErrNoCredential)

	assert.False(t, called, "no network call may happen without a credential")
}

func TestGuardLoginStoresOnlyOnSuccess(t *testing.T) {
	client := newBackendStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Basic YWRtaW46c2VjcmV0" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"missing or invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	creds := &MemoryCredentialStore{}
	guard := NewGuard(client, creds)

	err := guard.Login(context.Background(), "admin", "wrong")
	assert.Error(t, err)
	assert.Empty(t, creds.Get(), "rejected login must not store the credential")

	require.NoError(t, guard.Login(context.Background(), "admin", "secret"))
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0", creds.Get())
}

func TestGuardClearsRejectedCredential(t *testing.T) {
	client := newBackendStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"FORBIDDEN","message":"nope"}`))
	})

	creds := &MemoryCredentialStore{}
	creds.Set("Basic c3RhbGU6Y3JlZA")
	guard := NewGuard(client, creds)

	err := guard.DeleteProject(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCredentialRejected)
	assert.Empty(t, creds.Get(), "rejected credential must be discarded")

	// The next call fails the precondition without touching the network.
	err = guard.DeleteProject(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestGuardPassesThroughOtherErrors(t *testing.T) {
	client := newBackendStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"CONFLICT","message":"slug already exists"}`))
	})

	creds := &MemoryCredentialStore{}
	creds.Set("Basic YWRtaW46c2VjcmV0")
	guard := NewGuard(client, creds)

	_, err := guard.CreateProject(context.Background(), model.Project{Title: "x", Slug: "x"})
	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, be.Kind)
	assert.Equal(t, "slug already exists", be.Message)
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0", creds.Get(), "validation failures keep the credential")
}

func TestGuardAttachesCredentialAndBody(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client := newBackendStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"title":"Portfolio Site","slug":"portfolio-site","category":"SOFTWARE"}`))
	})

	creds := &MemoryCredentialStore{}
	creds.Set("Basic YWRtaW46c2VjcmV0")
	guard := NewGuard(client, creds)

	created, err := guard.CreateProject(context.Background(), model.Project{
		Category: model.CategorySoftware,
		Title:    "Portfolio Site",
		Slug:     "portfolio-site",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0", gotAuth)
	assert.Equal(t, "Portfolio Site", gotBody["title"])
	assert.Equal(t, "SOFTWARE", gotBody["category"])
}
