package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgulliver/nexus3-cli/internal/nexustest"
	"github.com/lgulliver/nexus3-cli/pkg/config"
	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/script"
)

func setupCollection(t *testing.T, opts ...nexustest.Option) (*nexustest.Server, *Collection) {
	t.Helper()
	srv := nexustest.NewServer(t, opts...)

	cfg := config.New(filepath.Join(t.TempDir(), "nexus-cli"))
	cfg.URL = srv.URL
	client, err := nexus.NewClient(cfg)
	require.NoError(t, err)
	return srv, NewCollection(client)
}

func TestCollection_CreateGetDelete(t *testing.T) {
	srv, repos := setupCollection(t)
	ctx := context.Background()

	r, err := New("maven", Hosted, "maven-releases", WithVersionPolicy("RELEASE"), WithCleanupPolicy("old"))
	require.NoError(t, err)
	require.NoError(t, repos.Create(ctx, r))

	// bundled scripts are uploaded on first use
	_, ok := srv.Script(script.RepositoryCreate)
	assert.True(t, ok)

	stored, ok := srv.Repository("maven-releases")
	require.True(t, ok)
	assert.Equal(t, "maven2-hosted", stored["recipeName"])
	attrs := stored["attributes"].(map[string]any)
	assert.Equal(t, map[string]any{"policyName": []any{"old"}}, attrs["cleanup"])

	got, err := repos.Get(ctx, "maven-releases")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	summaries, err := repos.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "maven-releases", summaries[0].Name)
	assert.Equal(t, "maven2", summaries[0].Format)
	assert.Equal(t, "hosted", summaries[0].Type)

	require.NoError(t, repos.Delete(ctx, "maven-releases"))
	_, err = repos.Get(ctx, "maven-releases")
	assert.True(t, errors.Is(err, nexus.ErrNotFound))

	err = repos.Delete(ctx, "maven-releases")
	assert.True(t, errors.Is(err, nexus.ErrNotFound))
}

func TestCollection_CreateDuplicate(t *testing.T) {
	_, repos := setupCollection(t)
	ctx := context.Background()

	r, err := New("raw", Hosted, "raw-local")
	require.NoError(t, err)
	require.NoError(t, repos.Create(ctx, r))

	err = repos.Create(ctx, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreateRepository))
	assert.Equal(t, 400, nexus.StatusCode(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestCollection_CreateOnOldServer(t *testing.T) {
	srv, repos := setupCollection(t, nexustest.WithVersion("3.18.1-01"))

	r, err := New("raw", Hosted, "raw-local", WithCleanupPolicy("weekly"))
	require.NoError(t, err)
	require.NoError(t, repos.Create(context.Background(), r))

	stored, ok := srv.Repository("raw-local")
	require.True(t, ok)
	attrs := stored["attributes"].(map[string]any)
	assert.Equal(t, map[string]any{"policyName": "weekly"}, attrs["cleanup"])
}

func TestCollection_CreateInvalid(t *testing.T) {
	srv, repos := setupCollection(t)

	r := &Repository{Name: "broken", Kind: Kind{Recipe: "raw", Type: Proxy, Format: "raw"}, Proxy: &ProxySettings{}}
	err := repos.Create(context.Background(), r)
	assert.True(t, errors.Is(err, ErrInvalidOption))
	assert.Empty(t, srv.Requests())
}
