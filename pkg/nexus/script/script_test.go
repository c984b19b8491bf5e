package script

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
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

func setup(t *testing.T) (*nexustest.Server, *Client) {
	t.Helper()
	srv := nexustest.NewServer(t)

	cfg := config.New(filepath.Join(t.TempDir(), "nexus-cli"))
	cfg.URL = srv.URL
	client, err := nexus.NewClient(cfg)
	require.NoError(t, err)
	return srv, NewClient(client)
}

func TestBundled(t *testing.T) {
	names, err := BundledNames()
	require.NoError(t, err)
	assert.Equal(t, []string{
		CleanupPolicyCreate,
		CleanupPolicyGet,
		CleanupPolicyList,
		RepositoryCreate,
		RepositoryDelete,
		RepositoryGet,
	}, names)

	content, err := Bundled(RepositoryGet)
	require.NoError(t, err)
	assert.Contains(t, content, "getRepositoryManager")

	_, err = Bundled("does-not-exist")
	assert.True(t, errors.Is(err, ErrNoBundledScript))
}

func TestClient_CRUD(t *testing.T) {
	srv, scripts := setup(t)
	ctx := context.Background()

	require.NoError(t, scripts.Create(ctx, types.Script{Name: "hello", Content: "return 'hi'"}))

	err := scripts.Create(ctx, types.Script{Name: "hello", Content: "again"})
	require.Error(t, err)
	assert.Equal(t, 400, nexus.StatusCode(err))

	got, err := scripts.Get(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "return 'hi'", got.Content)
	assert.Equal(t, TypeGroovy, got.Type)

	require.NoError(t, scripts.Update(ctx, types.Script{Name: "hello", Content: "return 'bye'"}))
	stored, ok := srv.Script("hello")
	require.True(t, ok)
	assert.Equal(t, "return 'bye'", stored.Content)

	list, err := scripts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Name)

	require.NoError(t, scripts.Delete(ctx, "hello"))
	_, err = scripts.Get(ctx, "hello")
	assert.True(t, errors.Is(err, nexus.ErrNotFound))

	err = scripts.Delete(ctx, "hello")
	assert.True(t, errors.Is(err, nexus.ErrNotFound))
}

func TestClient_Run(t *testing.T) {
	_, scripts := setup(t)
	ctx := context.Background()

	require.NoError(t, scripts.Create(ctx, types.Script{Name: "echo", Content: "return args"}))

	result, err := scripts.Run(ctx, "echo", "ping")
	require.NoError(t, err)
	assert.Equal(t, "echo", result.Name)
	assert.Equal(t, "ping", result.Result)

	_, err = scripts.Run(ctx, "missing", "")
	assert.True(t, errors.Is(err, nexus.ErrNotFound))
}

func TestClient_CreateIfMissing(t *testing.T) {
	srv, scripts := setup(t)
	ctx := context.Background()

	require.NoError(t, scripts.CreateIfMissing(ctx, RepositoryGet))
	stored, ok := srv.Script(RepositoryGet)
	require.True(t, ok)
	bundled, _ := Bundled(RepositoryGet)
	assert.Equal(t, bundled, stored.Content)

	// second call leaves the stored script alone
	require.NoError(t, scripts.Update(ctx, types.Script{Name: RepositoryGet, Content: "custom"}))
	require.NoError(t, scripts.CreateIfMissing(ctx, RepositoryGet))
	stored, _ = srv.Script(RepositoryGet)
	assert.Equal(t, "custom", stored.Content)

	err := scripts.CreateIfMissing(ctx, "unknown")
	assert.True(t, errors.Is(err, ErrNoBundledScript))
}

func TestClient_Call(t *testing.T) {
	_, scripts := setup(t)

	result, err := scripts.Call(context.Background(), RepositoryGet, "missing-repo")
	require.NoError(t, err)
	assert.Equal(t, "null", result)
}

func TestClient_NameNeedsEscaping(t *testing.T) {
	srv, scripts := setup(t)
	ctx := context.Background()
	name := "tag?v1 #2"

	require.NoError(t, scripts.Create(ctx, types.Script{Name: name, Content: "return args"}))

	got, err := scripts.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)

	require.NoError(t, scripts.Update(ctx, types.Script{Name: name, Content: "return 'x'"}))
	stored, ok := srv.Script(name)
	require.True(t, ok)
	assert.Equal(t, "return 'x'", stored.Content)

	result, err := scripts.Run(ctx, name, "")
	require.NoError(t, err)
	assert.Equal(t, name, result.Name)

	require.NoError(t, scripts.Delete(ctx, name))
	_, ok = srv.Script(name)
	assert.False(t, ok)
}
