package asset

import (
	"context"
	"errors"
	"os"
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
	srv := nexustest.NewServer(t, nexustest.WithPageSize(2))
	srv.AddRepository("raw-local", "raw-hosted", nil)
	srv.PutAsset("raw-local", "a.txt", []byte("a"))
	srv.PutAsset("raw-local", "dir/b.txt", []byte("b"))
	srv.PutAsset("raw-local", "dir/sub/c.txt", []byte("c"))
	srv.PutAsset("raw-local", "directory/d.txt", []byte("d"))

	cfg := config.New(filepath.Join(t.TempDir(), "nexus-cli"))
	cfg.URL = srv.URL
	client, err := nexus.NewClient(cfg)
	require.NoError(t, err)
	return srv, NewClient(client)
}

func paths(assets []types.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Path)
	}
	return out
}

func TestMatches(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   bool
	}{
		{path: "dir/file.txt", prefix: "", want: true},
		{path: "dir/file.txt", prefix: "dir", want: true},
		{path: "dir/file.txt", prefix: "dir/file.txt", want: true},
		{path: "/dir/file.txt", prefix: "dir", want: true},
		{path: "directory/file.txt", prefix: "dir", want: false},
		{path: "dir/file.txt", prefix: "dir/file", want: false},
		{path: "other/file.txt", prefix: "dir", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"~"+tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.path, tt.prefix))
		})
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name    string
		asset   string
		dstFile string
		flatten bool
		want    string
	}{
		{name: "keep remote path", asset: "dir/sub/c.txt", want: "dir/sub/c.txt"},
		{name: "flatten", asset: "dir/sub/c.txt", flatten: true, want: "c.txt"},
		{name: "rename", asset: "dir/sub/c.txt", dstFile: "renamed.txt", want: "dir/sub/renamed.txt"},
		{name: "rename flattened", asset: "dir/sub/c.txt", dstFile: "renamed.txt", flatten: true, want: "renamed.txt"},
		{name: "leading separator", asset: "/a.txt", want: "a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalPath(tt.asset, tt.dstFile, tt.flatten))
		})
	}
}

func TestSplitDestination(t *testing.T) {
	existing := t.TempDir()

	dir, file := SplitDestination(existing)
	assert.Equal(t, existing, dir)
	assert.Empty(t, file)

	dir, file = SplitDestination(filepath.Join(existing, "new") + string(os.PathSeparator))
	assert.Equal(t, filepath.Join(existing, "new"), dir)
	assert.Empty(t, file)

	dir, file = SplitDestination(filepath.Join(existing, "out.txt"))
	assert.Equal(t, existing, dir)
	assert.Equal(t, "out.txt", file)

	dir, file = SplitDestination("")
	assert.Equal(t, ".", dir)
	assert.Empty(t, file)
}

func TestClient_List(t *testing.T) {
	_, assets := setup(t)
	ctx := context.Background()

	tests := []struct {
		path string
		want []string
	}{
		{path: "raw-local", want: []string{"a.txt", "dir/b.txt", "dir/sub/c.txt", "directory/d.txt"}},
		{path: "raw-local/dir/", want: []string{"dir/b.txt", "dir/sub/c.txt"}},
		{path: "raw-local/dir", want: []string{"dir/b.txt", "dir/sub/c.txt"}},
		{path: "raw-local/dir/b.txt", want: []string{"dir/b.txt"}},
		{path: "raw-local/missing/", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := assets.List(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(got))
		})
	}

	_, err := assets.List(ctx, "no-such-repo/")
	assert.True(t, errors.Is(err, nexus.ErrNotFound))

	_, err = assets.List(ctx, "")
	assert.True(t, errors.Is(err, nexus.ErrInvalidRepositoryPath))
}

func TestClient_Download(t *testing.T) {
	_, assets := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		src     string
		flatten bool
		want    map[string]string
	}{
		{
			name: "directory",
			src:  "raw-local/dir/",
			want: map[string]string{"dir/b.txt": "b", "dir/sub/c.txt": "c"},
		},
		{
			name:    "directory flattened",
			src:     "raw-local/dir/",
			flatten: true,
			want:    map[string]string{"b.txt": "b", "c.txt": "c"},
		},
		{
			name: "single file",
			src:  "raw-local/a.txt",
			want: map[string]string{"a.txt": "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := t.TempDir()
			stats, err := assets.Download(ctx, tt.src, dst+string(os.PathSeparator), tt.flatten, false)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), stats.Count(types.StatusSuccess))

			for rel, content := range tt.want {
				data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
				require.NoError(t, err, rel)
				assert.Equal(t, content, string(data))
			}
		})
	}
}

func TestClient_Download_Rename(t *testing.T) {
	_, assets := setup(t)
	dst := filepath.Join(t.TempDir(), "renamed.txt")

	stats, err := assets.Download(context.Background(), "raw-local/dir/b.txt", dst, true, false)
	require.NoError(t, err)
	require.Len(t, stats.FileStats, 1)
	assert.Equal(t, dst, stats.FileStats[0].Destination)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestClient_Download_Cache(t *testing.T) {
	srv, assets := setup(t)
	ctx := context.Background()
	dst := t.TempDir() + string(os.PathSeparator)

	stats, err := assets.Download(ctx, "raw-local/dir/", dst, false, true)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count(types.StatusSuccess))

	// change one asset on the server
	srv.PutAsset("raw-local", "dir/b.txt", []byte("b2"))
	before := len(srv.Requests())

	stats, err = assets.Download(ctx, "raw-local/dir/", dst, false, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count(types.StatusSuccess))
	assert.Equal(t, 1, stats.Count(types.StatusSkip))

	data, err := os.ReadFile(filepath.Join(dst, "dir", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b2", string(data))

	contentRequests := 0
	for _, r := range srv.Requests()[before:] {
		if r == "GET /repository/raw-local/dir/b.txt" || r == "GET /repository/raw-local/dir/sub/c.txt" {
			contentRequests++
		}
	}
	assert.Equal(t, 1, contentRequests)

	// without the cache everything is fetched again
	stats, err = assets.Download(ctx, "raw-local/dir/", dst, false, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count(types.StatusSuccess))
}

func TestClient_Download_Nothing(t *testing.T) {
	_, assets := setup(t)

	stats, err := assets.Download(context.Background(), "raw-local/missing/", t.TempDir(), false, false)
	require.NoError(t, err)
	assert.Empty(t, stats.FileStats)
}

func TestClient_Delete(t *testing.T) {
	srv, assets := setup(t)
	ctx := context.Background()

	n, err := assets.Delete(ctx, "raw-local/dir")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a.txt", "directory/d.txt"}, srv.AssetPaths("raw-local"))

	n, err = assets.Delete(ctx, "raw-local/dir")
	require.NoError(t, err)
	assert.Zero(t, n)
}
