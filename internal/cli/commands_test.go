package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgulliver/nexus3-cli/internal/nexustest"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/task"
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

func TestRepositoryCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("repository", "create", "hosted", "maven", "releases", "--write-policy", "ALLOW", "--version-policy", "MIXED")
	h.mustRun("repo", "create", "proxy", "npm", "npmjs", "https://registry.npmjs.org", "--remote-username", "bot", "--remote-password", "secret")
	h.mustRun("repository", "create", "group", "maven", "public", "--member-names", "releases")

	res := h.mustRun("repository", "list")
	assert.Contains(t, res.stdout, "NAME")
	assert.Contains(t, res.stdout, "releases")
	assert.Contains(t, res.stdout, "npmjs")

	res = h.mustRun("repository", "show", "releases", "-o", "yaml")
	assert.Contains(t, res.stdout, "recipeName: maven2-hosted")
	assert.Contains(t, res.stdout, "versionPolicy: MIXED")

	var cfg map[string]any
	res = h.mustRun("repository", "show", "npmjs", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cfg))
	assert.Equal(t, "npm-proxy", cfg["recipeName"])

	res = h.mustRun("repository", "show", "public", "-o", "json")
	assert.Contains(t, res.stdout, `"memberNames"`)

	h.mustRun("repository", "delete", "public")
	_, ok := h.srv.Repository("public")
	assert.False(t, ok)

	res = h.run("repository", "show", "public")
	require.Error(t, res.err)
	assert.Equal(t, ExitNotFound, ExitCode(res.err))
}

func TestRepositoryCreateErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unsupported recipe", []string{"hosted", "cargo", "crates"}},
		{"recipe without type", []string{"hosted", "go", "gomods"}},
		{"bad option value", []string{"hosted", "maven", "m", "--version-policy", "NIGHTLY"}},
		{"option of another recipe", []string{"hosted", "raw", "r", "--depth", "2"}},
		{"invalid remote", []string{"proxy", "raw", "p", "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run(append([]string{"repository", "create"}, tt.args...)...)
			require.Error(t, res.err)
			assert.Equal(t, ExitUsage, ExitCode(res.err), res.err.Error())
		})
	}
}

func TestRepositoryCreateDefaults(t *testing.T) {
	h := newHarness(t)

	h.mustRun("repository", "create", "hosted", "raw", "r1")

	stored, ok := h.srv.Repository("r1")
	require.True(t, ok)
	attrs := stored["attributes"].(map[string]any)
	storage := attrs["storage"].(map[string]any)
	assert.Equal(t, "ALLOW", storage["writePolicy"])
	assert.Equal(t, true, storage["strictContentTypeValidation"])

	res := h.mustRun("repository", "create", "hosted", "--help")
	assert.Contains(t, res.stdout, `(default "ALLOW")`)
	assert.Regexp(t, `--strict-content\s+Validate[^\n]*\(default true\)`, res.stdout)
}

func TestScriptCommands(t *testing.T) {
	h := newHarness(t)

	file := filepath.Join(t.TempDir(), "echo.groovy")
	require.NoError(t, writeFile(file, "return args"))

	h.mustRun("script", "create", "echo", file)
	stored, ok := h.srv.Script("echo")
	require.True(t, ok)
	assert.Equal(t, "return args", stored.Content)

	res := h.mustRun("script", "list")
	assert.Contains(t, res.stdout, "echo")
	assert.Contains(t, res.stdout, "groovy")

	res = h.mustRun("script", "show", "echo")
	assert.Equal(t, "return args\n", res.stdout)

	res = h.mustRun("script", "run", "echo", "--args", "hello")
	assert.Equal(t, "hello\n", res.stdout)

	h.mustRun("script", "delete", "echo")
	res = h.run("script", "show", "echo")
	require.Error(t, res.err)
	assert.Equal(t, ExitNotFound, ExitCode(res.err))
}

func TestTaskCommands(t *testing.T) {
	h := newHarness(t)
	h.srv.AddTask("compact-1", "Compact default", true)
	h.srv.AddTask("disabled-1", "Disabled", false)

	res := h.mustRun("task", "list")
	assert.Contains(t, res.stdout, "compact-1")
	assert.Contains(t, res.stdout, "disabled-1")

	var shown types.Task
	res = h.mustRun("task", "show", "compact-1", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &shown))
	assert.Equal(t, "Compact default", shown.Name)

	res = h.mustRun("task", "run", "compact-1")
	assert.Contains(t, res.stderr, "Task started: compact-1")

	res = h.run("task", "run", "disabled-1")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, task.ErrTaskDisabled)

	res = h.run("task", "stop", "disabled-1")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, task.ErrTaskNotRunning)
}

func TestTaskRequiresVersion(t *testing.T) {
	h := newHarness(t, nexustest.WithVersion("3.10.0-04"))

	res := h.run("task", "list")
	require.Error(t, res.err)
	assert.Equal(t, ExitVersionMismatch, ExitCode(res.err))
}

func TestBlobStoreCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("blobstore", "create", "file", "archive", "--quota-type", "spaceUsedQuota", "--quota-limit", "10")
	h.mustRun("blobstore", "create", "s3", "cloud", "--bucket", "artifacts", "--region", "eu-west-1")

	res := h.mustRun("blobstore", "list")
	assert.Contains(t, res.stdout, "archive")
	assert.Contains(t, res.stdout, "cloud")
	assert.Contains(t, res.stdout, "default")

	var file types.FileBlobStore
	res = h.mustRun("blobstore", "show", "file", "archive", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &file))
	assert.Equal(t, "archive", file.Path)
	require.NotNil(t, file.SoftQuota)
	assert.Equal(t, int64(10*1024*1024), file.SoftQuota.Limit)

	res = h.mustRun("blobstore", "show", "s3", "cloud", "-o", "yaml")
	assert.Contains(t, res.stdout, "name: artifacts")

	res = h.mustRun("blobstore", "quota", "archive")
	assert.Contains(t, res.stdout, "VIOLATION")

	h.mustRun("blobstore", "delete", "cloud")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad quota type", []string{"create", "file", "x", "--quota-type", "sometimes", "--quota-limit", "1"}, ExitUsage},
		{"s3 without bucket", []string{"create", "s3", "y", "--region", "eu-west-1"}, ExitUsage},
		{"unknown type", []string{"show", "azure", "z"}, ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run(append([]string{"blobstore"}, tt.args...)...)
			require.Error(t, res.err)
			assert.Equal(t, tt.code, ExitCode(res.err), res.err.Error())
		})
	}
}

func TestCleanupPolicyCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("cleanup-policy", "create", "stale", "--last-downloaded", "30", "--format", "maven2")

	stored, ok := h.srv.CleanupPolicy("stale")
	require.True(t, ok)
	assert.Equal(t, "maven2", stored["format"])

	res := h.mustRun("cleanup-policy", "list")
	assert.Contains(t, res.stdout, "stale")

	res = h.mustRun("cleanup-policy", "show", "stale", "-o", "json")
	assert.Contains(t, res.stdout, `"lastDownloaded": 30`)
	assert.NotContains(t, res.stdout, "lastBlobUpdated")

	res = h.run("cleanup-policy", "create", "bad", "--last-blob-updated", "-1")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsage, ExitCode(res.err))

	res = h.run("cleanup-policy", "show", "missing")
	require.Error(t, res.err)
	assert.Equal(t, ExitNotFound, ExitCode(res.err))
}

func TestRealmCommands(t *testing.T) {
	h := newHarness(t)

	res := h.mustRun("realm", "list")
	assert.Contains(t, res.stdout, "DockerToken")

	h.mustRun("realm", "activate", "DockerToken")
	h.mustRun("realm", "deactivate", "NexusAuthorizingRealm")
	assert.Equal(t, []string{"NexusAuthenticatingRealm", "DockerToken"}, h.srv.ActiveRealms())

	res = h.mustRun("realm", "active")
	assert.Equal(t, "NexusAuthenticatingRealm\nDockerToken\n", res.stdout)

	res = h.run("realm", "activate", "NoSuchRealm")
	require.Error(t, res.err)
	assert.Equal(t, ExitAPIError, ExitCode(res.err))
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)

	var info VersionInfo
	res := h.mustRun("version", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, "test", info.Client)
	assert.Equal(t, "3.21.2", info.Server)
}
