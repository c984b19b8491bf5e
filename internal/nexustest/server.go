// Package nexustest runs an in-process fake of the Nexus 3 REST API for
// tests. It keeps repositories, scripts, assets, tasks, blob stores,
// cleanup policies and realms in memory and emulates the groovy scripts
// bundled with the client by name.
package nexustest

import (
	"crypto/sha1" // #nosec G505 -- Nexus reports sha1 checksums
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lgulliver/nexus3-cli/pkg/types"
)

// Default credentials accepted by the fake server
const (
	Username = "admin"
	Password = "admin123"
)

// DefaultVersion is the Nexus release the fake server reports
const DefaultVersion = "3.21.2-03"

// Server is a fake Nexus server
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// Version is sent in the Server header; empty omits the header
	version string
	// PageSize bounds the number of items per page of paginated endpoints
	pageSize int

	repositories    map[string]map[string]any
	scripts         map[string]types.Script
	assets          map[string][]*storedAsset
	tasks           map[string]*storedTask
	blobStores      map[string]*storedBlobStore
	cleanupPolicies map[string]map[string]any
	realms          []types.Realm
	activeRealms    []string
	requests        []string
}

type storedAsset struct {
	asset   types.Asset
	content []byte
}

type storedTask struct {
	task    types.Task
	enabled bool
}

type storedBlobStore struct {
	summary types.BlobStore
	path    string
	s3      *types.S3BlobStore
}

// Option configures the fake server
type Option func(*Server)

// WithVersion sets the version reported in the Server header
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithPageSize sets the page size of paginated endpoints
func WithPageSize(n int) Option {
	return func(s *Server) { s.pageSize = n }
}

// NewServer starts a fake server that is closed when the test ends
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		version:         DefaultVersion,
		pageSize:        10,
		repositories:    map[string]map[string]any{},
		scripts:         map[string]types.Script{},
		assets:          map[string][]*storedAsset{},
		tasks:           map[string]*storedTask{},
		blobStores:      map[string]*storedBlobStore{},
		cleanupPolicies: map[string]map[string]any{},
		realms: []types.Realm{
			{ID: "NexusAuthenticatingRealm", Name: "Local Authenticating Realm"},
			{ID: "NexusAuthorizingRealm", Name: "Local Authorizing Realm"},
			{ID: "DockerToken", Name: "Docker Bearer Token Realm"},
			{ID: "NpmToken", Name: "npm Bearer Token Realm"},
			{ID: "LdapRealm", Name: "LDAP Realm"},
		},
		activeRealms: []string{"NexusAuthenticatingRealm", "NexusAuthorizingRealm"},
	}
	s.blobStores["default"] = &storedBlobStore{
		summary: types.BlobStore{Name: "default", Type: "File", AvailableSpaceInBytes: 1 << 34},
		path:    "default",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// Repository returns the stored configuration of a repository
func (s *Server) Repository(name string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.repositories[name]
	return cfg, ok
}

// AddRepository stores a repository configuration directly
func (s *Server) AddRepository(name, recipeName string, attributes map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attributes == nil {
		attributes = map[string]any{}
	}
	s.repositories[name] = map[string]any{
		"name":       name,
		"online":     true,
		"recipeName": recipeName,
		"attributes": attributes,
	}
}

// PutAsset stores content at path inside repository
func (s *Server) PutAsset(repository, path string, content []byte) types.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putAssetLocked(repository, path, content)
}

func (s *Server) putAssetLocked(repository, path string, content []byte) types.Asset {
	path = strings.TrimLeft(path, "/")
	sha1Sum := sha1.Sum(content) // #nosec G401
	sha256Sum := sha256.Sum256(content)

	asset := types.Asset{
		ID:          uuid.NewString(),
		Path:        path,
		DownloadURL: s.URL + "/repository/" + repository + "/" + path,
		Repository:  repository,
		Format:      s.formatLocked(repository),
		Checksum: types.Checksum{
			SHA1:   hex.EncodeToString(sha1Sum[:]),
			SHA256: hex.EncodeToString(sha256Sum[:]),
		},
		FileSize: int64(len(content)),
	}

	stored := s.assets[repository]
	for i, existing := range stored {
		if existing.asset.Path == path {
			asset.ID = existing.asset.ID
			stored[i] = &storedAsset{asset: asset, content: content}
			return asset
		}
	}
	s.assets[repository] = append(stored, &storedAsset{asset: asset, content: content})
	return asset
}

// Asset returns the content stored at path inside repository
func (s *Server) Asset(repository, path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assets[repository] {
		if a.asset.Path == strings.TrimLeft(path, "/") {
			return a.content, true
		}
	}
	return nil, false
}

// AssetPaths returns the sorted paths stored in repository
func (s *Server) AssetPaths(repository string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.assets[repository]))
	for _, a := range s.assets[repository] {
		paths = append(paths, a.asset.Path)
	}
	sort.Strings(paths)
	return paths
}

// AddTask registers a scheduled task
func (s *Server) AddTask(id, name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[id] = &storedTask{
		task: types.Task{
			ID:           id,
			Name:         name,
			Type:         "blobstore.compact",
			CurrentState: "WAITING",
		},
		enabled: enabled,
	}
}

// Task returns a registered task
func (s *Server) Task(id string) (types.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return types.Task{}, false
	}
	return t.task, true
}

// Script returns a stored script
func (s *Server) Script(name string) (types.Script, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	script, ok := s.scripts[name]
	return script, ok
}

// CleanupPolicy returns a stored cleanup policy
func (s *Server) CleanupPolicy(name string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.cleanupPolicies[name]
	return p, ok
}

// ActiveRealms returns the ordered list of active realm ids
func (s *Server) ActiveRealms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.activeRealms...)
}

// Requests returns "METHOD path" for every request received so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) formatLocked(repository string) string {
	cfg, ok := s.repositories[repository]
	if !ok {
		return ""
	}
	recipe, _ := cfg["recipeName"].(string)
	format, _, _ := strings.Cut(recipe, "-")
	return format
}

func (s *Server) typeLocked(repository string) string {
	cfg, ok := s.repositories[repository]
	if !ok {
		return ""
	}
	recipe, _ := cfg["recipeName"].(string)
	_, typ, _ := strings.Cut(recipe, "-")
	return typ
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
