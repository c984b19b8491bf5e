// Package script manages groovy scripts stored on the server and runs the
// helper scripts bundled with the client.
package script

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

// Names of the bundled scripts
const (
	RepositoryCreate    = "nexus3-cli-repository-create"
	RepositoryGet       = "nexus3-cli-repository-get"
	RepositoryDelete    = "nexus3-cli-repository-delete"
	CleanupPolicyCreate = "nexus3-cli-cleanup-policy"
	CleanupPolicyGet    = "nexus3-cli-cleanup-policy-get"
	CleanupPolicyList   = "nexus3-cli-cleanup-policy-list"
)

// TypeGroovy is the only script type the server accepts
const TypeGroovy = "groovy"

const bundledDir = "groovy"

//go:embed groovy/*.groovy
var bundledFS embed.FS

// ErrNoBundledScript is returned for names that are not shipped with the client
var ErrNoBundledScript = errors.New("no bundled script")

// Client manages scripts on a Nexus server
type Client struct {
	client *nexus.Client
}

// NewClient returns a script client using c
func NewClient(c *nexus.Client) *Client {
	return &Client{client: c}
}

// List returns every script stored on the server
func (s *Client) List(ctx context.Context) ([]types.Script, error) {
	var scripts []types.Script
	if err := s.client.GetJSON(ctx, "script", nil, &scripts); err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	return scripts, nil
}

// Get returns the named script; a missing script wraps nexus.ErrNotFound
func (s *Client) Get(ctx context.Context, name string) (*types.Script, error) {
	var script types.Script
	if err := s.client.GetJSON(ctx, "script/"+url.PathEscape(name), nil, &script); err != nil {
		return nil, fmt.Errorf("failed to get script %s: %w", name, err)
	}
	return &script, nil
}

// Create uploads a new script
func (s *Client) Create(ctx context.Context, script types.Script) error {
	if script.Type == "" {
		script.Type = TypeGroovy
	}
	if err := s.client.SendJSON(ctx, http.MethodPost, "script", script, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to create script %s: %w", script.Name, err)
	}
	log.Debug().Str("script", script.Name).Msg("script created")
	return nil
}

// Update replaces the content of an existing script
func (s *Client) Update(ctx context.Context, script types.Script) error {
	if script.Type == "" {
		script.Type = TypeGroovy
	}
	if err := s.client.SendJSON(ctx, http.MethodPut, "script/"+url.PathEscape(script.Name), script, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to update script %s: %w", script.Name, err)
	}
	return nil
}

// Delete removes the named script
func (s *Client) Delete(ctx context.Context, name string) error {
	resp, err := s.client.Delete(ctx, "script/"+url.PathEscape(name))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := nexus.CheckResponse(resp, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to delete script %s: %w", name, err)
	}
	log.Debug().Str("script", name).Msg("script deleted")
	return nil
}

// Run executes the named script with body as its args
func (s *Client) Run(ctx context.Context, name, body string) (*types.ScriptResult, error) {
	resp, err := s.client.Post(ctx, "script/"+url.PathEscape(name)+"/run", strings.NewReader(body), "text/plain")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := nexus.CheckResponse(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to run script %s: %w", name, err)
	}

	var result types.ScriptResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result of script %s: %w", name, err)
	}
	log.Debug().Str("script", name).Int("result_size", len(result.Result)).Msg("script run")
	return &result, nil
}

// CreateIfMissing uploads the bundled script called name unless the server
// already has a script by that name
func (s *Client) CreateIfMissing(ctx context.Context, name string) error {
	_, err := s.Get(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nexus.ErrNotFound) {
		return err
	}

	content, err := Bundled(name)
	if err != nil {
		return err
	}
	return s.Create(ctx, types.Script{Name: name, Type: TypeGroovy, Content: content})
}

// Call makes sure the bundled script name exists, runs it and returns its
// result
func (s *Client) Call(ctx context.Context, name, body string) (string, error) {
	if err := s.CreateIfMissing(ctx, name); err != nil {
		return "", err
	}
	result, err := s.Run(ctx, name, body)
	if err != nil {
		return "", err
	}
	return result.Result, nil
}

// Bundled returns the content of a script shipped with the client
func Bundled(name string) (string, error) {
	content, err := fs.ReadFile(bundledFS, path.Join(bundledDir, name+".groovy"))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoBundledScript, name)
	}
	return string(content), nil
}

// BundledNames lists the scripts shipped with the client
func BundledNames() ([]string, error) {
	entries, err := fs.ReadDir(bundledFS, bundledDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled scripts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".groovy") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".groovy"))
	}
	sort.Strings(names)
	return names, nil
}
