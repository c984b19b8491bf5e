package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/script"
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

// Collection manages the repositories of a server. Creating, reading and
// deleting repository configurations goes through bundled groovy scripts
// since the REST API only lists repositories.
type Collection struct {
	client  *nexus.Client
	scripts *script.Client
}

// NewCollection returns a collection backed by c
func NewCollection(c *nexus.Client) *Collection {
	return &Collection{
		client:  c,
		scripts: script.NewClient(c),
	}
}

// List returns a summary of every repository
func (c *Collection) List(ctx context.Context) ([]types.RepositorySummary, error) {
	var repos []types.RepositorySummary
	if err := c.client.GetJSON(ctx, "repositories", nil, &repos); err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return repos, nil
}

// RawConfiguration returns the configuration the server holds for name
func (c *Collection) RawConfiguration(ctx context.Context, name string) (*Configuration, error) {
	result, err := c.scripts.Call(ctx, script.RepositoryGet, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s: %w", name, err)
	}
	if isNull(result) {
		return nil, fmt.Errorf("repository %s: %w", name, nexus.ErrNotFound)
	}

	var cfg Configuration
	if err := json.Unmarshal([]byte(result), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode repository %s: %w", name, err)
	}
	return &cfg, nil
}

// Get returns the named repository
func (c *Collection) Get(ctx context.Context, name string) (*Repository, error) {
	cfg, err := c.RawConfiguration(ctx, name)
	if err != nil {
		return nil, err
	}
	return FromConfiguration(cfg)
}

// Create creates r on the server, shaping the payload for the server version
func (c *Collection) Create(ctx context.Context, r *Repository) error {
	if err := r.Validate(); err != nil {
		return err
	}

	version, err := c.client.ServerVersion(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(r.Configuration(version))
	if err != nil {
		return fmt.Errorf("failed to marshal repository %s: %w", r.Name, err)
	}

	if _, err := c.scripts.Call(ctx, script.RepositoryCreate, string(body)); err != nil {
		return fmt.Errorf("%w %s: %w", ErrCreateRepository, r.Name, err)
	}

	log.Info().
		Str("repository", r.Name).
		Str("recipe", r.RecipeName()).
		Msg("repository created")
	return nil
}

// Delete removes the named repository and its content
func (c *Collection) Delete(ctx context.Context, name string) error {
	result, err := c.scripts.Call(ctx, script.RepositoryDelete, name)
	if err != nil {
		return fmt.Errorf("failed to delete repository %s: %w", name, err)
	}
	if isNull(result) {
		return fmt.Errorf("repository %s: %w", name, nexus.ErrNotFound)
	}

	log.Info().Str("repository", name).Msg("repository deleted")
	return nil
}

func isNull(result string) bool {
	result = strings.TrimSpace(result)
	return result == "" || result == "null"
}
