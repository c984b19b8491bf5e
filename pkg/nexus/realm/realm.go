// Package realm lists and toggles security realms
package realm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

// Client manages security realms
type Client struct {
	client *nexus.Client
}

// NewClient returns a realm client using c
func NewClient(c *nexus.Client) *Client {
	return &Client{client: c}
}

// List returns every realm the server knows about
func (r *Client) List(ctx context.Context) ([]types.Realm, error) {
	var realms []types.Realm
	if err := r.client.GetJSON(ctx, "security/realms/available", nil, &realms); err != nil {
		return nil, fmt.Errorf("failed to list realms: %w", err)
	}
	return realms, nil
}

// Active returns the ids of the active realms in evaluation order
func (r *Client) Active(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.client.GetJSON(ctx, "security/realms/active", nil, &ids); err != nil {
		return nil, fmt.Errorf("failed to list active realms: %w", err)
	}
	return ids, nil
}

// SetActive replaces the ordered list of active realms
func (r *Client) SetActive(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := r.client.SendJSON(ctx, http.MethodPut, "security/realms/active", ids, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to set active realms: %w", err)
	}
	return nil
}

// Activate appends id to the active realms unless it is already active
func (r *Client) Activate(ctx context.Context, id string) error {
	active, err := r.Active(ctx)
	if err != nil {
		return err
	}
	for _, a := range active {
		if a == id {
			log.Debug().Str("realm", id).Msg("realm already active")
			return nil
		}
	}

	if err := r.SetActive(ctx, append(active, id)); err != nil {
		return err
	}
	log.Info().Str("realm", id).Msg("realm activated")
	return nil
}

// Deactivate removes id from the active realms
func (r *Client) Deactivate(ctx context.Context, id string) error {
	active, err := r.Active(ctx)
	if err != nil {
		return err
	}

	remaining := make([]string, 0, len(active))
	for _, a := range active {
		if a != id {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) == len(active) {
		log.Debug().Str("realm", id).Msg("realm already inactive")
		return nil
	}

	if err := r.SetActive(ctx, remaining); err != nil {
		return err
	}
	log.Info().Str("realm", id).Msg("realm deactivated")
	return nil
}
