// Package cleanup manages cleanup policies. The REST API has no cleanup
// endpoints so every call runs one of the bundled scripts.
package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/script"
)

const (
	// FormatAll applies a policy to repositories of every format
	FormatAll   = "all"
	ModeDelete  = "delete"
	defaultMode = ModeDelete
)

// ErrInvalidPolicy is returned by Validate
var ErrInvalidPolicy = errors.New("invalid cleanup policy")

// Criteria select the components a policy removes. Ages are in days.
type Criteria struct {
	LastBlobUpdated *int   `json:"lastBlobUpdated,omitempty"`
	LastDownloaded  *int   `json:"lastDownloaded,omitempty"`
	Regex           string `json:"regex,omitempty"`
}

// Policy is a cleanup policy
type Policy struct {
	Name     string   `json:"name"`
	Format   string   `json:"format"`
	Notes    string   `json:"notes"`
	Mode     string   `json:"mode"`
	Criteria Criteria `json:"criteria"`
}

// Days returns a pointer suitable for Criteria fields; negative values mean
// the criterion is unset
func Days(n int) *int {
	if n < 0 {
		return nil
	}
	return &n
}

// Validate checks the policy before it is sent
func (p *Policy) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPolicy)
	}
	for field, days := range map[string]*int{
		"lastBlobUpdated": p.Criteria.LastBlobUpdated,
		"lastDownloaded":  p.Criteria.LastDownloaded,
	} {
		if days != nil && *days < 0 {
			return fmt.Errorf("%w: %s cannot be negative", ErrInvalidPolicy, field)
		}
	}
	return nil
}

// Client manages cleanup policies
type Client struct {
	scripts *script.Client
}

// NewClient returns a cleanup policy client using c
func NewClient(c *nexus.Client) *Client {
	return &Client{scripts: script.NewClient(c)}
}

// CreateOrUpdate stores the policy, replacing one with the same name
func (c *Client) CreateOrUpdate(ctx context.Context, policy Policy) error {
	if policy.Format == "" {
		policy.Format = FormatAll
	}
	if policy.Mode == "" {
		policy.Mode = defaultMode
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal cleanup policy: %w", err)
	}
	if _, err := c.scripts.Call(ctx, script.CleanupPolicyCreate, string(body)); err != nil {
		return fmt.Errorf("failed to save cleanup policy %s: %w", policy.Name, err)
	}

	log.Info().Str("policy", policy.Name).Str("format", policy.Format).Msg("cleanup policy saved")
	return nil
}

// Get returns the named policy
func (c *Client) Get(ctx context.Context, name string) (*Policy, error) {
	result, err := c.scripts.Call(ctx, script.CleanupPolicyGet, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get cleanup policy %s: %w", name, err)
	}
	if r := strings.TrimSpace(result); r == "" || r == "null" {
		return nil, fmt.Errorf("cleanup policy %s: %w", name, nexus.ErrNotFound)
	}

	var policy Policy
	if err := json.Unmarshal([]byte(result), &policy); err != nil {
		return nil, fmt.Errorf("failed to decode cleanup policy %s: %w", name, err)
	}
	return &policy, nil
}

// List returns every cleanup policy
func (c *Client) List(ctx context.Context) ([]Policy, error) {
	result, err := c.scripts.Call(ctx, script.CleanupPolicyList, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list cleanup policies: %w", err)
	}

	var policies []Policy
	if err := json.Unmarshal([]byte(result), &policies); err != nil {
		return nil, fmt.Errorf("failed to decode cleanup policies: %w", err)
	}
	return policies, nil
}
