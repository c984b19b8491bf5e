// Package task lists and controls scheduled server tasks
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

// MinVersion is the first server release with the tasks API
const MinVersion = "3.12.1"

var (
	ErrTaskDisabled   = errors.New("task is disabled")
	ErrTaskNotRunning = errors.New("task is not running")
)

// Client manages tasks
type Client struct {
	client *nexus.Client
}

// NewClient returns a task client using c
func NewClient(c *nexus.Client) *Client {
	return &Client{client: c}
}

// List returns every task, following pagination
func (t *Client) List(ctx context.Context) ([]types.Task, error) {
	if err := t.client.RequireVersion(ctx, MinVersion); err != nil {
		return nil, err
	}

	var tasks []types.Task
	err := t.client.Paginate(ctx, "tasks", nil, func(items json.RawMessage) error {
		var page []types.Task
		if err := json.Unmarshal(items, &page); err != nil {
			return fmt.Errorf("failed to decode tasks: %w", err)
		}
		tasks = append(tasks, page...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Show returns the task with the given id
func (t *Client) Show(ctx context.Context, id string) (*types.Task, error) {
	if err := t.client.RequireVersion(ctx, MinVersion); err != nil {
		return nil, err
	}

	var task types.Task
	if err := t.client.GetJSON(ctx, "tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &task, nil
}

// Run starts the task now
func (t *Client) Run(ctx context.Context, id string) error {
	if err := t.action(ctx, id, "run"); err != nil {
		if nexus.StatusCode(err) == http.StatusMethodNotAllowed {
			return fmt.Errorf("%w: %s: %w", ErrTaskDisabled, id, err)
		}
		return err
	}
	log.Info().Str("task", id).Msg("task started")
	return nil
}

// Stop stops a running task
func (t *Client) Stop(ctx context.Context, id string) error {
	if err := t.action(ctx, id, "stop"); err != nil {
		if nexus.StatusCode(err) == http.StatusConflict {
			return fmt.Errorf("%w: %s: %w", ErrTaskNotRunning, id, err)
		}
		return err
	}
	log.Info().Str("task", id).Msg("task stopped")
	return nil
}

func (t *Client) action(ctx context.Context, id, action string) error {
	if err := t.client.RequireVersion(ctx, MinVersion); err != nil {
		return err
	}

	resp, err := t.client.Post(ctx, "tasks/"+url.PathEscape(id)+"/"+action, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := nexus.CheckResponse(resp, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to %s task %s: %w", action, id, err)
	}
	return nil
}
