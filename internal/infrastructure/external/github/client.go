// Package github implements the client for the GitHub stats proxy service.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/codetrack-hub/codetrack-backend/config"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/external/upstream"
)

// Client fetches GitHub summaries and contribution calendars.
type Client struct {
	core *upstream.Client
}

// NewClient creates a GitHub proxy client.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	return &Client{core: upstream.NewClient("github", cfg, logger)}
}

// Summary fetches the profile summary for a username.
func (c *Client) Summary(ctx context.Context, username string) (*SummaryDTO, error) {
	var dto SummaryDTO
	q := url.Values{"username": {username}}
	if err := c.core.GetJSON(ctx, "/api", q, &dto); err != nil {
		return nil, fmt.Errorf("github summary for %q: %w", username, err)
	}
	return &dto, nil
}

// Contributions fetches the daily contribution calendar for a username.
func (c *Client) Contributions(ctx context.Context, username string) (*ContributionsDTO, error) {
	var dto ContributionsDTO
	q := url.Values{"username": {username}}
	if err := c.core.GetJSON(ctx, "/contri", q, &dto); err != nil {
		return nil, fmt.Errorf("github contributions for %q: %w", username, err)
	}
	return &dto, nil
}
