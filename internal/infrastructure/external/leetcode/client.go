// Package leetcode implements the client for the LeetCode stats proxy
// service. Deployed proxies disagree on some paths, so profile and language
// stats requests fall through a list of known variants on 404.
package leetcode

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/codetrack-hub/codetrack-backend/config"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/external/upstream"
)

// Client fetches LeetCode profiles, language stats, badges, and calendars.
type Client struct {
	core *upstream.Client
}

// NewClient creates a LeetCode proxy client.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	return &Client{core: upstream.NewClient("leetcode", cfg, logger)}
}

// Profile fetches the user profile, trying known path variants.
func (c *Client) Profile(ctx context.Context, username string) (*ProfileDTO, error) {
	escaped := url.PathEscape(username)
	paths := []string{
		"/userprofile/" + escaped,
		"/" + escaped,
		"/userProfile/" + escaped,
	}

	var lastErr error
	for _, path := range paths {
		var dto ProfileDTO
		err := c.core.GetJSON(ctx, path, nil, &dto)
		if err == nil {
			return &dto, nil
		}
		lastErr = err
		if !upstream.IsNotFound(err) {
			break
		}
	}
	return nil, fmt.Errorf("leetcode profile for %q: %w", username, lastErr)
}

// LanguageStats fetches per-language solve counts, trying both casings.
func (c *Client) LanguageStats(ctx context.Context, username string) (*LanguageStatsDTO, error) {
	q := url.Values{"username": {username}}

	var lastErr error
	for _, path := range []string{"/languageStats", "/languagestats"} {
		var dto LanguageStatsDTO
		err := c.core.GetJSON(ctx, path, q, &dto)
		if err == nil {
			return &dto, nil
		}
		lastErr = err
		if !upstream.IsNotFound(err) {
			break
		}
	}
	return nil, fmt.Errorf("leetcode language stats for %q: %w", username, lastErr)
}

// Badges fetches the badge count for a username.
func (c *Client) Badges(ctx context.Context, username string) (*BadgesDTO, error) {
	var dto BadgesDTO
	path := "/" + url.PathEscape(username) + "/badges"
	if err := c.core.GetJSON(ctx, path, nil, &dto); err != nil {
		return nil, fmt.Errorf("leetcode badges for %q: %w", username, err)
	}
	return &dto, nil
}

// Calendar fetches the submission calendar. The payload wraps the calendar
// map as a JSON string.
func (c *Client) Calendar(ctx context.Context, username string) (*CalendarDTO, error) {
	var dto CalendarDTO
	path := "/" + url.PathEscape(username) + "/calendar"
	if err := c.core.GetJSON(ctx, path, nil, &dto); err != nil {
		return nil, fmt.Errorf("leetcode calendar for %q: %w", username, err)
	}
	return &dto, nil
}
