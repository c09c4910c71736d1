// Package stats combines the GitHub and LeetCode clients into a single
// per-student snapshot fetch.
package stats

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/external/github"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/external/leetcode"
)

// Provider fetches one student's snapshot from both upstreams. Any fetch
// failure fails the whole student; the sync engine isolates it from the rest
// of the batch.
type Provider struct {
	github   *github.Client
	leetcode *leetcode.Client
	mapper   *leetcode.Mapper
	logger   *slog.Logger
}

// NewProvider creates a snapshot provider.
func NewProvider(gh *github.Client, lc *leetcode.Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		github:   gh,
		leetcode: lc,
		mapper:   leetcode.NewMapper(),
		logger:   logger,
	}
}

// Fetch builds a fresh snapshot for the record using whichever usernames are
// present. Records with neither username should be filtered out by the
// caller; Fetch returns an empty snapshot for them.
func (p *Provider) Fetch(ctx context.Context, rec *student.Record) (*student.Stats, error) {
	snapshot := &student.Stats{
		RollNumber:  rec.RollNumber,
		LastFetched: time.Now().UTC(),
	}

	if gh := usernameOf(rec.GitHubUsername); gh != "" {
		summary, err := p.github.Summary(ctx, gh)
		if err != nil {
			return nil, err
		}
		summary.ApplyTo(snapshot)

		contri, err := p.github.Contributions(ctx, gh)
		if err != nil {
			return nil, err
		}
		contri.ApplyTo(snapshot)
	}

	if lc := usernameOf(rec.LeetCodeUsername); lc != "" {
		prof, err := p.leetcode.Profile(ctx, lc)
		if err != nil {
			return nil, err
		}
		lang, err := p.leetcode.LanguageStats(ctx, lc)
		if err != nil {
			return nil, err
		}
		badges, err := p.leetcode.Badges(ctx, lc)
		if err != nil {
			return nil, err
		}
		cal, err := p.leetcode.Calendar(ctx, lc)
		if err != nil {
			return nil, err
		}
		p.mapper.Apply(snapshot, prof, lang, badges, cal)
	}

	return snapshot, nil
}

func usernameOf(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
