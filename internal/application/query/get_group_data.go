// Package query contains the read operations of the service: the combined
// roster+stats view, group listings, last-update times, and notifications.
package query

import (
	"context"
	"fmt"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

// GroupDataRow is one row of the combined view, flattened for the API
// payload. Stats fields are nil while the first sync is still pending.
type GroupDataRow struct {
	Name             string  `json:"name"`
	RollNumber       int64   `json:"roll_number"`
	GitHubUsername   *string `json:"github_username"`
	LeetCodeUsername *string `json:"leetcode_username"`

	GitFollowers          *int                 `json:"git_followers"`
	GitFollowing          *int                 `json:"git_following"`
	GitPublicRepos        *int                 `json:"git_public_repo"`
	GitOriginalRepos      *int                 `json:"git_original_repo"`
	GitAuthoredRepos      *int                 `json:"git_authored_repo"`
	LastCommitDate        *string              `json:"last_commit_date"`
	GitBadges             *string              `json:"git_badges"`
	GHContributionHistory student.HistoryByDay `json:"gh_contribution_history"`

	LCTotalSolved            *int                 `json:"lc_total_solved"`
	LCEasy                   *int                 `json:"lc_easy"`
	LCMedium                 *int                 `json:"lc_medium"`
	LCHard                   *int                 `json:"lc_hard"`
	LCRanking                *int64               `json:"lc_ranking"`
	LCLastSubmission         *string              `json:"lc_lastsubmission"`
	LCLastAcceptedSubmission *string              `json:"lc_lastacceptedsubmission"`
	LCCurrentStreak          *int                 `json:"lc_cur_streak"`
	LCMaxStreak              *int                 `json:"lc_max_streak"`
	LCBadges                 *string              `json:"lc_badges"`
	LCLanguages              *string              `json:"lc_language"`
	LCSubmissionHistory      student.HistoryByDay `json:"lc_submission_history"`
	LCProgressHistory        student.HistoryByDay `json:"lc_progress_history"`

	LastCommitDay *string `json:"last_commit_day"`
}

// rowFromCombined flattens a domain Combined into an API row.
func rowFromCombined(c *student.Combined) GroupDataRow {
	row := GroupDataRow{
		Name:             c.Name,
		RollNumber:       c.RollNumber,
		GitHubUsername:   c.GitHubUsername,
		LeetCodeUsername: c.LeetCodeUsername,
		LastCommitDay:    c.LastCommitDay,
	}
	if s := c.Stats; s != nil {
		row.GitFollowers = s.GitFollowers
		row.GitFollowing = s.GitFollowing
		row.GitPublicRepos = s.GitPublicRepos
		row.GitOriginalRepos = s.GitOriginalRepos
		row.GitAuthoredRepos = s.GitAuthoredRepos
		row.LastCommitDate = s.LastCommitDate
		row.GitBadges = s.GitBadges
		row.GHContributionHistory = s.GHContributionHistory
		row.LCTotalSolved = s.LCTotalSolved
		row.LCEasy = s.LCEasy
		row.LCMedium = s.LCMedium
		row.LCHard = s.LCHard
		row.LCRanking = s.LCRanking
		row.LCLastSubmission = s.LCLastSubmission
		row.LCLastAcceptedSubmission = s.LCLastAcceptedSubmission
		row.LCCurrentStreak = s.LCCurrentStreak
		row.LCMaxStreak = s.LCMaxStreak
		row.LCBadges = s.LCBadges
		row.LCLanguages = s.LCLanguages
		row.LCSubmissionHistory = s.LCSubmissionHistory
		row.LCProgressHistory = s.LCProgressHistory
	}
	return row
}

// ViewCache caches assembled combined views per group. Failures degrade to
// reading from storage.
type ViewCache interface {
	GetView(ctx context.Context, groupName string, dest any) bool
	PutView(ctx context.Context, groupName string, view any)
}

// NoopViewCache never hits.
type NoopViewCache struct{}

// GetView always misses.
func (NoopViewCache) GetView(context.Context, string, any) bool { return false }

// PutView does nothing.
func (NoopViewCache) PutView(context.Context, string, any) {}

// GetGroupDataQuery requests the combined view of one group.
type GetGroupDataQuery struct {
	GroupName string
}

// Validate validates the query.
func (q GetGroupDataQuery) Validate() error {
	return group.ValidateName(q.GroupName)
}

// GetGroupDataHandler serves the combined roster+stats view.
type GetGroupDataHandler struct {
	registry   group.Registry
	statsStore student.StatsStore
	cache      ViewCache
}

// NewGetGroupDataHandler creates a new handler.
func NewGetGroupDataHandler(registry group.Registry, statsStore student.StatsStore, cache ViewCache) *GetGroupDataHandler {
	if cache == nil {
		cache = NoopViewCache{}
	}
	return &GetGroupDataHandler{registry: registry, statsStore: statsStore, cache: cache}
}

// Handle returns one row per roster entry ordered by roll number. Students
// without a snapshot yet appear with nil stats fields, never omitted.
func (h *GetGroupDataHandler) Handle(ctx context.Context, q GetGroupDataQuery) ([]GroupDataRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	exists, err := h.registry.Exists(ctx, q.GroupName)
	if err != nil {
		return nil, fmt.Errorf("get_group_data: %w", err)
	}
	if !exists {
		return nil, shared.ErrGroupNotFound
	}
	enabled, err := h.registry.StatsEnabled(ctx, q.GroupName)
	if err != nil {
		return nil, fmt.Errorf("get_group_data: %w", err)
	}
	if !enabled {
		return nil, shared.ErrStatsNotEnabled
	}

	var cached []GroupDataRow
	if h.cache.GetView(ctx, q.GroupName, &cached) {
		return cached, nil
	}

	combined, err := h.statsStore.CombinedByGroup(ctx, q.GroupName)
	if err != nil {
		return nil, fmt.Errorf("get_group_data: %w", err)
	}

	rows := make([]GroupDataRow, 0, len(combined))
	for _, c := range combined {
		rows = append(rows, rowFromCombined(c))
	}

	h.cache.PutView(ctx, q.GroupName, rows)
	return rows, nil
}
