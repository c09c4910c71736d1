// Package student models the per-group roster and the coding statistics
// fetched for each student from GitHub and LeetCode.
package student

import (
	"strings"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
)

// Record is one roster entry, keyed by roll number within its group.
type Record struct {
	GroupName        string  `json:"-"`
	RollNumber       int64   `json:"roll_number"`
	Name             string  `json:"name"`
	GitHubUsername   *string `json:"github_username"`
	LeetCodeUsername *string `json:"leetcode_username"`
}

// Validate checks the record against the limits the API enforces.
func (r *Record) Validate() error {
	if r.RollNumber < 0 {
		return shared.ErrInvalidStudent
	}
	name := strings.TrimSpace(r.Name)
	if name == "" || len(name) > 255 {
		return shared.ErrInvalidStudent
	}
	if r.GitHubUsername != nil && len(*r.GitHubUsername) > 255 {
		return shared.ErrInvalidStudent
	}
	if r.LeetCodeUsername != nil && len(*r.LeetCodeUsername) > 255 {
		return shared.ErrInvalidStudent
	}
	return nil
}

// HasAnyUsername reports whether the student can be synced at all.
func (r *Record) HasAnyUsername() bool {
	return trimmed(r.GitHubUsername) != "" || trimmed(r.LeetCodeUsername) != ""
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// HistoryByDay maps an ISO date (YYYY-MM-DD) to an activity count.
type HistoryByDay map[string]int

// Stats is the snapshot written for a student on each sync. It replaces the
// previous snapshot wholesale; fields left nil were unavailable upstream.
type Stats struct {
	RollNumber int64 `json:"roll_number"`

	// GitHub
	GitFollowers          *int         `json:"git_followers"`
	GitFollowing          *int         `json:"git_following"`
	GitPublicRepos        *int         `json:"git_public_repo"`
	GitOriginalRepos      *int         `json:"git_original_repo"`
	GitAuthoredRepos      *int         `json:"git_authored_repo"`
	LastCommitDate        *string      `json:"last_commit_date"`
	GitBadges             *string      `json:"git_badges"`
	GHContributionHistory HistoryByDay `json:"gh_contribution_history"`

	// LeetCode
	LCTotalSolved            *int         `json:"lc_total_solved"`
	LCEasy                   *int         `json:"lc_easy"`
	LCMedium                 *int         `json:"lc_medium"`
	LCHard                   *int         `json:"lc_hard"`
	LCRanking                *int64       `json:"lc_ranking"`
	LCLastSubmission         *string      `json:"lc_lastsubmission"`
	LCLastAcceptedSubmission *string      `json:"lc_lastacceptedsubmission"`
	LCCurrentStreak          *int         `json:"lc_cur_streak"`
	LCMaxStreak              *int         `json:"lc_max_streak"`
	LCBadges                 *string      `json:"lc_badges"`
	LCLanguages              *string      `json:"lc_language"`
	LCSubmissionHistory      HistoryByDay `json:"lc_submission_history"`
	LCProgressHistory        HistoryByDay `json:"lc_progress_history"`

	LastFetched time.Time `json:"-"`
}

// Combined joins a roster entry with its latest stats snapshot. Stats is nil
// while the first sync for the student is still pending.
type Combined struct {
	Record
	Stats *Stats

	// LastCommitDay is the date part of LastCommitDate, kept for
	// compatibility with the original API payload.
	LastCommitDay *string
}

// DeriveLastCommitDay fills LastCommitDay from the stats snapshot.
func (c *Combined) DeriveLastCommitDay() {
	c.LastCommitDay = nil
	if c.Stats == nil || c.Stats.LastCommitDate == nil {
		return
	}
	d := strings.TrimSpace(*c.Stats.LastCommitDate)
	if d == "" {
		return
	}
	if i := strings.IndexByte(d, 'T'); i > 0 {
		d = d[:i]
	}
	c.LastCommitDay = &d
}
