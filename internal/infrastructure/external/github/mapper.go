package github

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

// ApplyTo writes the GitHub side of a stats snapshot.
func (d *SummaryDTO) ApplyTo(s *student.Stats) {
	s.GitFollowers = d.Followers.Value
	s.GitFollowing = d.Following.Value
	s.GitPublicRepos = d.PublicRepoCount.Value

	orig := len(d.OriginalRepos)
	authored := len(d.AuthoredForks)
	s.GitOriginalRepos = &orig
	s.GitAuthoredRepos = &authored

	if d.OverallLast != nil {
		if day := dateOnly(d.OverallLast.Date); day != "" {
			s.LastCommitDate = &day
		}
	}

	if len(d.Badges) > 0 {
		names := make([]string, 0, len(d.Badges))
		for name := range d.Badges {
			names = append(names, name)
		}
		sort.Strings(names)
		joined := strings.Join(names, ",")
		s.GitBadges = &joined
	}
}

// ApplyTo writes the contribution history of a stats snapshot.
func (d *ContributionsDTO) ApplyTo(s *student.Stats) {
	if d == nil || len(d.Weeks) == 0 {
		return
	}
	hist := make(student.HistoryByDay)
	for _, w := range d.Weeks {
		for _, day := range w.ContributionDays {
			if day.Date == "" {
				continue
			}
			hist[day.Date] = day.ContributionCount
		}
	}
	if len(hist) > 0 {
		s.GHContributionHistory = hist
	}
}

// dateOnly normalizes a commit date to YYYY-MM-DD. Accepts ISO strings and
// unix second timestamps.
func dateOnly(f FlexString) string {
	if !f.Set {
		return ""
	}
	v := strings.TrimSpace(f.Value)
	if v == "" {
		return ""
	}
	if isDigits(v) {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil || secs <= 0 {
			return ""
		}
		return time.Unix(secs, 0).UTC().Format("2006-01-02")
	}
	if len(v) >= 10 && v[4] == '-' && v[7] == '-' {
		return v[:10]
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
