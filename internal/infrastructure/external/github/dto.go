package github

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexInt decodes a count that arrives as a JSON number, a numeric string,
// or null. Nil means the field was absent or unparseable.
type FlexInt struct {
	Value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	f.Value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		s = unquoted
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	f.Value = &n
	return nil
}

// FlexString decodes a value that arrives as a JSON string or number.
type FlexString struct {
	Value string
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.Set = false
		return nil
	}
	if data[0] == '"' {
		if err := json.Unmarshal(data, &f.Value); err != nil {
			return err
		}
	} else {
		f.Value = string(data)
	}
	f.Set = true
	return nil
}

// SummaryDTO is the profile summary payload from the proxy.
type SummaryDTO struct {
	Followers       FlexInt                    `json:"followers"`
	Following       FlexInt                    `json:"following"`
	PublicRepoCount FlexInt                    `json:"public_repo_count"`
	OriginalRepos   map[string]json.RawMessage `json:"original_repos"`
	AuthoredForks   map[string]json.RawMessage `json:"authored_forks"`
	Badges          map[string]json.RawMessage `json:"badges"`
	OverallLast     *LastCommitDTO             `json:"overall_last_commit"`
}

// LastCommitDTO carries the most recent commit date, either an ISO string or
// a unix timestamp.
type LastCommitDTO struct {
	Date FlexString `json:"date"`
}

// ContributionsDTO is the calendar payload: weeks of contribution days.
type ContributionsDTO struct {
	Weeks []WeekDTO `json:"weeks"`
}

// WeekDTO is one calendar week.
type WeekDTO struct {
	ContributionDays []ContributionDayDTO `json:"contributionDays"`
}

// ContributionDayDTO is one day of the contribution calendar.
type ContributionDayDTO struct {
	Date              string `json:"date"`
	ContributionCount int    `json:"contributionCount"`
}
