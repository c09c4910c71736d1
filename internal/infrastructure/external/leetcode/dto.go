package leetcode

import "encoding/json"

// ProfileDTO is the user profile payload.
type ProfileDTO struct {
	TotalSolved  *int `json:"totalSolved"`
	EasySolved   *int `json:"easySolved"`
	MediumSolved *int `json:"mediumSolved"`
	HardSolved   *int `json:"hardSolved"`

	Ranking *int64 `json:"ranking"`

	// RecentSubmissions is ordered newest first.
	RecentSubmissions []SubmissionDTO `json:"recentSubmissions"`

	// SubmissionCalendar maps unix day timestamps (as string keys) to counts.
	SubmissionCalendar map[string]int `json:"submissionCalendar"`
}

// SubmissionDTO is one recent submission.
type SubmissionDTO struct {
	Title         string      `json:"title"`
	StatusDisplay string      `json:"statusDisplay"`
	Timestamp     json.Number `json:"timestamp"`
}

// LanguageStatsDTO is the per-language solve count payload.
type LanguageStatsDTO struct {
	MatchedUser struct {
		LanguageProblemCount []LanguageCountDTO `json:"languageProblemCount"`
	} `json:"matchedUser"`
}

// LanguageCountDTO is one language entry.
type LanguageCountDTO struct {
	LanguageName   string `json:"languageName"`
	ProblemsSolved int    `json:"problemsSolved"`
}

// BadgesDTO is the badges payload; only the count is stored.
type BadgesDTO struct {
	BadgesCount *int `json:"badgesCount"`
}

// CalendarDTO wraps the submission calendar as a JSON string.
type CalendarDTO struct {
	SubmissionCalendar string `json:"submissionCalendar"`
}

// DecodedCalendar parses the wrapped calendar string. Returns nil when the
// string is empty or malformed.
func (c *CalendarDTO) DecodedCalendar() map[string]int {
	if c == nil || c.SubmissionCalendar == "" {
		return nil
	}
	var cal map[string]int
	if err := json.Unmarshal([]byte(c.SubmissionCalendar), &cal); err != nil {
		return nil
	}
	return cal
}
