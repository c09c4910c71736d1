package leetcode

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

// millisGuard: calendar keys above this are millisecond timestamps.
const millisGuard = int64(1e10)

// Mapper folds the LeetCode payloads into a stats snapshot. The now function
// is injectable so streak math is testable.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper using wall-clock time.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// NewMapperAt creates a mapper with a fixed clock.
func NewMapperAt(now func() time.Time) *Mapper {
	return &Mapper{now: now}
}

// Apply writes the LeetCode side of a stats snapshot from whichever payloads
// are non-nil.
func (m *Mapper) Apply(s *student.Stats, prof *ProfileDTO, lang *LanguageStatsDTO, badges *BadgesDTO, cal *CalendarDTO) {
	var calendar map[string]int

	if prof != nil {
		s.LCTotalSolved = prof.TotalSolved
		s.LCEasy = prof.EasySolved
		s.LCMedium = prof.MediumSolved
		s.LCHard = prof.HardSolved
		s.LCRanking = prof.Ranking
		m.applySubmissions(s, prof.RecentSubmissions)
		calendar = prof.SubmissionCalendar
	}

	// The dedicated calendar endpoint wins over the profile's embedded copy.
	if decoded := cal.DecodedCalendar(); len(decoded) > 0 {
		calendar = decoded
	}

	if lang != nil {
		if joined := joinLanguages(lang); joined != "" {
			s.LCLanguages = &joined
		}
	}

	if badges != nil && badges.BadgesCount != nil {
		count := strconv.Itoa(*badges.BadgesCount)
		s.LCBadges = &count
	}

	if len(calendar) > 0 {
		days := calendarDays(calendar)
		cur, max := streaks(days, m.now().UTC())
		s.LCCurrentStreak = &cur
		s.LCMaxStreak = &max
		s.LCSubmissionHistory = historyFromCalendar(calendar)
	}
}

func (m *Mapper) applySubmissions(s *student.Stats, recent []SubmissionDTO) {
	if len(recent) == 0 {
		return
	}
	if day := timestampToDay(recent[0].Timestamp); day != "" {
		s.LCLastSubmission = &day
	}
	for _, sub := range recent {
		if strings.EqualFold(sub.StatusDisplay, "accepted") {
			if day := timestampToDay(sub.Timestamp); day != "" {
				s.LCLastAcceptedSubmission = &day
			}
			return
		}
	}
}

func joinLanguages(lang *LanguageStatsDTO) string {
	names := make([]string, 0, len(lang.MatchedUser.LanguageProblemCount))
	for _, lc := range lang.MatchedUser.LanguageProblemCount {
		if lc.LanguageName != "" {
			names = append(names, lc.LanguageName)
		}
	}
	return strings.Join(names, ",")
}

// timestampToDay converts a unix-seconds timestamp to a UTC date string.
func timestampToDay(ts json.Number) string {
	v := strings.TrimSpace(ts.String())
	if v == "" {
		return ""
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs <= 0 {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format("2006-01-02")
}

// calendarDays converts calendar keys (unix seconds, possibly milliseconds)
// to a sorted set of UTC days.
func calendarDays(calendar map[string]int) []time.Time {
	seen := make(map[time.Time]struct{}, len(calendar))
	for key := range calendar {
		k := strings.TrimSpace(key)
		secs, err := strconv.ParseInt(k, 10, 64)
		if err != nil || secs <= 0 {
			continue
		}
		if secs > millisGuard {
			secs /= 1000
		}
		t := time.Unix(secs, 0).UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		seen[day] = struct{}{}
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// streaks computes the current streak ending at today (UTC) and the longest
// run of consecutive active days.
func streaks(days []time.Time, now time.Time) (current, max int) {
	if len(days) == 0 {
		return 0, 0
	}
	active := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		active[d] = struct{}{}
	}

	run := 0
	for d := days[0]; !d.After(days[len(days)-1]); d = d.AddDate(0, 0, 1) {
		if _, ok := active[d]; ok {
			run++
			if run > max {
				max = run
			}
		} else {
			run = 0
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for d := today; ; d = d.AddDate(0, 0, -1) {
		if _, ok := active[d]; !ok {
			break
		}
		current++
	}
	return current, max
}

// historyFromCalendar normalizes calendar keys to ISO dates.
func historyFromCalendar(calendar map[string]int) student.HistoryByDay {
	hist := make(student.HistoryByDay, len(calendar))
	for key, count := range calendar {
		k := strings.TrimSpace(key)
		secs, err := strconv.ParseInt(k, 10, 64)
		if err != nil || secs <= 0 {
			continue
		}
		if secs > millisGuard {
			secs /= 1000
		}
		day := time.Unix(secs, 0).UTC().Format("2006-01-02")
		hist[day] += count
	}
	if len(hist) == 0 {
		return nil
	}
	return hist
}
