package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

const upsertStatsSQL = `
INSERT INTO group_stats (
	group_name, roll_number,
	git_followers, git_following, git_public_repo, git_original_repo, git_authored_repo,
	last_commit_date, git_badges, gh_contribution_history,
	lc_total_solved, lc_easy, lc_medium, lc_hard, lc_ranking,
	lc_lastsubmission, lc_lastacceptedsubmission, lc_cur_streak, lc_max_streak,
	lc_badges, lc_language, lc_submission_history, lc_progress_history,
	last_fetched
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, NOW())
ON CONFLICT (group_name, roll_number) DO UPDATE SET
	git_followers             = EXCLUDED.git_followers,
	git_following             = EXCLUDED.git_following,
	git_public_repo           = EXCLUDED.git_public_repo,
	git_original_repo         = EXCLUDED.git_original_repo,
	git_authored_repo         = EXCLUDED.git_authored_repo,
	last_commit_date          = EXCLUDED.last_commit_date,
	git_badges                = EXCLUDED.git_badges,
	gh_contribution_history   = EXCLUDED.gh_contribution_history,
	lc_total_solved           = EXCLUDED.lc_total_solved,
	lc_easy                   = EXCLUDED.lc_easy,
	lc_medium                 = EXCLUDED.lc_medium,
	lc_hard                   = EXCLUDED.lc_hard,
	lc_ranking                = EXCLUDED.lc_ranking,
	lc_lastsubmission         = EXCLUDED.lc_lastsubmission,
	lc_lastacceptedsubmission = EXCLUDED.lc_lastacceptedsubmission,
	lc_cur_streak             = EXCLUDED.lc_cur_streak,
	lc_max_streak             = EXCLUDED.lc_max_streak,
	lc_badges                 = EXCLUDED.lc_badges,
	lc_language               = EXCLUDED.lc_language,
	lc_submission_history     = EXCLUDED.lc_submission_history,
	lc_progress_history       = EXCLUDED.lc_progress_history,
	last_fetched              = NOW()`

// StatsRepository implements student.StatsStore on the group_stats table.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// UpsertBatch writes all snapshots in one queued batch inside a transaction.
// Each row is a full replace of the previous snapshot.
func (r *StatsRepository) UpsertBatch(ctx context.Context, groupName string, snapshots []*student.Stats) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		ghHist, err := historyJSON(s.GHContributionHistory)
		if err != nil {
			return fmt.Errorf("postgres: encode contribution history for roll %d: %w", s.RollNumber, err)
		}
		lcSub, err := historyJSON(s.LCSubmissionHistory)
		if err != nil {
			return fmt.Errorf("postgres: encode submission history for roll %d: %w", s.RollNumber, err)
		}
		lcProg, err := historyJSON(s.LCProgressHistory)
		if err != nil {
			return fmt.Errorf("postgres: encode progress history for roll %d: %w", s.RollNumber, err)
		}

		batch.Queue(upsertStatsSQL,
			groupName, s.RollNumber,
			s.GitFollowers, s.GitFollowing, s.GitPublicRepos, s.GitOriginalRepos, s.GitAuthoredRepos,
			s.LastCommitDate, s.GitBadges, ghHist,
			s.LCTotalSolved, s.LCEasy, s.LCMedium, s.LCHard, s.LCRanking,
			s.LCLastSubmission, s.LCLastAcceptedSubmission, s.LCCurrentStreak, s.LCMaxStreak,
			s.LCBadges, s.LCLanguages, lcSub, lcProg,
		)
	}

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range snapshots {
			if _, err := results.Exec(); err != nil {
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		return storageErr("student", "UpsertBatch", err)
	}
	return nil
}

// CombinedByGroup returns the roster LEFT JOINed with the latest snapshots,
// ordered by roll number.
func (r *StatsRepository) CombinedByGroup(ctx context.Context, groupName string) ([]*student.Combined, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT
			st.roll_number, st.name, st.github_username, st.leetcode_username,
			s.roll_number,
			s.git_followers, s.git_following, s.git_public_repo, s.git_original_repo, s.git_authored_repo,
			s.last_commit_date, s.git_badges, s.gh_contribution_history,
			s.lc_total_solved, s.lc_easy, s.lc_medium, s.lc_hard, s.lc_ranking,
			s.lc_lastsubmission, s.lc_lastacceptedsubmission, s.lc_cur_streak, s.lc_max_streak,
			s.lc_badges, s.lc_language, s.lc_submission_history, s.lc_progress_history,
			s.last_fetched
		FROM group_students st
		LEFT JOIN group_stats s
			ON s.group_name = st.group_name AND s.roll_number = st.roll_number
		WHERE st.group_name = $1
		ORDER BY st.roll_number`, groupName)
	if err != nil {
		return nil, storageErr("student", "CombinedByGroup", err)
	}
	defer rows.Close()

	out := make([]*student.Combined, 0)
	for rows.Next() {
		c, err := scanCombined(rows, groupName)
		if err != nil {
			return nil, storageErr("student", "CombinedByGroup", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCombined(rows pgx.Rows, groupName string) (*student.Combined, error) {
	c := &student.Combined{}
	c.GroupName = groupName

	var (
		statsRoll   *int64
		ghHist      []byte
		lcSub       []byte
		lcProg      []byte
		lastFetched *time.Time
		s           student.Stats
	)

	err := rows.Scan(
		&c.RollNumber, &c.Name, &c.GitHubUsername, &c.LeetCodeUsername,
		&statsRoll,
		&s.GitFollowers, &s.GitFollowing, &s.GitPublicRepos, &s.GitOriginalRepos, &s.GitAuthoredRepos,
		&s.LastCommitDate, &s.GitBadges, &ghHist,
		&s.LCTotalSolved, &s.LCEasy, &s.LCMedium, &s.LCHard, &s.LCRanking,
		&s.LCLastSubmission, &s.LCLastAcceptedSubmission, &s.LCCurrentStreak, &s.LCMaxStreak,
		&s.LCBadges, &s.LCLanguages, &lcSub, &lcProg,
		&lastFetched,
	)
	if err != nil {
		return nil, err
	}

	if statsRoll != nil {
		s.RollNumber = *statsRoll
		if s.GHContributionHistory, err = decodeHistory(ghHist); err != nil {
			return nil, err
		}
		if s.LCSubmissionHistory, err = decodeHistory(lcSub); err != nil {
			return nil, err
		}
		if s.LCProgressHistory, err = decodeHistory(lcProg); err != nil {
			return nil, err
		}
		if lastFetched != nil {
			s.LastFetched = *lastFetched
		}
		c.Stats = &s
	}
	c.DeriveLastCommitDay()
	return c, nil
}

// historyJSON encodes a day-keyed history for a jsonb column. A nil map is
// stored as SQL NULL rather than the JSON literal null.
func historyJSON(h student.HistoryByDay) (any, error) {
	if h == nil {
		return nil, nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func decodeHistory(b []byte) (student.HistoryByDay, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var h student.HistoryByDay
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, err
	}
	return h, nil
}
