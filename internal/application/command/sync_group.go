package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/notification"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
	"github.com/codetrack-hub/codetrack-backend/pkg/retry"
	"github.com/codetrack-hub/codetrack-backend/pkg/timeutil"
)

// StatsProvider fetches one student's fresh snapshot from the upstreams.
type StatsProvider interface {
	Fetch(ctx context.Context, rec *student.Record) (*student.Stats, error)
}

// SyncLocker serializes sync runs per group. With the no-op implementation
// overlapping runs are merely wasteful, not incorrect, since snapshot
// upserts are idempotent.
type SyncLocker interface {
	// TryLock acquires the group's sync lock. Returns false when another run
	// already holds it.
	TryLock(ctx context.Context, groupName string) (bool, error)

	// Unlock releases the group's sync lock.
	Unlock(ctx context.Context, groupName string) error
}

// NoopSyncLock always grants the lock.
type NoopSyncLock struct{}

// TryLock always succeeds.
func (NoopSyncLock) TryLock(context.Context, string) (bool, error) { return true, nil }

// Unlock does nothing.
func (NoopSyncLock) Unlock(context.Context, string) error { return nil }

// SyncGroupCommand refreshes every student snapshot in a group.
type SyncGroupCommand struct {
	GroupName string
}

// Validate validates the command.
func (c SyncGroupCommand) Validate() error {
	return group.ValidateName(c.GroupName)
}

// SyncGroupResult reports the outcome of one sync run. Per-student failures
// are embedded, not propagated; the run itself succeeds as long as the group
// exists and the database is reachable.
type SyncGroupResult struct {
	GroupName string   `json:"source_table"`
	DataTable string   `json:"target_table"`
	Updated   int      `json:"updated"`
	Errors    []string `json:"errors"`

	StartedAt   time.Time     `json:"-"`
	Duration    time.Duration `json:"-"`
	Total       int           `json:"-"`
	Skipped     int           `json:"-"`
	FlaggedLC   int           `json:"-"`
	UnflaggedLC int           `json:"-"`
}

// SyncGroupConfig tunes the sync worker pool and batching.
type SyncGroupConfig struct {
	// MaxWorkers bounds concurrent upstream fetches.
	MaxWorkers int

	// BatchSize bounds rows per snapshot upsert statement batch.
	BatchSize int

	// MaxRetries and RetryBaseDelay govern transient storage retries.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// InactiveAfterDays is the LeetCode inactivity threshold for auto-flags.
	InactiveAfterDays int
}

// DefaultSyncGroupConfig returns the defaults used when a field is unset.
func DefaultSyncGroupConfig() SyncGroupConfig {
	return SyncGroupConfig{
		MaxWorkers:        12,
		BatchSize:         30,
		MaxRetries:        3,
		RetryBaseDelay:    500 * time.Millisecond,
		InactiveAfterDays: 3,
	}
}

func (c SyncGroupConfig) withDefaults() SyncGroupConfig {
	def := DefaultSyncGroupConfig()
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = def.MaxWorkers
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = def.RetryBaseDelay
	}
	if c.InactiveAfterDays <= 0 {
		c.InactiveAfterDays = def.InactiveAfterDays
	}
	return c
}

// SyncGroupHandler runs the sync engine for one group at a time.
type SyncGroupHandler struct {
	registry    group.Registry
	directory   student.Directory
	statsStore  student.StatsStore
	ledger      notification.Ledger
	provider    StatsProvider
	locker      SyncLocker
	invalidator ViewInvalidator
	cfg         SyncGroupConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewSyncGroupHandler creates a new sync handler.
func NewSyncGroupHandler(
	registry group.Registry,
	directory student.Directory,
	statsStore student.StatsStore,
	ledger notification.Ledger,
	provider StatsProvider,
	locker SyncLocker,
	invalidator ViewInvalidator,
	cfg SyncGroupConfig,
	logger *slog.Logger,
) *SyncGroupHandler {
	if locker == nil {
		locker = NoopSyncLock{}
	}
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncGroupHandler{
		registry:    registry,
		directory:   directory,
		statsStore:  statsStore,
		ledger:      ledger,
		provider:    provider,
		locker:      locker,
		invalidator: invalidator,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the handler clock. Test hook.
func (h *SyncGroupHandler) WithClock(now func() time.Time) *SyncGroupHandler {
	h.now = now
	return h
}

type fetchOutcome struct {
	rec      *student.Record
	snapshot *student.Stats
	err      error
}

// Handle refreshes every snapshot in the group. Fails fast when the group is
// unknown, stats are not enabled, another run holds the lock, or the
// database is unreachable; individual fetch failures are reported in the
// result instead.
func (h *SyncGroupHandler) Handle(ctx context.Context, cmd SyncGroupCommand) (*SyncGroupResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	exists, err := h.registry.Exists(ctx, cmd.GroupName)
	if err != nil {
		return nil, fmt.Errorf("sync_group: %w", err)
	}
	if !exists {
		return nil, shared.ErrGroupNotFound
	}
	enabled, err := h.registry.StatsEnabled(ctx, cmd.GroupName)
	if err != nil {
		return nil, fmt.Errorf("sync_group: %w", err)
	}
	if !enabled {
		return nil, shared.ErrStatsNotEnabled
	}

	locked, err := h.locker.TryLock(ctx, cmd.GroupName)
	if err != nil {
		h.logger.Warn("sync lock unavailable, proceeding unlocked",
			slog.String("group", cmd.GroupName),
			slog.String("error", err.Error()))
	} else if !locked {
		return nil, shared.ErrSyncLocked
	}
	if locked {
		defer func() {
			if err := h.locker.Unlock(context.WithoutCancel(ctx), cmd.GroupName); err != nil {
				h.logger.Warn("sync unlock failed", slog.String("group", cmd.GroupName),
					slog.String("error", err.Error()))
			}
		}()
	}

	result := &SyncGroupResult{
		GroupName: cmd.GroupName,
		DataTable: cmd.GroupName + group.DataSuffix,
		Errors:    make([]string, 0),
		StartedAt: h.now().UTC(),
	}

	roster, err := h.directory.GetAll(ctx, cmd.GroupName)
	if err != nil {
		return nil, fmt.Errorf("sync_group: load roster: %w", err)
	}

	work := make([]*student.Record, 0, len(roster))
	for _, rec := range roster {
		if rec.HasAnyUsername() {
			work = append(work, rec)
		} else {
			result.Skipped++
		}
	}
	result.Total = len(work)
	if len(work) == 0 {
		result.Duration = h.now().UTC().Sub(result.StartedAt)
		return result, nil
	}

	progressSeed, err := h.loadProgressSeed(ctx, cmd.GroupName)
	if err != nil {
		return nil, fmt.Errorf("sync_group: load prior snapshots: %w", err)
	}

	outcomes := h.fetchAll(ctx, work)

	snapshots := make([]*student.Stats, 0, len(outcomes))
	var toFlag []*student.Record
	var toClear []*student.Record
	for _, out := range outcomes {
		if out.err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("roll=%d: %v", out.rec.RollNumber, out.err))
			continue
		}
		h.extendProgressHistory(out.snapshot, progressSeed[out.rec.RollNumber])
		snapshots = append(snapshots, out.snapshot)

		if hasLeetCode(out.rec) {
			if h.isInactive(out.snapshot) {
				toFlag = append(toFlag, out.rec)
			} else {
				toClear = append(toClear, out.rec)
			}
		}
	}

	updated, upsertErrs := h.upsertSnapshots(ctx, cmd.GroupName, snapshots)
	result.Updated = updated
	result.Errors = append(result.Errors, upsertErrs...)

	result.FlaggedLC, result.UnflaggedLC = h.applyInactivityFlags(ctx, cmd.GroupName, toFlag, toClear, result)

	h.invalidator.Invalidate(ctx, cmd.GroupName)

	result.Duration = h.now().UTC().Sub(result.StartedAt)
	h.logger.Info("sync run finished",
		slog.String("group", cmd.GroupName),
		slog.Int("students", result.Total),
		slog.Int("updated", result.Updated),
		slog.Int("failed", len(result.Errors)),
		slog.Duration("took", result.Duration),
	)
	return result, nil
}

// fetchAll runs upstream fetches through a bounded worker pool. Order of the
// returned outcomes is not significant.
func (h *SyncGroupHandler) fetchAll(ctx context.Context, work []*student.Record) []fetchOutcome {
	sem := make(chan struct{}, h.cfg.MaxWorkers)
	results := make(chan fetchOutcome, len(work))

	for _, rec := range work {
		sem <- struct{}{}
		go func(rec *student.Record) {
			defer func() { <-sem }()
			snapshot, err := h.provider.Fetch(ctx, rec)
			results <- fetchOutcome{rec: rec, snapshot: snapshot, err: err}
		}(rec)
	}

	outcomes := make([]fetchOutcome, 0, len(work))
	for range work {
		outcomes = append(outcomes, <-results)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].rec.RollNumber < outcomes[j].rec.RollNumber
	})
	return outcomes
}

// loadProgressSeed collects each student's prior solved-count history so the
// fresh snapshot can extend the series instead of restarting it.
func (h *SyncGroupHandler) loadProgressSeed(ctx context.Context, groupName string) (map[int64]student.HistoryByDay, error) {
	combined, err := h.statsStore.CombinedByGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	seed := make(map[int64]student.HistoryByDay, len(combined))
	for _, c := range combined {
		if c.Stats != nil && len(c.Stats.LCProgressHistory) > 0 {
			seed[c.RollNumber] = c.Stats.LCProgressHistory
		}
	}
	return seed, nil
}

// extendProgressHistory appends today's total-solved count to the prior
// series. Snapshots without a solved count leave the series untouched.
func (h *SyncGroupHandler) extendProgressHistory(snapshot *student.Stats, prior student.HistoryByDay) {
	if snapshot.LCTotalSolved == nil {
		if len(prior) > 0 {
			snapshot.LCProgressHistory = prior
		}
		return
	}
	hist := make(student.HistoryByDay, len(prior)+1)
	for day, count := range prior {
		hist[day] = count
	}
	today := timeutil.DateOnly(h.now().UTC())
	hist[today] = *snapshot.LCTotalSolved
	snapshot.LCProgressHistory = hist
}

// isInactive reports whether the snapshot shows no recent LeetCode
// submission. Missing or unparseable dates count as inactive.
func (h *SyncGroupHandler) isInactive(snapshot *student.Stats) bool {
	if snapshot.LCLastSubmission == nil {
		return true
	}
	last, err := timeutil.ParseDateOnly(*snapshot.LCLastSubmission)
	if err != nil {
		return true
	}
	return timeutil.DaysSince(last, h.now().UTC()) > h.cfg.InactiveAfterDays
}

// upsertSnapshots writes the fetched snapshots in batches, retrying each
// batch on transient storage errors.
func (h *SyncGroupHandler) upsertSnapshots(ctx context.Context, groupName string, snapshots []*student.Stats) (int, []string) {
	retryCfg := retry.Config{
		MaxAttempts:  h.cfg.MaxRetries + 1,
		InitialDelay: h.cfg.RetryBaseDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}

	updated := 0
	var errs []string
	for start := 0; start < len(snapshots); start += h.cfg.BatchSize {
		end := start + h.cfg.BatchSize
		if end > len(snapshots) {
			end = len(snapshots)
		}
		batch := snapshots[start:end]

		err := retry.Do(ctx, retryCfg, func(ctx context.Context) error {
			return h.statsStore.UpsertBatch(ctx, groupName, batch)
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("upsert batch of %d: %v", len(batch), err))
			continue
		}
		updated += len(batch)
	}
	return updated, errs
}

// applyInactivityFlags flags inactive students and clears stale auto-flags
// for students who are active again. Only the engine's own reason is ever
// cleared; operator-written flags survive.
func (h *SyncGroupHandler) applyInactivityFlags(ctx context.Context, groupName string, toFlag, toClear []*student.Record, result *SyncGroupResult) (flagged, cleared int) {
	for _, rec := range toFlag {
		n := &notification.Notification{
			GroupName:  groupName,
			RollNumber: rec.RollNumber,
			Name:       rec.Name,
			Reason:     notification.ReasonInactiveLC,
		}
		if err := h.ledger.Upsert(ctx, n); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("flag roll=%d: %v", rec.RollNumber, err))
			continue
		}
		flagged++
	}
	for _, rec := range toClear {
		removed, err := h.ledger.RemoveWithReason(ctx, groupName, rec.RollNumber, notification.ReasonInactiveLC)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("unflag roll=%d: %v", rec.RollNumber, err))
			continue
		}
		cleared += int(removed)
	}
	return flagged, cleared
}

func hasLeetCode(rec *student.Record) bool {
	return rec.LeetCodeUsername != nil && strings.TrimSpace(*rec.LeetCodeUsername) != ""
}
