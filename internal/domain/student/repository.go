package student

import "context"

// Directory is the per-group roster store.
type Directory interface {
	// Upsert inserts the record or overwrites all fields of the existing row
	// with the same roll number. The group must be registered
	// (shared.ErrGroupNotFound otherwise).
	Upsert(ctx context.Context, rec *Record) (*Record, error)

	// GetAll returns the group's roster ordered by roll number. Callers
	// verify the group via the registry first; an unknown group reads as an
	// empty roster, not an error.
	GetAll(ctx context.Context, groupName string) ([]*Record, error)

	// GetByRoll returns one roster entry, or shared.ErrStudentNotFound.
	GetByRoll(ctx context.Context, groupName string, rollNumber int64) (*Record, error)
}

// StatsStore holds the fetched statistics snapshots.
type StatsStore interface {
	// UpsertBatch replaces the snapshots for the given roll numbers in the
	// group's stats store (full replace per row, not a merge).
	UpsertBatch(ctx context.Context, groupName string, snapshots []*Stats) error

	// CombinedByGroup returns the roster LEFT JOINed with stats, ordered by
	// roll number. Students without a snapshot yet appear with nil Stats.
	CombinedByGroup(ctx context.Context, groupName string) ([]*Combined, error)
}
