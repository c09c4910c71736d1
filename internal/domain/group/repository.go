package group

import (
	"context"
	"time"
)

// Registry tracks which groups exist and whether their stats stores are
// provisioned. Implementations must be safe for concurrent use; Ensure
// operations are idempotent.
type Registry interface {
	// EnsureGroup registers a group. Returns true if the group was newly
	// created, false if it already existed. Never an error for the
	// already-exists case.
	EnsureGroup(ctx context.Context, name string) (created bool, err error)

	// EnsureStats provisions stats storage for a group, registering the group
	// first if needed. Returns true if stats were newly enabled.
	EnsureStats(ctx context.Context, name string) (created bool, err error)

	// Get returns the group, or shared.ErrGroupNotFound.
	Get(ctx context.Context, name string) (*Group, error)

	// Exists reports whether the group is registered.
	Exists(ctx context.Context, name string) (bool, error)

	// StatsEnabled reports whether the group's stats store is provisioned.
	StatsEnabled(ctx context.Context, name string) (bool, error)

	// ListNames returns all registered group names in lexical order.
	ListNames(ctx context.Context) ([]string, error)

	// LastUpdatePerGroup returns, for each stats-enabled group, the maximum
	// last_fetched across its rows (nil ChangedAt if never synced), most
	// recent first.
	LastUpdatePerGroup(ctx context.Context) ([]LastUpdate, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock uses the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
