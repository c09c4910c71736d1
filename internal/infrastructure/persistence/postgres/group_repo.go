package postgres

import (
	"context"
	"fmt"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
)

// GroupRepository implements group.Registry on the groups table.
type GroupRepository struct {
	conn *Connection
}

// NewGroupRepository creates a new group repository.
func NewGroupRepository(conn *Connection) *GroupRepository {
	return &GroupRepository{conn: conn}
}

// EnsureGroup registers a group name. It returns true when the group was
// created by this call and false when it already existed.
func (r *GroupRepository) EnsureGroup(ctx context.Context, name string) (bool, error) {
	if err := group.ValidateName(name); err != nil {
		return false, err
	}

	tag, err := r.conn.Exec(ctx, `
		INSERT INTO groups (name, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, storageErr("group", "EnsureGroup", err)
	}
	return tag.RowsAffected() > 0, nil
}

// EnsureStats marks stats collection enabled for a group. The group row is
// created if missing, so a stats table can be requested before the roster
// table. Returns true when stats were enabled by this call.
func (r *GroupRepository) EnsureStats(ctx context.Context, name string) (bool, error) {
	if err := group.ValidateName(name); err != nil {
		return false, err
	}

	tag, err := r.conn.Exec(ctx, `
		UPDATE groups SET stats_enabled_at = NOW()
		WHERE name = $1 AND stats_enabled_at IS NULL`, name)
	if err != nil {
		return false, storageErr("group", "EnsureStats", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Either the group does not exist yet or stats are already enabled.
	tag, err = r.conn.Exec(ctx, `
		INSERT INTO groups (name, created_at, stats_enabled_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, storageErr("group", "EnsureStats", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Get fetches a group by name.
func (r *GroupRepository) Get(ctx context.Context, name string) (*group.Group, error) {
	var g group.Group
	err := r.conn.QueryRow(ctx, `
		SELECT name, created_at, stats_enabled_at
		FROM groups WHERE name = $1`, name).
		Scan(&g.Name, &g.CreatedAt, &g.StatsEnabledAt)
	if IsNoRows(err) {
		return nil, shared.ErrGroupNotFound
	}
	if err != nil {
		return nil, storageErr("group", "Get", err)
	}
	return &g, nil
}

// Exists reports whether a group is registered.
func (r *GroupRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM groups WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, storageErr("group", "Exists", err)
	}
	return exists, nil
}

// StatsEnabled reports whether stats collection is enabled for a group.
func (r *GroupRepository) StatsEnabled(ctx context.Context, name string) (bool, error) {
	var enabled bool
	err := r.conn.QueryRow(ctx, `
		SELECT stats_enabled_at IS NOT NULL
		FROM groups WHERE name = $1`, name).Scan(&enabled)
	if IsNoRows(err) {
		return false, shared.ErrGroupNotFound
	}
	if err != nil {
		return false, storageErr("group", "StatsEnabled", err)
	}
	return enabled, nil
}

// ListNames returns all registered group names in creation order.
func (r *GroupRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT name FROM groups ORDER BY created_at, name`)
	if err != nil {
		return nil, storageErr("group", "ListNames", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, storageErr("group", "ListNames", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// LastUpdatePerGroup returns, for every group with stats enabled, the most
// recent stats fetch time, or a nil time when no stats row exists yet.
func (r *GroupRepository) LastUpdatePerGroup(ctx context.Context) ([]group.LastUpdate, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT g.name, MAX(s.last_fetched)
		FROM groups g
		LEFT JOIN group_stats s ON s.group_name = g.name
		WHERE g.stats_enabled_at IS NOT NULL
		GROUP BY g.name
		ORDER BY MAX(s.last_fetched) DESC NULLS LAST, g.name`)
	if err != nil {
		return nil, storageErr("group", "LastUpdatePerGroup", err)
	}
	defer rows.Close()

	out := make([]group.LastUpdate, 0)
	for rows.Next() {
		var lu group.LastUpdate
		if err := rows.Scan(&lu.GroupName, &lu.ChangedAt); err != nil {
			return nil, storageErr("group", "LastUpdatePerGroup", err)
		}
		out = append(out, lu)
	}
	return out, rows.Err()
}

func storageErr(domain, op string, err error) error {
	return shared.WrapError(domain, op, shared.ErrStorage, fmt.Sprintf("storage operation failed: %v", err), err)
}
