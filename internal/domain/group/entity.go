// Package group models a logical tenant: a named cohort of students that owns
// one roster and, once provisioned, one stats store.
package group

import (
	"regexp"
	"strings"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
)

// DataSuffix is the historical naming convention for a group's stats store.
// It survives only at the API surface; storage uses a fixed schema.
const DataSuffix = "_Data"

// namePattern matches the group names the API accepts.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedNames are names that would collide with internal tables or the
// shared notification store.
var reservedNames = map[string]struct{}{
	"groups":              {},
	"group_students":      {},
	"group_stats":         {},
	"group_notifications": {},
	"schema_migrations":   {},
	"notification":        {},
	"update":              {},
}

// Group is a registered tenant.
type Group struct {
	// Name identifies the group. Unique, chosen by the caller.
	Name string

	// CreatedAt is when the group was registered.
	CreatedAt time.Time

	// StatsEnabledAt is when stats storage was provisioned for the group.
	// Nil while the group has a roster but no stats store yet.
	StatsEnabledAt *time.Time
}

// StatsEnabled reports whether the group's stats store has been provisioned.
func (g *Group) StatsEnabled() bool {
	return g.StatsEnabledAt != nil
}

// DataTableName returns the group's stats store name as exposed by the API.
func (g *Group) DataTableName() string {
	return g.Name + DataSuffix
}

// ValidateName checks that a group name is acceptable.
func ValidateName(name string) error {
	if name == "" {
		return shared.ErrInvalidGroupName
	}
	if !namePattern.MatchString(name) {
		return shared.ErrInvalidGroupName
	}
	if strings.HasSuffix(name, DataSuffix) {
		return shared.ErrReservedGroupName
	}
	if _, reserved := reservedNames[strings.ToLower(name)]; reserved {
		return shared.ErrReservedGroupName
	}
	return nil
}

// LastUpdate describes the freshest sync timestamp for a group.
type LastUpdate struct {
	// GroupName identifies the group.
	GroupName string

	// ChangedAt is the maximum last_fetched across the group's stats rows.
	// Nil means the group has never been synced.
	ChangedAt *time.Time
}
