package query

import (
	"context"
	"fmt"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/pkg/timeutil"
)

// LastUpdateEntry reports when a group's stats were last refreshed. The
// timestamp is rendered in IST with millisecond precision, matching the
// dashboards that consume this endpoint.
type LastUpdateEntry struct {
	GroupName string `json:"table_name"`
	ChangedAt string `json:"changed_at"`
}

// LastUpdateHandler serves per-group last-sync times.
type LastUpdateHandler struct {
	registry group.Registry
}

// NewLastUpdateHandler creates a new handler.
func NewLastUpdateHandler(registry group.Registry) *LastUpdateHandler {
	return &LastUpdateHandler{registry: registry}
}

// Handle returns one entry per synced group, most recent first. Groups whose
// stats store is still empty are omitted.
func (h *LastUpdateHandler) Handle(ctx context.Context) ([]LastUpdateEntry, error) {
	updates, err := h.registry.LastUpdatePerGroup(ctx)
	if err != nil {
		return nil, fmt.Errorf("last_update: %w", err)
	}

	entries := make([]LastUpdateEntry, 0, len(updates))
	for _, u := range updates {
		if u.ChangedAt == nil {
			continue
		}
		entries = append(entries, LastUpdateEntry{
			GroupName: u.GroupName,
			ChangedAt: timeutil.FormatMillis(timeutil.ToIST(*u.ChangedAt)),
		})
	}
	return entries, nil
}
