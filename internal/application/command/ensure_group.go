// Package command contains the write operations of the service: group
// registration, roster upserts, sync runs, and notification changes.
package command

import (
	"context"
	"fmt"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
)

// EnsureGroupCommand registers a group's roster table.
type EnsureGroupCommand struct {
	// Name is the group name, validated against the identifier pattern.
	Name string
}

// Validate validates the command.
func (c EnsureGroupCommand) Validate() error {
	return group.ValidateName(c.Name)
}

// EnsureGroupResult reports whether this call created the group.
type EnsureGroupResult struct {
	Name    string
	Created bool
}

// EnsureGroupHandler handles group registration.
type EnsureGroupHandler struct {
	registry group.Registry
}

// NewEnsureGroupHandler creates a new handler.
func NewEnsureGroupHandler(registry group.Registry) *EnsureGroupHandler {
	return &EnsureGroupHandler{registry: registry}
}

// Handle registers the group. Created is false when it already existed; the
// HTTP layer turns that into a conflict response.
func (h *EnsureGroupHandler) Handle(ctx context.Context, cmd EnsureGroupCommand) (*EnsureGroupResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	created, err := h.registry.EnsureGroup(ctx, cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("ensure_group: %w", err)
	}
	return &EnsureGroupResult{Name: cmd.Name, Created: created}, nil
}

// EnsureStatsCommand enables stats collection for a group.
type EnsureStatsCommand struct {
	Name string
}

// Validate validates the command.
func (c EnsureStatsCommand) Validate() error {
	return group.ValidateName(c.Name)
}

// EnsureStatsResult reports whether this call enabled stats.
type EnsureStatsResult struct {
	Name    string
	Created bool
}

// EnsureStatsHandler handles enabling stats collection.
type EnsureStatsHandler struct {
	registry group.Registry
}

// NewEnsureStatsHandler creates a new handler.
func NewEnsureStatsHandler(registry group.Registry) *EnsureStatsHandler {
	return &EnsureStatsHandler{registry: registry}
}

// Handle enables stats for the group, registering the group first if needed.
func (h *EnsureStatsHandler) Handle(ctx context.Context, cmd EnsureStatsCommand) (*EnsureStatsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	created, err := h.registry.EnsureStats(ctx, cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("ensure_stats: %w", err)
	}
	return &EnsureStatsResult{Name: cmd.Name, Created: created}, nil
}
