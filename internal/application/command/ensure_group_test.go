package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
)

func TestEnsureGroupCreatesOnce(t *testing.T) {
	registry := newFakeRegistry()
	h := NewEnsureGroupHandler(registry)

	res, err := h.Handle(context.Background(), EnsureGroupCommand{Name: "cs23"})
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = h.Handle(context.Background(), EnsureGroupCommand{Name: "cs23"})
	require.NoError(t, err)
	assert.False(t, res.Created, "second registration is a conflict, not an error")
}

func TestEnsureGroupRejectsBadName(t *testing.T) {
	h := NewEnsureGroupHandler(newFakeRegistry())

	for _, name := range []string{"", "drop table", "cs-23!", "schema_migrations"} {
		_, err := h.Handle(context.Background(), EnsureGroupCommand{Name: name})
		assert.Error(t, err, "name %q must be rejected", name)
		assert.True(t, shared.IsValidation(err), "name %q: want validation error, got %v", name, err)
	}
}

func TestEnsureStatsRegistersGroupIfMissing(t *testing.T) {
	registry := newFakeRegistry()
	h := NewEnsureStatsHandler(registry)

	res, err := h.Handle(context.Background(), EnsureStatsCommand{Name: "cs23"})
	require.NoError(t, err)
	assert.True(t, res.Created)

	enabled, err := registry.StatsEnabled(context.Background(), "cs23")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestEnsureStatsIdempotent(t *testing.T) {
	registry := newFakeRegistry()
	registry.addGroup("cs23", false)
	h := NewEnsureStatsHandler(registry)

	res, err := h.Handle(context.Background(), EnsureStatsCommand{Name: "cs23"})
	require.NoError(t, err)
	assert.True(t, res.Created, "first enablement on existing group")

	res, err = h.Handle(context.Background(), EnsureStatsCommand{Name: "cs23"})
	require.NoError(t, err)
	assert.False(t, res.Created)
}
