package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
)

// ListGroupsHandler serves the list of registered group names.
type ListGroupsHandler struct {
	registry group.Registry
}

// NewListGroupsHandler creates a new handler.
func NewListGroupsHandler(registry group.Registry) *ListGroupsHandler {
	return &ListGroupsHandler{registry: registry}
}

// Handle returns all group names sorted alphabetically.
func (h *ListGroupsHandler) Handle(ctx context.Context) ([]string, error) {
	names, err := h.registry.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_groups: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
