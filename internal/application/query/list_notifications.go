package query

import (
	"context"
	"fmt"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/notification"
)

// ListNotificationsHandler serves the full notification ledger.
type ListNotificationsHandler struct {
	ledger notification.Ledger
}

// NewListNotificationsHandler creates a new handler.
func NewListNotificationsHandler(ledger notification.Ledger) *ListNotificationsHandler {
	return &ListNotificationsHandler{ledger: ledger}
}

// Handle returns every flag across all groups, ordered by (group, roll).
func (h *ListNotificationsHandler) Handle(ctx context.Context) ([]*notification.Notification, error) {
	list, err := h.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_notifications: %w", err)
	}
	return list, nil
}
