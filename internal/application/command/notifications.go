package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/notification"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

// AddNotificationCommand flags a student with a reason.
type AddNotificationCommand struct {
	GroupName  string
	RollNumber int64
	Reason     string
}

// Validate validates the command.
func (c AddNotificationCommand) Validate() error {
	if err := group.ValidateName(c.GroupName); err != nil {
		return err
	}
	if c.RollNumber < 0 {
		return shared.ErrInvalidStudent
	}
	return notification.ValidateReason(c.Reason)
}

// AddNotificationHandler handles explicit flag additions.
type AddNotificationHandler struct {
	registry  group.Registry
	directory student.Directory
	ledger    notification.Ledger
}

// NewAddNotificationHandler creates a new handler.
func NewAddNotificationHandler(registry group.Registry, directory student.Directory, ledger notification.Ledger) *AddNotificationHandler {
	return &AddNotificationHandler{registry: registry, directory: directory, ledger: ledger}
}

// Handle flags the student. The roster entry must exist so the stored flag
// carries the student's name.
func (h *AddNotificationHandler) Handle(ctx context.Context, cmd AddNotificationCommand) (*notification.Notification, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	exists, err := h.registry.Exists(ctx, cmd.GroupName)
	if err != nil {
		return nil, fmt.Errorf("add_notification: %w", err)
	}
	if !exists {
		return nil, shared.ErrGroupNotFound
	}

	rec, err := h.directory.GetByRoll(ctx, cmd.GroupName, cmd.RollNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("add_notification: %w", err)
	}

	n := &notification.Notification{
		GroupName:  cmd.GroupName,
		RollNumber: cmd.RollNumber,
		Name:       rec.Name,
		Reason:     cmd.Reason,
	}
	if err := h.ledger.Upsert(ctx, n); err != nil {
		return nil, fmt.Errorf("add_notification: %w", err)
	}
	return n, nil
}

// RemoveNotificationCommand clears a student's flag.
type RemoveNotificationCommand struct {
	GroupName  string
	RollNumber int64
}

// Validate validates the command.
func (c RemoveNotificationCommand) Validate() error {
	if err := group.ValidateName(c.GroupName); err != nil {
		return err
	}
	if c.RollNumber < 0 {
		return shared.ErrInvalidStudent
	}
	return nil
}

// RemoveNotificationResult reports how many flags were removed. Zero is a
// normal outcome, not an error.
type RemoveNotificationResult struct {
	Removed int64
}

// RemoveNotificationHandler handles explicit flag removals.
type RemoveNotificationHandler struct {
	ledger notification.Ledger
}

// NewRemoveNotificationHandler creates a new handler.
func NewRemoveNotificationHandler(ledger notification.Ledger) *RemoveNotificationHandler {
	return &RemoveNotificationHandler{ledger: ledger}
}

// Handle removes the flag if present.
func (h *RemoveNotificationHandler) Handle(ctx context.Context, cmd RemoveNotificationCommand) (*RemoveNotificationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	removed, err := h.ledger.Remove(ctx, cmd.GroupName, cmd.RollNumber)
	if err != nil {
		return nil, fmt.Errorf("remove_notification: %w", err)
	}
	return &RemoveNotificationResult{Removed: removed}, nil
}
