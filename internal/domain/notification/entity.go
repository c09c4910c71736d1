// Package notification models persistent per-student flags with a free-text
// reason, shared across all groups.
package notification

import (
	"context"
	"strings"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
)

// ReasonInactiveLC is the reason attached automatically by the sync engine
// when a student has no recent LeetCode submission.
const ReasonInactiveLC = "No LC submission in last 3 days"

// MaxReasonLen bounds the free-text reason.
const MaxReasonLen = 1024

// Notification flags one student in one group.
type Notification struct {
	GroupName  string    `json:"table_name"`
	RollNumber int64     `json:"rollnumber"`
	Name       string    `json:"name"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidateReason checks the reason text.
func ValidateReason(reason string) error {
	r := strings.TrimSpace(reason)
	if r == "" {
		return shared.ErrEmptyReason
	}
	if len(r) > MaxReasonLen {
		return shared.WrapError("notification", "Validate", shared.ErrValidation,
			"reason too long", nil)
	}
	return nil
}

// Ledger is the notification store. Upsert semantics: one active notification
// per (group, roll); a second add overwrites the reason.
type Ledger interface {
	// Upsert adds or overwrites the notification for (GroupName, RollNumber).
	Upsert(ctx context.Context, n *Notification) error

	// Remove deletes the notification if present and returns the number of
	// rows removed (0 is not an error).
	Remove(ctx context.Context, groupName string, rollNumber int64) (int64, error)

	// RemoveWithReason deletes only if the stored reason matches exactly.
	// Used by the sync engine to clear its own stale auto-flags.
	RemoveWithReason(ctx context.Context, groupName string, rollNumber int64, reason string) (int64, error)

	// List returns all notifications ordered by (group, roll).
	List(ctx context.Context) ([]*Notification, error)
}
