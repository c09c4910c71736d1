package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

// ViewInvalidator drops a group's cached combined view after a write. The
// Redis implementation satisfies this; a no-op is used when Redis is off.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, groupName string)
}

// NoopInvalidator satisfies ViewInvalidator without a cache.
type NoopInvalidator struct{}

// Invalidate does nothing.
func (NoopInvalidator) Invalidate(context.Context, string) {}

// UpsertStudentCommand inserts or fully replaces one roster entry.
type UpsertStudentCommand struct {
	GroupName        string
	RollNumber       int64
	Name             string
	GitHubUsername   *string
	LeetCodeUsername *string
}

// Validate validates the command.
func (c UpsertStudentCommand) Validate() error {
	if err := group.ValidateName(c.GroupName); err != nil {
		return err
	}
	rec := c.record()
	return rec.Validate()
}

func (c UpsertStudentCommand) record() *student.Record {
	return &student.Record{
		GroupName:        c.GroupName,
		RollNumber:       c.RollNumber,
		Name:             strings.TrimSpace(c.Name),
		GitHubUsername:   c.GitHubUsername,
		LeetCodeUsername: c.LeetCodeUsername,
	}
}

// UpsertStudentHandler handles roster upserts.
type UpsertStudentHandler struct {
	directory   student.Directory
	invalidator ViewInvalidator
}

// NewUpsertStudentHandler creates a new handler.
func NewUpsertStudentHandler(directory student.Directory, invalidator ViewInvalidator) *UpsertStudentHandler {
	if invalidator == nil {
		invalidator = NoopInvalidator{}
	}
	return &UpsertStudentHandler{directory: directory, invalidator: invalidator}
}

// Handle upserts the record and invalidates the group's cached view.
func (h *UpsertStudentHandler) Handle(ctx context.Context, cmd UpsertStudentCommand) (*student.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, err := h.directory.Upsert(ctx, cmd.record())
	if err != nil {
		return nil, fmt.Errorf("upsert_student: %w", err)
	}

	h.invalidator.Invalidate(ctx, cmd.GroupName)
	return rec, nil
}
