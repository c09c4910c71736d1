package postgres

import (
	"context"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/notification"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
)

// NotificationRepository implements notification.Ledger on the
// group_notifications table.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Upsert adds the notification, overwriting the reason when the student is
// already flagged in that group.
func (r *NotificationRepository) Upsert(ctx context.Context, n *notification.Notification) error {
	if err := notification.ValidateReason(n.Reason); err != nil {
		return err
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO group_notifications (group_name, roll_number, name, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (group_name, roll_number) DO UPDATE SET
			name       = EXCLUDED.name,
			reason     = EXCLUDED.reason,
			created_at = NOW()`,
		n.GroupName, n.RollNumber, n.Name, n.Reason)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrGroupNotFound
		}
		return storageErr("notification", "Upsert", err)
	}
	return nil
}

// Remove deletes the notification for (group, roll), returning the row count.
func (r *NotificationRepository) Remove(ctx context.Context, groupName string, rollNumber int64) (int64, error) {
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM group_notifications
		WHERE group_name = $1 AND roll_number = $2`, groupName, rollNumber)
	if err != nil {
		return 0, storageErr("notification", "Remove", err)
	}
	return tag.RowsAffected(), nil
}

// RemoveWithReason deletes the notification only when the stored reason is an
// exact match. The sync engine uses this so a manual flag edited by an
// operator survives the automatic clear.
func (r *NotificationRepository) RemoveWithReason(ctx context.Context, groupName string, rollNumber int64, reason string) (int64, error) {
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM group_notifications
		WHERE group_name = $1 AND roll_number = $2 AND reason = $3`,
		groupName, rollNumber, reason)
	if err != nil {
		return 0, storageErr("notification", "RemoveWithReason", err)
	}
	return tag.RowsAffected(), nil
}

// List returns every notification across all groups.
func (r *NotificationRepository) List(ctx context.Context) ([]*notification.Notification, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT group_name, roll_number, name, reason, created_at
		FROM group_notifications
		ORDER BY group_name, roll_number`)
	if err != nil {
		return nil, storageErr("notification", "List", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.GroupName, &n.RollNumber, &n.Name, &n.Reason, &n.CreatedAt); err != nil {
			return nil, storageErr("notification", "List", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
