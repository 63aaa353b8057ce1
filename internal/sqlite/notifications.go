// This file implements the notification inbox store: registration,
// per-owner listing, the matching query used by the matching engine, and
// the conditional bind that fulfills a notification.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civicworks/reclaim/pkg/types"
)

// Compile-time interface check: notificationStore must implement
// NotificationStore.
var _ types.NotificationStore = (*notificationStore)(nil)

// notificationStore implements types.NotificationStore over the
// backend's database.
type notificationStore struct {
	backend *Backend
}

const notificationColumns = `notification_id, email, category, type, found_date,
    fields, object_found, created_at`

// CreateNotification persists a new notification with a minted UUID v7 id.
func (ns *notificationStore) CreateNotification(ctx context.Context, n types.Notification) (types.Notification, error) {
	if err := n.Validate(); err != nil {
		return types.Notification{}, err
	}

	n.ID = generateUUID()
	n.CreatedAt = time.Now().UTC()

	fields, err := json.Marshal(n.ObjectToFind.Fields)
	if err != nil {
		return types.Notification{}, fmt.Errorf("encoding fields: %w", err)
	}

	_, err = ns.backend.db.ExecContext(ctx,
		`INSERT INTO notifications (notification_id, email, category, type,
		     found_date, fields, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Email, n.ObjectToFind.Category, n.ObjectToFind.Type,
		formatTime(n.ObjectToFind.FoundDate), string(fields), formatTime(n.CreatedAt),
	)
	if err != nil {
		return types.Notification{}, fmt.Errorf("creating notification: %w", err)
	}

	return n, nil
}

// NotificationsByEmail returns the owner's notifications, newest first.
func (ns *notificationStore) NotificationsByEmail(ctx context.Context, email string) ([]types.Notification, error) {
	if email == "" {
		return nil, types.ErrMissingEmail
	}

	rows, err := ns.backend.db.QueryContext(ctx,
		"SELECT "+notificationColumns+` FROM notifications
		 WHERE email = ? ORDER BY created_at DESC, rowid DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("finding notifications: %w", err)
	}
	return scanNotifications(rows)
}

// SearchNotifications returns unfulfilled notifications wanting the
// given classification whose found-date floor is at or before foundDate,
// ranked by relevance of the query text, most relevant first.
// Notifications with no overlapping token are excluded.
func (ns *notificationStore) SearchNotifications(ctx context.Context, category, typ string, foundDate time.Time, text string) ([]types.Notification, error) {
	rows, err := ns.backend.db.QueryContext(ctx,
		"SELECT "+notificationColumns+` FROM notifications
		 WHERE category = ? AND type = ? AND found_date <= ?
		   AND (object_found IS NULL OR object_found = '')`,
		category, typ, formatTime(foundDate),
	)
	if err != nil {
		return nil, fmt.Errorf("searching notifications: %w", err)
	}
	candidates, err := scanNotifications(rows)
	if err != nil {
		return nil, err
	}

	ranked := make([]scored[types.Notification], 0, len(candidates))
	for _, n := range candidates {
		score := relevance(n.ObjectToFind.SearchText(), text)
		if score > 0 {
			ranked = append(ranked, scored[types.Notification]{value: n, score: score})
		}
	}
	return sortByScore(ranked), nil
}

// BindObjectFound fulfills a notification with the found object's id.
// Only applies while the notification is unfulfilled, so a fulfilled
// notification is never rebound.
func (ns *notificationStore) BindObjectFound(ctx context.Context, id, objectID string) (int64, error) {
	if id == "" || objectID == "" {
		return 0, types.ErrInvalidID
	}

	res, err := ns.backend.db.ExecContext(ctx,
		`UPDATE notifications SET object_found = ?
		 WHERE notification_id = ? AND (object_found IS NULL OR object_found = '')`,
		objectID, id,
	)
	if err != nil {
		return 0, fmt.Errorf("binding found object: %w", err)
	}
	return res.RowsAffected()
}

// DeleteNotification removes a notification.
func (ns *notificationStore) DeleteNotification(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, types.ErrInvalidID
	}

	res, err := ns.backend.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE notification_id = ?", id,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting notification: %w", err)
	}
	return res.RowsAffected()
}

// scanNotifications drains and closes a notifications result set.
func scanNotifications(rows *sql.Rows) ([]types.Notification, error) {
	defer rows.Close()

	var notifications []types.Notification
	for rows.Next() {
		var n types.Notification
		var fields, foundDate, createdAt string
		var objectFound sql.NullString

		err := rows.Scan(&n.ID, &n.Email, &n.ObjectToFind.Category,
			&n.ObjectToFind.Type, &foundDate, &fields, &objectFound, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &n.ObjectToFind.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields: %w", err)
		}

		n.ObjectToFind.FoundDate = parseTime(foundDate)
		n.CreatedAt = parseTime(createdAt)
		if objectFound.Valid {
			n.ObjectFound = objectFound.String
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
