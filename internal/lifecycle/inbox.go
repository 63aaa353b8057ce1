// Notification inbox operations: applicants file standing wants that
// the matching engine later fulfills.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/civicworks/reclaim/pkg/types"
)

// RegisterNotification files a standing want for an applicant.
func (s *Service) RegisterNotification(ctx context.Context, n types.Notification) (types.Notification, error) {
	return s.notifications.CreateNotification(ctx, n)
}

// NotificationsFor lists an owner's notifications, fulfilled ones
// included.
func (s *Service) NotificationsFor(ctx context.Context, email string) ([]types.Notification, error) {
	return s.notifications.NotificationsByEmail(ctx, email)
}

// DeleteNotification removes a notification. Ownership is enforced by
// the request layer.
func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	affected, err := s.notifications.DeleteNotification(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if affected == 0 {
		return types.ErrNotificationNotDeleted
	}
	return nil
}
