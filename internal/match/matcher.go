// Package match implements the want/found matching engine. Each newly
// registered object is checked once against the outstanding
// notifications; the best match, if any, is bound to the object and its
// owner is told by email. Matching is background work: it never blocks
// and never fails the registration that triggered it.
package match

import (
	"context"
	"fmt"

	"github.com/civicworks/reclaim/pkg/types"
)

// Matcher binds newly found objects to outstanding notifications.
type Matcher struct {
	notifications types.NotificationStore
	dispatcher    types.Dispatcher
}

// New constructs a matcher.
func New(notifications types.NotificationStore, dispatcher types.Dispatcher) *Matcher {
	return &Matcher{notifications: notifications, dispatcher: dispatcher}
}

// Check searches the outstanding notifications for the best match on
// the object's classification, found date, and field-value text, and
// fulfills it. No match is a legitimate outcome, not an error. At most
// one notification is bound per object, and a notification that was
// fulfilled concurrently is left alone.
func (m *Matcher) Check(ctx context.Context, obj types.Object) error {
	text := obj.SearchText()
	if text == "" {
		return nil
	}

	candidates, err := m.notifications.SearchNotifications(ctx, obj.Category, obj.Type, obj.FoundDate, text)
	if err != nil {
		return fmt.Errorf("searching notifications: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	affected, err := m.notifications.BindObjectFound(ctx, best.ID, obj.ID)
	if err != nil {
		return fmt.Errorf("binding object to notification: %w", err)
	}
	if affected == 0 {
		// Fulfilled by a concurrent registration; nothing to announce.
		return nil
	}

	m.dispatcher.Send(types.DispatchNotification, best.Email, map[string]string{
		"category": best.ObjectToFind.Category,
		"type":     best.ObjectToFind.Type,
	})
	return nil
}
