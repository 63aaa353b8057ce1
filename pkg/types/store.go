package types

import (
	"context"
	"time"
)

// ObjectStore is the persistence contract for found objects. Mutating
// operations are conditional: the WHERE-style predicate is re-checked by
// the store at commit time and the affected-record count is returned, so
// concurrent transitions on the same object race safely: exactly one
// conditional update wins. The store is the sole point of mutual
// exclusion; callers hold no locks.
type ObjectStore interface {
	// CreateObject persists a new object, minting its id, and returns it.
	CreateObject(ctx context.Context, obj Object) (Object, error)

	// GetObject returns the object with the given id, or ErrObjectNotFound.
	GetObject(ctx context.Context, id string) (Object, error)

	// FindObjects returns objects matching the filter, newest first.
	FindObjects(ctx context.Context, filter ObjectFilter) ([]Object, error)

	// SearchObjects returns objects matching the filter whose field-value
	// text is relevant to the query text, most relevant first.
	SearchObjects(ctx context.Context, filter ObjectFilter, text string) ([]Object, error)

	// ClaimObject applies a solicitation if the object is not DEVOLVED
	// and carries no live claim: either no applicant is recorded or the
	// existing claim was solicited before expiredBefore. Exactly one of
	// two concurrent claims can win.
	ClaimObject(ctx context.Context, id string, claim Claim, expiredBefore time.Time) (int64, error)

	// DevolveObject marks the object DEVOLVED if it is SOLICITED.
	DevolveObject(ctx context.Context, id string, at time.Time) (int64, error)

	// ReleaseObject clears the claim of the SOLICITED object carrying the
	// devolution code, provided the requester is its institution or its
	// current applicant. It returns the object as it was before the
	// clear, interested queue included, or nil when nothing matched.
	ReleaseObject(ctx context.Context, requesterID, devolutionCode string) (*Object, error)

	// AppendInterested queues a backup applicant on a SOLICITED object.
	// The append only applies while the object is claimed by somebody
	// else and the applicant is not already queued.
	AppendInterested(ctx context.Context, objectID string, entry Interested) (int64, error)

	// RemoveInterested pulls the applicant's entry from the queue.
	RemoveInterested(ctx context.Context, objectID, applicantID string) (int64, error)

	// UpdateObjectData rewrites the descriptive fields of an object owned
	// by the institution, unless it has been DEVOLVED. Returns the
	// updated object, or nil when nothing matched.
	UpdateObjectData(ctx context.Context, institutionID string, obj Object) (*Object, error)

	// DeleteObject removes an AVAILABLE object owned by the institution.
	DeleteObject(ctx context.Context, institutionID, objectID string) (int64, error)

	// Classification counts, used by category administration.
	CountByCategory(ctx context.Context, category string) (int64, error)
	CountByType(ctx context.Context, category, typ string) (int64, error)
	CountByField(ctx context.Context, category, fieldName string) (int64, error)
}

// NotificationStore is the persistence contract for want-notifications.
type NotificationStore interface {
	// CreateNotification persists a new notification, minting its id.
	CreateNotification(ctx context.Context, n Notification) (Notification, error)

	// NotificationsByEmail returns the owner's notifications, newest first.
	NotificationsByEmail(ctx context.Context, email string) ([]Notification, error)

	// SearchNotifications returns unfulfilled notifications wanting the
	// given category and type, whose found-date floor is at or before
	// foundDate, ranked by relevance of the query text against each
	// notification's field-value text, most relevant first.
	SearchNotifications(ctx context.Context, category, typ string, foundDate time.Time, text string) ([]Notification, error)

	// BindObjectFound fulfills a notification with the found object's id.
	// The bind only applies while the notification is unfulfilled.
	BindObjectFound(ctx context.Context, id, objectID string) (int64, error)

	// DeleteNotification removes a notification.
	DeleteNotification(ctx context.Context, id string) (int64, error)
}
