// Package lifecycle implements the object lifecycle engine: registration
// and queries, the solicitation state machine with its expiry window and
// interested-applicant cascade, and the notification inbox operations.
// All mutating transitions are expressed as conditional updates against
// the record store; the store is the only point of mutual exclusion.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/civicworks/reclaim/pkg/types"
)

// Matcher checks a newly registered object against outstanding
// want-notifications. Implemented by internal/match.
type Matcher interface {
	Check(ctx context.Context, obj types.Object) error
}

// Role identifies which side of the counter a user is on.
type Role string

// User roles.
const (
	RoleInstitution Role = "institution"
	RoleApplicant   Role = "applicant"
)

// Applicant identifies the user performing a solicitation. Email and
// Name come from the authenticated request and are only used for the
// confirmation dispatch; ID is what the lifecycle records.
type Applicant struct {
	ID    string
	Name  string
	Email string
}

// Service exposes the lifecycle operations. It consumes the store and
// dispatcher contracts and holds no state of its own beyond wiring.
type Service struct {
	objects       types.ObjectStore
	notifications types.NotificationStore
	dispatcher    types.Dispatcher
	matcher       Matcher
	log           *log.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMatcher sets the matching engine invoked after each registration.
func WithMatcher(m Matcher) Option {
	return func(s *Service) { s.matcher = m }
}

// WithLogger sets the logger used by best-effort paths (matching,
// cascade, dispatch hand-off).
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the time source. Used by tests to probe the
// expiry boundary.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a lifecycle service.
func New(objects types.ObjectStore, notifications types.NotificationStore, dispatcher types.Dispatcher, opts ...Option) *Service {
	s := &Service{
		objects:       objects,
		notifications: notifications,
		dispatcher:    dispatcher,
		log:           log.New(io.Discard, "", 0),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterObject persists a new found object and triggers the matching
// engine in the background. Matching is best-effort: its outcome, error
// or not, never reaches the registering institution.
func (s *Service) RegisterObject(ctx context.Context, obj types.Object) (types.Object, error) {
	created, err := s.objects.CreateObject(ctx, obj)
	if err != nil {
		return types.Object{}, err
	}

	if s.matcher != nil {
		go func() {
			// Detached from the request: registration has already
			// succeeded by the time matching runs.
			if err := s.matcher.Check(context.Background(), created); err != nil {
				s.log.Printf("lifecycle: matching object %s: %v", created.ID, err)
			}
		}()
	}

	return created, nil
}

// SearchObjects returns objects matching the filter. When fields are
// given, their values are joined into a search text and results are
// ranked by relevance; otherwise it is a plain filtered listing.
// Devolution codes are stripped from the listing.
func (s *Service) SearchObjects(ctx context.Context, filter types.ObjectFilter, fields []types.Field) ([]types.Object, error) {
	text := (&types.Object{Fields: fields}).SearchText()

	var objects []types.Object
	var err error
	if text != "" {
		objects, err = s.objects.SearchObjects(ctx, filter, text)
	} else {
		objects, err = s.objects.FindObjects(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	for i := range objects {
		redactCode(&objects[i])
	}
	return objects, nil
}

// ObjectsForUser returns the objects related to a user on either side of
// the counter, optionally narrowed by devolution code and status.
func (s *Service) ObjectsForUser(ctx context.Context, role Role, userID, devolutionCode string, status *types.ObjectStatus) ([]types.Object, error) {
	filter := types.ObjectFilter{DevolutionCode: devolutionCode, Status: status}
	switch role {
	case RoleInstitution:
		filter.Institution = userID
	case RoleApplicant:
		filter.Applicant = userID
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return s.objects.FindObjects(ctx, filter)
}

// ObjectsForInterested returns the objects an applicant is queued on,
// optionally narrowed by status. Claims and queues belong to other
// applicants, so they are stripped from the listing.
func (s *Service) ObjectsForInterested(ctx context.Context, applicantID string, status *types.ObjectStatus) ([]types.Object, error) {
	objects, err := s.objects.FindObjects(ctx, types.ObjectFilter{
		Interested: applicantID,
		Status:     status,
	})
	if err != nil {
		return nil, err
	}

	for i := range objects {
		objects[i].Claim = nil
		objects[i].InterestedApplicants = nil
	}
	return objects, nil
}

// UpdateObject rewrites an object's descriptive data on behalf of its
// owning institution. Devolved objects are frozen.
func (s *Service) UpdateObject(ctx context.Context, institutionID string, obj types.Object) (types.Object, error) {
	updated, err := s.objects.UpdateObjectData(ctx, institutionID, obj)
	if err != nil {
		return types.Object{}, fmt.Errorf("updating object: %w", err)
	}
	if updated == nil {
		return types.Object{}, types.ErrObjectNotUpdated
	}
	return *updated, nil
}

// DeleteObject removes an object, allowed only while it is AVAILABLE and
// only for the institution that registered it.
func (s *Service) DeleteObject(ctx context.Context, institutionID, objectID string) error {
	affected, err := s.objects.DeleteObject(ctx, institutionID, objectID)
	if err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}
	if affected == 0 {
		return types.ErrObjectNotDeleted
	}
	return nil
}

// CountObjects reports how many objects sit in a category, optionally
// narrowed to a type or to objects carrying a named field. Type and
// field narrow independently; type wins when both are given.
func (s *Service) CountObjects(ctx context.Context, category, typ, fieldName string) (int64, error) {
	switch {
	case typ != "":
		return s.objects.CountByType(ctx, category, typ)
	case fieldName != "":
		return s.objects.CountByField(ctx, category, fieldName)
	default:
		return s.objects.CountByCategory(ctx, category)
	}
}

// redactCode removes the devolution code from a listing view. The claim
// itself stays visible so callers can see the object is taken.
func redactCode(obj *types.Object) {
	if obj.Claim != nil {
		claim := *obj.Claim
		claim.DevolutionCode = ""
		obj.Claim = &claim
	}
}
