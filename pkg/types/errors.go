package types

import "errors"

// Validation errors for incoming data.
var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidStatus      = errors.New("invalid object status")
	ErrMissingCategory    = errors.New("object category must not be empty")
	ErrMissingType        = errors.New("object type must not be empty")
	ErrMissingInstitution = errors.New("object institution must not be empty")
	ErrMissingEmail       = errors.New("email must not be empty")
)

// Lifecycle errors. Every failed transition reports one of these; a
// conditional update that affects zero records means the precondition no
// longer held at commit time, and the corresponding *Failed error is
// returned without assuming which precondition changed.
var (
	ErrObjectNotFound     = errors.New("object not found, check the provided information")
	ErrRepeatSolicitation = errors.New("object can only be solicited once")
	ErrObjectDevolved     = errors.New("cannot solicit an object that was already devolved")
	ErrSolicitationActive = errors.New("cannot claim the object while the solicitation period has not expired")
	ErrSolicitFailed      = errors.New("could not solicit object, check the object information")
	ErrDevolveFailed      = errors.New("could not devolve object, check whether it was already devolved")
	ErrCancelFailed       = errors.New("could not cancel solicitation, check the devolution code")
	ErrInterestNotAdded   = errors.New("could not register interest in the object")
	ErrInterestNotRemoved = errors.New("could not cancel interest in the object")
	ErrObjectNotUpdated   = errors.New("could not update object data")
	ErrObjectNotDeleted   = errors.New("could not delete object, check that it exists and is available")
)

// Notification inbox errors.
var (
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrNotificationNotDeleted = errors.New("could not delete notification")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
