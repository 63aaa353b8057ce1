// Solicitation, devolution, cancellation with cascade, and the
// interested-applicant queue.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/civicworks/reclaim/pkg/types"
)

// solicitationExpiryDays is the exclusivity window of a solicitation.
// Expiry is date-granular: a claim made on day D blocks other
// applicants through the end of day D+3.
const solicitationExpiryDays = 3

// Solicit claims an object for an applicant and returns the devolution
// code. When the applicant has an email, a confirmation carrying the
// code is dispatched.
func (s *Service) Solicit(ctx context.Context, applicant Applicant, objectID string) (string, error) {
	code, err := s.solicit(ctx, applicant.ID, objectID)
	if err != nil {
		return "", err
	}

	if applicant.Email != "" {
		s.dispatcher.Send(types.DispatchSolicitObject, applicant.Email, map[string]string{
			"name":           applicant.Name,
			"devolutionCode": code,
		})
	}
	return code, nil
}

// solicit runs the claim itself. Preconditions are checked in order,
// each with its own failure, then the claim is applied conditionally:
// the store re-checks at commit time that the object is still claimable,
// so of two concurrent claims exactly one wins.
func (s *Service) solicit(ctx context.Context, applicantID, objectID string) (string, error) {
	obj, err := s.objects.GetObject(ctx, objectID)
	if err != nil {
		return "", err
	}

	if obj.Claim != nil && obj.Claim.Applicant == applicantID {
		return "", types.ErrRepeatSolicitation
	}
	if obj.Status == types.StatusDevolved {
		return "", types.ErrObjectDevolved
	}
	if obj.Claim != nil && !s.solicitationExpired(obj.Claim.SolicitedAt) {
		return "", types.ErrSolicitationActive
	}

	code := GenerateCode(objectID)
	claim := types.Claim{
		Applicant:      applicantID,
		DevolutionCode: code,
		SolicitedAt:    s.now(),
	}

	affected, err := s.objects.ClaimObject(ctx, objectID, claim, s.expiredBefore())
	if err != nil {
		return "", fmt.Errorf("soliciting object: %w", err)
	}
	if affected == 0 {
		// The object's state changed between the checks above and the
		// conditional write; do not assume which precondition broke.
		return "", types.ErrSolicitFailed
	}
	return code, nil
}

// Devolve hands an object back: the institution presents the devolution
// code it was shown, scoped to its own objects.
func (s *Service) Devolve(ctx context.Context, institutionID, devolutionCode string) error {
	objects, err := s.objects.FindObjects(ctx, types.ObjectFilter{
		Institution:    institutionID,
		DevolutionCode: devolutionCode,
	})
	if err != nil {
		return fmt.Errorf("finding object to devolve: %w", err)
	}
	if len(objects) == 0 {
		return types.ErrObjectNotFound
	}

	affected, err := s.objects.DevolveObject(ctx, objects[0].ID, s.now())
	if err != nil {
		return fmt.Errorf("devolving object: %w", err)
	}
	if affected == 0 {
		return types.ErrDevolveFailed
	}
	return nil
}

// CancelSolicitation reopens a claimed object. The requester must be the
// owning institution or the current applicant; authorization is part of
// the store predicate, not a separate check. If backup applicants are
// queued, the object is immediately re-solicited for the queue head and
// that applicant is told by email. The cascade is best-effort: once the
// claim is cleared the cancellation has succeeded, and a cascade failure
// is logged, not returned.
func (s *Service) CancelSolicitation(ctx context.Context, requesterID, devolutionCode string) error {
	released, err := s.objects.ReleaseObject(ctx, requesterID, devolutionCode)
	if err != nil {
		return fmt.Errorf("cancelling solicitation: %w", err)
	}
	if released == nil {
		return types.ErrCancelFailed
	}

	if len(released.InterestedApplicants) > 0 {
		s.cascade(ctx, *released)
	}
	return nil
}

// cascade re-solicits a just-released object for the head of its
// interested queue, dequeues them, and dispatches the automatic
// solicitation email with the fresh code. Runs synchronously inside the
// cancellation call so the queue head is claimed before the original
// requester hears back.
func (s *Service) cascade(ctx context.Context, released types.Object) {
	head := released.InterestedApplicants[0]

	code, err := s.solicit(ctx, head.ApplicantID, released.ID)
	if err != nil {
		s.log.Printf("lifecycle: cascade solicit of %s for %s: %v", released.ID, head.ApplicantID, err)
		return
	}

	if _, err := s.objects.RemoveInterested(ctx, released.ID, head.ApplicantID); err != nil {
		s.log.Printf("lifecycle: cascade dequeue of %s from %s: %v", head.ApplicantID, released.ID, err)
	}

	s.dispatcher.Send(types.DispatchAutomaticSolicitObject, head.Email, map[string]string{
		"devolutionCode": code,
		"category":       released.Category,
		"type":           released.Type,
	})
}

// RegisterInterest queues an applicant behind an object someone else has
// claimed. Registering twice is a no-op the caller sees as a failure,
// matching the other mutators.
func (s *Service) RegisterInterest(ctx context.Context, applicantID, email, objectID string) error {
	affected, err := s.objects.AppendInterested(ctx, objectID, types.Interested{
		ApplicantID: applicantID,
		Email:       email,
		QueuedAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("registering interest: %w", err)
	}
	if affected == 0 {
		return types.ErrInterestNotAdded
	}
	return nil
}

// DeleteInterested removes an applicant from an object's queue.
func (s *Service) DeleteInterested(ctx context.Context, applicantID, objectID string) error {
	affected, err := s.objects.RemoveInterested(ctx, objectID, applicantID)
	if err != nil {
		return fmt.Errorf("cancelling interest: %w", err)
	}
	if affected == 0 {
		return types.ErrInterestNotRemoved
	}
	return nil
}

// solicitationExpired reports whether a claim made at solicitedAt has
// run past its window. Only calendar dates count: a claim from day D
// still blocks at any time of day D+3 and stops blocking on D+4.
func (s *Service) solicitationExpired(solicitedAt time.Time) bool {
	expiry := dateOnly(solicitedAt).AddDate(0, 0, solicitationExpiryDays)
	return dateOnly(s.now()).After(expiry)
}

// expiredBefore is the store-side form of the expiry rule: claims
// solicited strictly before this instant have expired.
func (s *Service) expiredBefore() time.Time {
	return dateOnly(s.now()).AddDate(0, 0, -solicitationExpiryDays)
}

// dateOnly normalizes a timestamp to midnight, local time.
func dateOnly(t time.Time) time.Time {
	year, month, day := t.Local().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}
