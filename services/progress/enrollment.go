package progress

import (
	"context"
	"errors"
	"fmt"

	courseModels "lms/models/course"
)

const reconcileBatchSize = 200

// Completion is the outcome of the active → completed transition.
type Completion struct {
	Enrollment  *courseModels.Enrollment  `json:"enrollment"`
	Certificate *courseModels.Certificate `json:"certificate"`
	Created     bool                      `json:"created"`
	Snapshot    Snapshot                  `json:"progress"`
}

// Complete moves an active enrollment to completed and issues its certificate.
// It refuses with *NotCompleteError while lessons remain, and is a no-op that
// returns the existing certificate when the enrollment is already completed.
func (e *Engine) Complete(ctx context.Context, enrollmentID uint) (*Completion, error) {
	enrollment, err := e.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: enrollment %d", ErrNotFound, enrollmentID)
		}
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	switch enrollment.Status {
	case courseModels.EnrollmentCompleted:
		res, err := e.Issue(ctx, enrollment.ID, enrollment.UserID, enrollment.CourseID)
		if err != nil {
			return nil, err
		}
		return &Completion{
			Enrollment:  enrollment,
			Certificate: res.Certificate,
			Created:     res.Created,
			Snapshot:    e.Snapshot(ctx, enrollment.ID, enrollment.UserID, enrollment.CourseID),
		}, nil
	case courseModels.EnrollmentActive:
	default:
		return nil, fmt.Errorf("%w: enrollment %d is %s", ErrInvalidTransition, enrollment.ID, enrollment.Status)
	}

	snap := e.Snapshot(ctx, enrollment.ID, enrollment.UserID, enrollment.CourseID)
	if !snap.IsComplete {
		return nil, &NotCompleteError{Snapshot: snap}
	}

	var res IssueResult
	err = e.store.WithTx(ctx, func(tx Store) error {
		locked, err := tx.LockEnrollment(ctx, enrollment.ID)
		if err != nil {
			return err
		}
		switch locked.Status {
		case courseModels.EnrollmentActive:
			if _, err := tx.MarkEnrollmentCompleted(ctx, locked.ID, e.now()); err != nil {
				return err
			}
		case courseModels.EnrollmentCompleted:
			// completed by a concurrent request; issuing below stays idempotent
		default:
			return fmt.Errorf("%w: enrollment %d is %s", ErrInvalidTransition, locked.ID, locked.Status)
		}
		res, err = e.issue(ctx, tx, locked.ID, locked.UserID, locked.CourseID)
		return err
	})

	if errors.Is(err, errDuplicateCertificate) {
		existing, ferr := e.store.CertificateByEnrollment(ctx, enrollment.ID)
		if ferr != nil || existing == nil {
			return nil, fmt.Errorf("%w: certificate conflict for enrollment %d", ErrIssuanceFailed, enrollment.ID)
		}
		res, err = IssueResult{Created: false, Certificate: existing}, nil
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrIssuanceFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	if res.Created {
		e.log.Info("enrollment completed", "enrollment_id", enrollment.ID, "learner_id", enrollment.UserID, "course_id", enrollment.CourseID)
		e.notify(ctx, res.Certificate)
	}

	updated, err := e.store.GetEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	return &Completion{
		Enrollment:  updated,
		Certificate: res.Certificate,
		Created:     res.Created,
		Snapshot:    snap,
	}, nil
}

// Reconcile recomputes progress for an active enrollment and completes it when
// every active lesson is done. It returns nil when no transition happened.
func (e *Engine) Reconcile(ctx context.Context, enrollmentID uint) (*Completion, error) {
	enrollment, err := e.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != courseModels.EnrollmentActive {
		return nil, nil
	}
	snap := e.Snapshot(ctx, enrollment.ID, enrollment.UserID, enrollment.CourseID)
	if !snap.IsComplete {
		return nil, nil
	}
	completion, err := e.Complete(ctx, enrollment.ID)
	if _, ok := IsNotComplete(err); ok || errors.Is(err, ErrInvalidTransition) {
		return nil, nil
	}
	return completion, err
}

// ReconcileActive walks every active enrollment and completes the finished ones.
// It returns how many enrollments transitioned.
func (e *Engine) ReconcileActive(ctx context.Context) (int, error) {
	var (
		afterID   uint
		completed int
	)
	for {
		ids, err := e.store.ActiveEnrollmentIDs(ctx, afterID, reconcileBatchSize)
		if err != nil {
			return completed, err
		}
		if len(ids) == 0 {
			return completed, nil
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return completed, err
			}
			c, err := e.Reconcile(ctx, id)
			if err != nil {
				e.log.Warn("reconcile enrollment failed", "enrollment_id", id, "error", err)
				continue
			}
			if c != nil && c.Created {
				completed++
			}
		}
		afterID = ids[len(ids)-1]
	}
}

// adminTransitions lists the moves an operator may make. COMPLETED is only
// reached through Complete and never left.
var adminTransitions = map[string][]string{
	courseModels.EnrollmentActive:    {courseModels.EnrollmentPaused, courseModels.EnrollmentCancelled},
	courseModels.EnrollmentPaused:    {courseModels.EnrollmentActive, courseModels.EnrollmentCancelled},
	courseModels.EnrollmentCancelled: {courseModels.EnrollmentActive},
}

// CheckTransition returns ErrInvalidTransition unless an operator may move an
// enrollment from one status to the other.
func CheckTransition(from, to string) error {
	for _, allowed := range adminTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}
