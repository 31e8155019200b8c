package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	courseModels "lms/models/course"

	"github.com/google/uuid"
)

const maxCodeAttempts = 5

// IssueResult reports whether the call minted the certificate or found an existing one.
type IssueResult struct {
	Created     bool                      `json:"created"`
	Certificate *courseModels.Certificate `json:"certificate"`
}

// NewCertificateCode returns CERT-<year>-<12 random hex chars>.
func NewCertificateCode(at time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("CERT-%d-%s", at.Year(), id[:12])
}

// Issue mints the certificate for an enrollment, or returns the one already issued.
// Callers must have checked that the snapshot is complete.
func (e *Engine) Issue(ctx context.Context, enrollmentID, learnerID, courseID uint) (IssueResult, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		res, err := e.issue(ctx, e.store, enrollmentID, learnerID, courseID)
		if !errors.Is(err, errDuplicateCertificate) {
			if err == nil && res.Created {
				e.notify(ctx, res.Certificate)
			}
			return res, err
		}

		// Lost a race to a concurrent issuer, or drew a code that was taken.
		existing, ferr := e.store.CertificateByEnrollment(ctx, enrollmentID)
		if ferr != nil {
			return IssueResult{}, fmt.Errorf("%w: %v", ErrIssuanceFailed, ferr)
		}
		if existing != nil {
			return IssueResult{Created: false, Certificate: existing}, nil
		}
	}
	return IssueResult{}, fmt.Errorf("%w: could not allocate a unique certificate code", ErrIssuanceFailed)
}

func (e *Engine) issue(ctx context.Context, st Store, enrollmentID, learnerID, courseID uint) (IssueResult, error) {
	existing, err := st.CertificateByEnrollment(ctx, enrollmentID)
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}
	if existing != nil {
		return IssueResult{Created: false, Certificate: existing}, nil
	}

	details, err := st.IssuanceDetails(ctx, learnerID, courseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return IssueResult{}, fmt.Errorf("%w: course %d or learner %d", ErrNotFound, courseID, learnerID)
		}
		return IssueResult{}, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	issuedAt := e.now()
	code, err := e.uniqueCode(ctx, st, issuedAt)
	if err != nil {
		return IssueResult{}, err
	}

	snap := e.snapshot(ctx, st, enrollmentID, learnerID, courseID)
	cert := &courseModels.Certificate{
		EnrollmentID:    enrollmentID,
		UserID:          learnerID,
		CourseID:        courseID,
		Code:            code,
		IssuedAt:        issuedAt,
		FinalScore:      snap.AverageScore,
		TotalHours:      int64(math.Round(float64(snap.TotalTimeSpent) / 3600)),
		CourseTitle:     details.CourseTitle,
		CourseDuration:  details.CourseDuration,
		LearnerName:     details.LearnerName,
		EducatorName:    details.EducatorName,
		InstitutionName: details.InstitutionName,
	}

	if err := st.CreateCertificate(ctx, cert); err != nil {
		if isUniqueViolation(err) {
			return IssueResult{}, errDuplicateCertificate
		}
		return IssueResult{}, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	e.log.Info("certificate issued", "enrollment_id", enrollmentID, "certificate", cert.Code)
	return IssueResult{Created: true, Certificate: cert}, nil
}

func (e *Engine) uniqueCode(ctx context.Context, st Store, at time.Time) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := e.newCode(at)
		taken, err := st.CertificateCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique certificate code", ErrIssuanceFailed)
}
