package progress

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the enrollment, course or learner does not exist.
	ErrNotFound = errors.New("progress: not found")
	// ErrIssuanceFailed wraps persistence failures while minting a certificate.
	ErrIssuanceFailed = errors.New("progress: certificate issuance failed")
	// ErrInvalidTransition is returned when a paused or cancelled enrollment is asked to complete.
	ErrInvalidTransition = errors.New("progress: enrollment cannot be completed from its current status")

	errDuplicateCertificate = errors.New("progress: certificate already exists")
)

// NotCompleteError rejects a certificate request made before every active lesson is completed.
type NotCompleteError struct {
	Snapshot Snapshot
}

func (e *NotCompleteError) Error() string {
	return fmt.Sprintf("course not complete: %d%% progress (%d/%d lessons)",
		e.Snapshot.ProgressPercentage, e.Snapshot.CompletedLessons, e.Snapshot.TotalLessons)
}

// IsNotComplete reports whether err is a NotCompleteError and returns it.
func IsNotComplete(err error) (*NotCompleteError, bool) {
	var nc *NotCompleteError
	if errors.As(err, &nc) {
		return nc, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
