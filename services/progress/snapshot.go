package progress

import (
	"context"
	"math"
)

// Snapshot is a derived, never persisted, view of a learner's progress in a course.
type Snapshot struct {
	EnrollmentID       uint    `json:"enrollment_id"`
	LearnerID          uint    `json:"learner_id"`
	CourseID           uint    `json:"course_id"`
	TotalLessons       int64   `json:"total_lessons"`
	CompletedLessons   int64   `json:"completed_lessons"`
	ProgressPercentage int     `json:"progress_percentage"`
	AverageScore       float64 `json:"average_score"`
	TotalTimeSpent     int64   `json:"total_time_spent"`
	IsComplete         bool    `json:"is_complete"`
}

// Snapshot computes the learner's progress. It never fails: any data access
// error yields a zeroed, incomplete snapshot.
func (e *Engine) Snapshot(ctx context.Context, enrollmentID, learnerID, courseID uint) Snapshot {
	return e.snapshot(ctx, e.store, enrollmentID, learnerID, courseID)
}

func (e *Engine) snapshot(ctx context.Context, st Store, enrollmentID, learnerID, courseID uint) Snapshot {
	snap := Snapshot{EnrollmentID: enrollmentID, LearnerID: learnerID, CourseID: courseID}

	total, err := st.CountActiveLessons(ctx, courseID)
	if err != nil {
		e.log.Warn("count active lessons failed", "course_id", courseID, "error", err)
		return snap
	}
	completed, err := st.CountCompletedLessons(ctx, learnerID, courseID)
	if err != nil {
		e.log.Warn("count completed lessons failed", "course_id", courseID, "learner_id", learnerID, "error", err)
		return snap
	}
	avg, spent, err := st.PerformanceTotals(ctx, learnerID, courseID)
	if err != nil {
		e.log.Warn("performance totals failed", "course_id", courseID, "learner_id", learnerID, "error", err)
		return snap
	}

	return buildSnapshot(snap, total, completed, avg, spent)
}

func buildSnapshot(snap Snapshot, total, completed int64, avg float64, spent int64) Snapshot {
	snap.TotalLessons = total
	snap.CompletedLessons = completed
	snap.AverageScore = math.Round(avg*100) / 100
	snap.TotalTimeSpent = spent
	if total > 0 {
		pct := int(math.Round(100 * float64(completed) / float64(total)))
		if pct > 100 {
			pct = 100
		}
		snap.ProgressPercentage = pct
	}
	snap.IsComplete = total > 0 && completed >= total
	return snap
}
