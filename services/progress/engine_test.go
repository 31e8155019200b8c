package progress_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"
	"lms/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu    sync.Mutex
	certs []string
}

func (n *recordingNotifier) CertificateIssued(_ context.Context, cert *courseModels.Certificate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.certs = append(n.certs, cert.Code)
	return nil
}

func newEngine(db *gorm.DB) (*progress.Engine, *recordingNotifier) {
	n := &recordingNotifier{}
	return progress.NewEngine(progress.NewGormStore(db), n, nil), n
}

func certificateCount(t *testing.T, db *gorm.DB, enrollmentID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&courseModels.Certificate{}).Where("enrollment_id = ?", enrollmentID).Count(&n).Error)
	return n
}

func TestSnapshot_PartialProgress(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 4)
	f.CompleteLessons(t, db, f.Lessons[:3]...)
	engine, _ := newEngine(db)

	snap := engine.Snapshot(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, int64(4), snap.TotalLessons)
	assert.Equal(t, int64(3), snap.CompletedLessons)
	assert.Equal(t, 75, snap.ProgressPercentage)
	assert.False(t, snap.IsComplete)
	assert.Equal(t, float64(100), snap.AverageScore)
	assert.Equal(t, int64(3*1800), snap.TotalTimeSpent)
}

func TestSnapshot_AllLessonsCompleted(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 4)
	f.CompleteLessons(t, db, f.Lessons...)
	engine, _ := newEngine(db)

	snap := engine.Snapshot(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, 100, snap.ProgressPercentage)
	assert.True(t, snap.IsComplete)
}

func TestSnapshot_NoRecords(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 5)
	engine, _ := newEngine(db)

	snap := engine.Snapshot(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, int64(5), snap.TotalLessons)
	assert.Equal(t, 0, snap.ProgressPercentage)
	assert.Equal(t, float64(0), snap.AverageScore)
	assert.False(t, snap.IsComplete)
}

func TestSnapshot_CourseWithoutActiveLessonsNeverCompletes(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	f.CompleteLessons(t, db, f.Lessons...)
	require.NoError(t, db.Model(&courseModels.Lesson{}).Where("module_id = ?", f.Module.ID).Update("is_active", false).Error)
	engine, _ := newEngine(db)

	snap := engine.Snapshot(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, int64(0), snap.TotalLessons)
	assert.Equal(t, 0, snap.ProgressPercentage)
	assert.False(t, snap.IsComplete)
}

func TestSnapshot_AverageCountsIncompleteAttempts(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	testutil.SeedPerformance(t, db, f.Learner.ID, f.Lessons[0].ID, 1, 4, 10, 600, false)
	testutil.SeedPerformance(t, db, f.Learner.ID, f.Lessons[0].ID, 2, 8, 10, 600, true)
	engine, _ := newEngine(db)

	snap := engine.Snapshot(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, int64(1), snap.CompletedLessons)
	assert.Equal(t, 50, snap.ProgressPercentage)
	assert.Equal(t, float64(60), snap.AverageScore)
	assert.Equal(t, int64(1200), snap.TotalTimeSpent)
}

func TestSnapshot_IgnoresOtherCoursesAndLearners(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	other := testutil.SeedCourseFixture(t, db, 1)
	other.CompleteLessons(t, db, other.Lessons...)
	// another learner completing lessons of our course must not count
	testutil.SeedPerformance(t, db, other.Learner.ID, f.Lessons[0].ID, 1, 10, 10, 60, true)
	// our learner completing a lesson of another course must not count either
	testutil.SeedPerformance(t, db, f.Learner.ID, other.Lessons[0].ID, 1, 10, 10, 60, true)
	engine, _ := newEngine(db)

	snap := engine.Snapshot(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, int64(0), snap.CompletedLessons)
	assert.Equal(t, int64(0), snap.TotalTimeSpent)
}

func TestSnapshot_NeverRegressesOnLaterAttempts(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	engine, _ := newEngine(db)
	ctx := context.Background()

	f.CompleteLessons(t, db, f.Lessons[0])
	before := engine.Snapshot(ctx, f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	testutil.SeedPerformance(t, db, f.Learner.ID, f.Lessons[0].ID, 2, 1, 10, 60, false)
	after := engine.Snapshot(ctx, f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, 50, before.ProgressPercentage)
	assert.GreaterOrEqual(t, after.ProgressPercentage, before.ProgressPercentage)
}

type failingStore struct {
	progress.Store
}

func (failingStore) CountCompletedLessons(context.Context, uint, uint) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestSnapshot_StoreFailureYieldsZeroedSnapshot(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 1)
	f.CompleteLessons(t, db, f.Lessons...)
	engine := progress.NewEngine(failingStore{Store: progress.NewGormStore(db)}, nil, nil)

	snap := engine.Snapshot(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.Equal(t, int64(0), snap.TotalLessons)
	assert.Equal(t, 0, snap.ProgressPercentage)
	assert.False(t, snap.IsComplete)
	assert.Equal(t, f.Enrollment.ID, snap.EnrollmentID)
}

func TestComplete_RefusesIncompleteEnrollment(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 4)
	f.CompleteLessons(t, db, f.Lessons[:3]...)
	engine, notifier := newEngine(db)

	_, err := engine.Complete(context.Background(), f.Enrollment.ID)

	nc, ok := progress.IsNotComplete(err)
	require.True(t, ok, "expected NotCompleteError, got %v", err)
	assert.Equal(t, 75, nc.Snapshot.ProgressPercentage)
	assert.Equal(t, int64(0), certificateCount(t, db, f.Enrollment.ID))

	var enrollment courseModels.Enrollment
	require.NoError(t, db.First(&enrollment, f.Enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.Nil(t, enrollment.CompletedAt)
	assert.Empty(t, notifier.certs)
}

func TestComplete_IssuesCertificateAndCompletesEnrollment(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 4)
	f.CompleteLessons(t, db, f.Lessons...)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	engine, notifier := newEngine(db)
	engine.WithClock(func() time.Time { return fixed })

	c, err := engine.Complete(context.Background(), f.Enrollment.ID)
	require.NoError(t, err)

	assert.True(t, c.Created)
	assert.Equal(t, courseModels.EnrollmentCompleted, c.Enrollment.Status)
	require.NotNil(t, c.Enrollment.CompletedAt)
	assert.True(t, c.Enrollment.CompletedAt.Equal(fixed))
	assert.Regexp(t, `^CERT-2026-[0-9A-F]{12}$`, c.Certificate.Code)
	assert.Equal(t, f.Course.Title, c.Certificate.CourseTitle)
	assert.Equal(t, f.Learner.Name, c.Certificate.LearnerName)
	assert.Equal(t, f.Educator.Name, c.Certificate.EducatorName)
	assert.Equal(t, progress.IndependentInstitution, c.Certificate.InstitutionName)
	assert.Equal(t, float64(100), c.Certificate.FinalScore)
	assert.Equal(t, int64(2), c.Certificate.TotalHours)
	assert.Equal(t, []string{c.Certificate.Code}, notifier.certs)
}

func TestComplete_TwiceReturnsSameCertificate(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	f.CompleteLessons(t, db, f.Lessons...)
	engine, notifier := newEngine(db)
	ctx := context.Background()

	first, err := engine.Complete(ctx, f.Enrollment.ID)
	require.NoError(t, err)
	second, err := engine.Complete(ctx, f.Enrollment.ID)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Certificate.Code, second.Certificate.Code)
	assert.Equal(t, courseModels.EnrollmentCompleted, second.Enrollment.Status)
	assert.Equal(t, int64(1), certificateCount(t, db, f.Enrollment.ID))
	assert.Len(t, notifier.certs, 1)
}

func TestComplete_UsesInstitutionName(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 1)
	inst := testutil.SeedInstitution(t, db, "Open University")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", f.Educator.ID).Update("institution_id", inst.ID).Error)
	f.CompleteLessons(t, db, f.Lessons...)
	engine, _ := newEngine(db)

	c, err := engine.Complete(context.Background(), f.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Open University", c.Certificate.InstitutionName)
}

func TestComplete_UnknownEnrollment(t *testing.T) {
	db := testutil.DB(t)
	engine, _ := newEngine(db)

	_, err := engine.Complete(context.Background(), 9999)
	assert.ErrorIs(t, err, progress.ErrNotFound)
}

func TestComplete_PausedEnrollmentIsRejected(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 1)
	f.CompleteLessons(t, db, f.Lessons...)
	require.NoError(t, db.Model(&courseModels.Enrollment{}).Where("id = ?", f.Enrollment.ID).Update("status", courseModels.EnrollmentPaused).Error)
	engine, _ := newEngine(db)

	_, err := engine.Complete(context.Background(), f.Enrollment.ID)
	assert.ErrorIs(t, err, progress.ErrInvalidTransition)
	assert.Equal(t, int64(0), certificateCount(t, db, f.Enrollment.ID))
}

func TestIssue_MissingLearnerIsNotFound(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 1)
	engine, _ := newEngine(db)

	_, err := engine.Issue(context.Background(), f.Enrollment.ID, 4242, f.Course.ID)
	assert.ErrorIs(t, err, progress.ErrNotFound)
}

func TestIssue_IdempotentForSameEnrollment(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 1)
	f.CompleteLessons(t, db, f.Lessons...)
	engine, _ := newEngine(db)
	ctx := context.Background()

	first, err := engine.Issue(ctx, f.Enrollment.ID, f.Learner.ID, f.Course.ID)
	require.NoError(t, err)
	second, err := engine.Issue(ctx, f.Enrollment.ID, f.Learner.ID, f.Course.ID)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Certificate.Code, second.Certificate.Code)
	assert.Equal(t, int64(1), certificateCount(t, db, f.Enrollment.ID))
}

// racingStore hides the winner's certificate from the first existence check,
// reproducing two issuers that both pass the check before either inserts.
type racingStore struct {
	progress.Store
	mu     sync.Mutex
	hidden bool
}

func (s *racingStore) CertificateByEnrollment(ctx context.Context, enrollmentID uint) (*courseModels.Certificate, error) {
	s.mu.Lock()
	hide := !s.hidden
	s.hidden = true
	s.mu.Unlock()
	if hide {
		return nil, nil
	}
	return s.Store.CertificateByEnrollment(ctx, enrollmentID)
}

func TestIssue_UniqueViolationReturnsWinner(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 1)
	f.CompleteLessons(t, db, f.Lessons...)
	ctx := context.Background()

	winner, _ := newEngine(db)
	won, err := winner.Issue(ctx, f.Enrollment.ID, f.Learner.ID, f.Course.ID)
	require.NoError(t, err)

	loser := progress.NewEngine(&racingStore{Store: progress.NewGormStore(db)}, nil, nil)
	lost, err := loser.Issue(ctx, f.Enrollment.ID, f.Learner.ID, f.Course.ID)
	require.NoError(t, err)

	assert.False(t, lost.Created)
	assert.Equal(t, won.Certificate.Code, lost.Certificate.Code)
	assert.Equal(t, int64(1), certificateCount(t, db, f.Enrollment.ID))
}

// brokenInsertStore fails every certificate insert with a non-uniqueness error.
type brokenInsertStore struct {
	progress.Store
}

func (s brokenInsertStore) CreateCertificate(context.Context, *courseModels.Certificate) error {
	return errors.New("disk I/O error")
}

func (s brokenInsertStore) WithTx(ctx context.Context, fn func(progress.Store) error) error {
	return s.Store.WithTx(ctx, func(tx progress.Store) error {
		return fn(brokenInsertStore{Store: tx})
	})
}

func TestComplete_InsertFailureRollsBackAndReportsIssuanceFailure(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	f.CompleteLessons(t, db, f.Lessons...)
	notifier := &recordingNotifier{}
	engine := progress.NewEngine(brokenInsertStore{Store: progress.NewGormStore(db)}, notifier, nil)

	_, err := engine.Complete(context.Background(), f.Enrollment.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, progress.ErrIssuanceFailed)
	_, notComplete := progress.IsNotComplete(err)
	assert.False(t, notComplete)
	assert.Equal(t, int64(0), certificateCount(t, db, f.Enrollment.ID))

	var enrollment courseModels.Enrollment
	require.NoError(t, db.First(&enrollment, f.Enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	assert.Nil(t, enrollment.CompletedAt)
	assert.Empty(t, notifier.certs)
}

func TestIssue_InsertFailureIsIssuanceFailure(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 1)
	f.CompleteLessons(t, db, f.Lessons...)
	engine := progress.NewEngine(brokenInsertStore{Store: progress.NewGormStore(db)}, nil, nil)

	_, err := engine.Issue(context.Background(), f.Enrollment.ID, f.Learner.ID, f.Course.ID)

	assert.ErrorIs(t, err, progress.ErrIssuanceFailed)
	assert.Equal(t, int64(0), certificateCount(t, db, f.Enrollment.ID))
}

func TestIssue_RetriesOnCodeCollision(t *testing.T) {
	db := testutil.DB(t)
	a := testutil.SeedCourseFixture(t, db, 1)
	b := testutil.SeedCourseFixture(t, db, 1)
	a.CompleteLessons(t, db, a.Lessons...)
	b.CompleteLessons(t, db, b.Lessons...)
	ctx := context.Background()

	codes := []string{"CERT-2026-AAAAAAAAAAAA", "CERT-2026-AAAAAAAAAAAA", "CERT-2026-BBBBBBBBBBBB"}
	var mu sync.Mutex
	engine, _ := newEngine(db)
	engine.WithCodeGenerator(func(time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		code := codes[0]
		codes = codes[1:]
		return code
	})

	first, err := engine.Issue(ctx, a.Enrollment.ID, a.Learner.ID, a.Course.ID)
	require.NoError(t, err)
	second, err := engine.Issue(ctx, b.Enrollment.ID, b.Learner.ID, b.Course.ID)
	require.NoError(t, err)

	assert.Equal(t, "CERT-2026-AAAAAAAAAAAA", first.Certificate.Code)
	assert.Equal(t, "CERT-2026-BBBBBBBBBBBB", second.Certificate.Code)
}

func TestComplete_ConcurrentRequestsYieldOneCertificate(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 3)
	f.CompleteLessons(t, db, f.Lessons...)
	engine, notifier := newEngine(db)

	const callers = 4
	results := make([]*progress.Completion, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Complete(context.Background(), f.Enrollment.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i].Certificate)
		assert.Equal(t, results[0].Certificate.Code, results[i].Certificate.Code)
		if results[i].Created {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, int64(1), certificateCount(t, db, f.Enrollment.ID))
	assert.Len(t, notifier.certs, 1)
}

func TestReconcile_CompletesFinishedEnrollment(t *testing.T) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	engine, _ := newEngine(db)
	ctx := context.Background()

	f.CompleteLessons(t, db, f.Lessons[0])
	c, err := engine.Reconcile(ctx, f.Enrollment.ID)
	require.NoError(t, err)
	assert.Nil(t, c)

	f.CompleteLessons(t, db, f.Lessons[1])
	c, err = engine.Reconcile(ctx, f.Enrollment.ID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, c.Created)
	assert.Equal(t, courseModels.EnrollmentCompleted, c.Enrollment.Status)
}

func TestReconcileActive_SweepsAllEnrollments(t *testing.T) {
	db := testutil.DB(t)
	done := testutil.SeedCourseFixture(t, db, 1)
	pending := testutil.SeedCourseFixture(t, db, 2)
	done.CompleteLessons(t, db, done.Lessons...)
	pending.CompleteLessons(t, db, pending.Lessons[0])
	engine, _ := newEngine(db)

	n, err := engine.ReconcileActive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), certificateCount(t, db, done.Enrollment.ID))
	assert.Equal(t, int64(0), certificateCount(t, db, pending.Enrollment.ID))
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{courseModels.EnrollmentActive, courseModels.EnrollmentPaused, true},
		{courseModels.EnrollmentPaused, courseModels.EnrollmentActive, true},
		{courseModels.EnrollmentActive, courseModels.EnrollmentCancelled, true},
		{courseModels.EnrollmentCancelled, courseModels.EnrollmentActive, true},
		{courseModels.EnrollmentCompleted, courseModels.EnrollmentActive, false},
		{courseModels.EnrollmentActive, courseModels.EnrollmentCompleted, false},
		{courseModels.EnrollmentPaused, courseModels.EnrollmentPaused, false},
	}
	for _, tt := range tests {
		err := progress.CheckTransition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.ErrorIs(t, err, progress.ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
		}
	}
}
