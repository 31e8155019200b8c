package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to []string, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return m.err
}

func newSyncDispatcher(t *testing.T, mailer *recordingMailer) (*Dispatcher, *testutil.CourseFixture) {
	db := testutil.DB(t)
	f := testutil.SeedCourseFixture(t, db, 2)
	d := NewDispatcher(db, mailer, nil)
	d.async = false
	return d, f
}

func TestCertificateIssued_NotifiesLearnerAndEducator(t *testing.T) {
	mailer := &recordingMailer{}
	d, f := newSyncDispatcher(t, mailer)

	cert := &courseModels.Certificate{
		ID:           9,
		EnrollmentID: f.Enrollment.ID,
		UserID:       f.Learner.ID,
		CourseID:     f.Course.ID,
		Code:         "CERT-2026-0123456789AB",
		IssuedAt:     time.Now(),
		CourseTitle:  f.Course.Title,
		LearnerName:  f.Learner.Name,
	}
	require.NoError(t, d.CertificateIssued(context.Background(), cert))

	var learnerNotes []models.Notification
	require.NoError(t, d.db.Where("user_id = ?", f.Learner.ID).Find(&learnerNotes).Error)
	require.Len(t, learnerNotes, 1)
	assert.Equal(t, models.NotificationCertificateIssued, learnerNotes[0].Type)
	assert.Contains(t, learnerNotes[0].Message, cert.Code)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(learnerNotes[0].Data, &data))
	assert.Equal(t, cert.Code, data["certificate_code"])

	var educatorNotes []models.Notification
	require.NoError(t, d.db.Where("user_id = ?", f.Educator.ID).Find(&educatorNotes).Error)
	require.Len(t, educatorNotes, 1)
	assert.Equal(t, models.NotificationLearnerCompleted, educatorNotes[0].Type)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{f.Learner.Email}, mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, cert.Code)
}

func TestCertificateIssued_ReportsMailFailureAfterPersisting(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	d, f := newSyncDispatcher(t, mailer)

	cert := &courseModels.Certificate{EnrollmentID: f.Enrollment.ID, UserID: f.Learner.ID, CourseID: f.Course.ID, Code: "CERT-2026-FFFFFFFFFFFF"}
	err := d.CertificateIssued(context.Background(), cert)
	require.Error(t, err)

	var count int64
	require.NoError(t, d.db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestEnrollmentCreated(t *testing.T) {
	mailer := &recordingMailer{}
	d, f := newSyncDispatcher(t, mailer)

	require.NoError(t, d.EnrollmentCreated(context.Background(), f.Enrollment))

	var note models.Notification
	require.NoError(t, d.db.Where("user_id = ?", f.Learner.ID).First(&note).Error)
	assert.Equal(t, models.NotificationEnrollmentCreated, note.Type)
	assert.Contains(t, note.Message, f.Course.Title)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].subject, f.Course.Title)
}
