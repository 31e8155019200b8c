// Package notification records in-app notifications and sends the matching emails.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"lms/logger"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Dispatcher struct {
	db     *gorm.DB
	mailer utils.Mailer
	log    *logger.Logger
	// async sends email on a background goroutine.
	async bool
}

func NewDispatcher(db *gorm.DB, mailer utils.Mailer, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{db: db, mailer: mailer, log: log.With("service", "NotificationDispatcher"), async: true}
}

// CertificateIssued notifies the learner and the course educator.
func (d *Dispatcher) CertificateIssued(ctx context.Context, cert *courseModels.Certificate) error {
	var course courseModels.Course
	if err := d.db.WithContext(ctx).First(&course, cert.CourseID).Error; err != nil {
		return fmt.Errorf("load course %d: %w", cert.CourseID, err)
	}
	var learner models.User
	if err := d.db.WithContext(ctx).First(&learner, cert.UserID).Error; err != nil {
		return fmt.Errorf("load learner %d: %w", cert.UserID, err)
	}

	data, err := json.Marshal(map[string]interface{}{
		"certificate_id":   cert.ID,
		"certificate_code": cert.Code,
		"enrollment_id":    cert.EnrollmentID,
		"course_id":        cert.CourseID,
		"learner_id":       cert.UserID,
	})
	if err != nil {
		return err
	}

	rows := []models.Notification{
		{
			UserID:  cert.UserID,
			Type:    models.NotificationCertificateIssued,
			Title:   "Certificate issued",
			Message: fmt.Sprintf("You completed %s. Your certificate code is %s.", cert.CourseTitle, cert.Code),
			Data:    datatypes.JSON(data),
		},
	}
	if course.EducatorID != 0 && course.EducatorID != cert.UserID {
		rows = append(rows, models.Notification{
			UserID:  course.EducatorID,
			Type:    models.NotificationLearnerCompleted,
			Title:   "Learner completed your course",
			Message: fmt.Sprintf("%s completed %s.", cert.LearnerName, cert.CourseTitle),
			Data:    datatypes.JSON(data),
		})
	}
	if err := d.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}

	subject, body := utils.CertificateEmail(learner.Name, cert.CourseTitle, cert.Code)
	return d.send(ctx, learner.Email, subject, body)
}

// EnrollmentCreated notifies a learner that their enrollment is active.
func (d *Dispatcher) EnrollmentCreated(ctx context.Context, enrollment *courseModels.Enrollment) error {
	var course courseModels.Course
	if err := d.db.WithContext(ctx).First(&course, enrollment.CourseID).Error; err != nil {
		return fmt.Errorf("load course %d: %w", enrollment.CourseID, err)
	}
	var learner models.User
	if err := d.db.WithContext(ctx).First(&learner, enrollment.UserID).Error; err != nil {
		return fmt.Errorf("load learner %d: %w", enrollment.UserID, err)
	}

	data, err := json.Marshal(map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"course_id":     enrollment.CourseID,
	})
	if err != nil {
		return err
	}
	row := models.Notification{
		UserID:  enrollment.UserID,
		Type:    models.NotificationEnrollmentCreated,
		Title:   "Enrollment confirmed",
		Message: fmt.Sprintf("You are enrolled in %s.", course.Title),
		Data:    datatypes.JSON(data),
	}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	subject, body := utils.EnrollmentEmail(learner.Name, course.Title)
	return d.send(ctx, learner.Email, subject, body)
}

func (d *Dispatcher) send(ctx context.Context, to, subject, body string) error {
	if d.mailer == nil || to == "" {
		return nil
	}
	if !d.async {
		return d.mailer.Send(ctx, []string{to}, subject, body)
	}
	go func(ctx context.Context) {
		if err := d.mailer.Send(ctx, []string{to}, subject, body); err != nil {
			d.log.Warn("email delivery failed", "to", to, "subject", subject, "error", err)
		}
	}(context.WithoutCancel(ctx))
	return nil
}
