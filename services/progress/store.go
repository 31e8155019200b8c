package progress

import (
	"context"
	"errors"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IndependentInstitution is recorded on certificates for courses without an institution.
const IndependentInstitution = "Independent"

// IssuanceDetails is the denormalised data copied onto a certificate.
type IssuanceDetails struct {
	CourseTitle     string
	CourseDuration  int64
	EducatorID      uint
	EducatorName    string
	InstitutionName string
	LearnerName     string
	LearnerEmail    string
}

// Store is the relational surface the engine needs.
type Store interface {
	CountActiveLessons(ctx context.Context, courseID uint) (int64, error)
	CountCompletedLessons(ctx context.Context, learnerID, courseID uint) (int64, error)
	// PerformanceTotals returns the mean percentage and summed seconds of every
	// attempt the learner made on the course's active lessons.
	PerformanceTotals(ctx context.Context, learnerID, courseID uint) (float64, int64, error)

	GetEnrollment(ctx context.Context, id uint) (*courseModels.Enrollment, error)
	LockEnrollment(ctx context.Context, id uint) (*courseModels.Enrollment, error)
	MarkEnrollmentCompleted(ctx context.Context, id uint, at time.Time) (bool, error)
	ActiveEnrollmentIDs(ctx context.Context, afterID uint, limit int) ([]uint, error)

	// CertificateByEnrollment returns nil, nil when no certificate exists.
	CertificateByEnrollment(ctx context.Context, enrollmentID uint) (*courseModels.Certificate, error)
	CertificateCodeExists(ctx context.Context, code string) (bool, error)
	CreateCertificate(ctx context.Context, cert *courseModels.Certificate) error
	IssuanceDetails(ctx context.Context, learnerID, courseID uint) (*IssuanceDetails, error)

	WithTx(ctx context.Context, fn func(Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) activeLessonIDs(ctx context.Context, courseID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&courseModels.Lesson{}).
		Select("lessons.id").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ? AND modules.is_deleted = ? AND modules.deleted_at IS NULL", courseID, false).
		Where("lessons.is_active = ? AND lessons.is_deleted = ?", true, false)
}

func (s *gormStore) CountActiveLessons(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	err := s.activeLessonIDs(ctx, courseID).Count(&total).Error
	return total, err
}

func (s *gormStore) CountCompletedLessons(ctx context.Context, learnerID, courseID uint) (int64, error) {
	var completed int64
	err := s.db.WithContext(ctx).
		Model(&courseModels.LessonPerformance{}).
		Where("user_id = ? AND completed = ?", learnerID, true).
		Where("lesson_id IN (?)", s.activeLessonIDs(ctx, courseID)).
		Distinct("lesson_id").
		Count(&completed).Error
	return completed, err
}

func (s *gormStore) PerformanceTotals(ctx context.Context, learnerID, courseID uint) (float64, int64, error) {
	var row struct {
		AverageScore float64
		TotalTime    float64
	}
	err := s.db.WithContext(ctx).
		Model(&courseModels.LessonPerformance{}).
		Select("COALESCE(AVG(percentage), 0) AS average_score, COALESCE(SUM(time_spent), 0) AS total_time").
		Where("user_id = ?", learnerID).
		Where("lesson_id IN (?)", s.activeLessonIDs(ctx, courseID)).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.AverageScore, int64(row.TotalTime), nil
}

func (s *gormStore) GetEnrollment(ctx context.Context, id uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &enrollment, nil
}

func (s *gormStore) LockEnrollment(ctx context.Context, id uint) (*courseModels.Enrollment, error) {
	q := s.db.WithContext(ctx)
	// SQLite serialises writers itself and has no row locks.
	if s.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var enrollment courseModels.Enrollment
	if err := q.First(&enrollment, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &enrollment, nil
}

func (s *gormStore) MarkEnrollmentCompleted(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&courseModels.Enrollment{}).
		Where("id = ? AND status = ?", id, courseModels.EnrollmentActive).
		Updates(map[string]interface{}{
			"status":       courseModels.EnrollmentCompleted,
			"completed_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *gormStore) ActiveEnrollmentIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&courseModels.Enrollment{}).
		Where("status = ? AND id > ?", courseModels.EnrollmentActive, afterID).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *gormStore) CertificateByEnrollment(ctx context.Context, enrollmentID uint) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	err := s.db.WithContext(ctx).Where("enrollment_id = ?", enrollmentID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (s *gormStore) CertificateCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&courseModels.Certificate{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (s *gormStore) CreateCertificate(ctx context.Context, cert *courseModels.Certificate) error {
	return s.db.WithContext(ctx).Create(cert).Error
}

func (s *gormStore) IssuanceDetails(ctx context.Context, learnerID, courseID uint) (*IssuanceDetails, error) {
	db := s.db.WithContext(ctx)

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return nil, notFound(err)
	}

	var learner models.User
	if err := db.Where("id = ? AND is_deleted = ?", learnerID, false).First(&learner).Error; err != nil {
		return nil, notFound(err)
	}

	details := &IssuanceDetails{
		CourseTitle:     course.Title,
		CourseDuration:  course.Duration,
		EducatorID:      course.EducatorID,
		InstitutionName: IndependentInstitution,
		LearnerName:     learner.Name,
		LearnerEmail:    learner.Email,
	}

	institutionID := course.InstitutionID
	var educator models.User
	err := db.Where("id = ?", course.EducatorID).First(&educator).Error
	switch {
	case err == nil:
		details.EducatorName = educator.Name
		if institutionID == nil {
			institutionID = educator.InstitutionID
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if institutionID != nil {
		var institution models.Institution
		err := db.Where("id = ?", *institutionID).First(&institution).Error
		switch {
		case err == nil && institution.Name != "":
			details.InstitutionName = institution.Name
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	return details, nil
}

func (s *gormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
