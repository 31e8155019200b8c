package testutil

import (
	"fmt"
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, db *gorm.DB, name, role string) *models.User {
	tb.Helper()
	u := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano()),
		Password: "pw",
		Role:     role,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedInstitution(tb testing.TB, db *gorm.DB, name string) *models.Institution {
	tb.Helper()
	i := &models.Institution{Name: name}
	if err := db.Create(i).Error; err != nil {
		tb.Fatalf("seed institution: %v", err)
	}
	return i
}

func SeedCourse(tb testing.TB, db *gorm.DB, educatorID uint, title string) *courseModels.Course {
	tb.Helper()
	c := &courseModels.Course{
		Title:       title,
		Description: "course description",
		EducatorID:  educatorID,
		Duration:    10,
		Status:      courseModels.CourseActive,
		IsPublished: true,
	}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, db *gorm.DB, courseID uint, order int) *courseModels.Module {
	tb.Helper()
	m := &courseModels.Module{CourseID: courseID, Title: fmt.Sprintf("module %d", order), OrderIndex: order}
	if err := db.Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

// SeedLessons creates n active lessons in the module.
func SeedLessons(tb testing.TB, db *gorm.DB, moduleID uint, n int) []*courseModels.Lesson {
	tb.Helper()
	lessons := make([]*courseModels.Lesson, 0, n)
	for i := 0; i < n; i++ {
		l := &courseModels.Lesson{
			ModuleID:     moduleID,
			Title:        fmt.Sprintf("lesson %d", i+1),
			MaterialKind: courseModels.MaterialDocument,
			OrderIndex:   i,
			IsActive:     true,
		}
		if err := db.Create(l).Error; err != nil {
			tb.Fatalf("seed lesson: %v", err)
		}
		lessons = append(lessons, l)
	}
	return lessons
}

func SeedEnrollment(tb testing.TB, db *gorm.DB, userID, courseID uint) *courseModels.Enrollment {
	tb.Helper()
	e := &courseModels.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     courseModels.EnrollmentActive,
		EnrolledAt: time.Now().UTC(),
	}
	if err := db.Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

// SeedPerformance records one attempt; percentage is derived from score/maxScore.
func SeedPerformance(tb testing.TB, db *gorm.DB, userID, lessonID uint, attempt int, score, maxScore float64, seconds int64, completed bool) *courseModels.LessonPerformance {
	tb.Helper()
	p := &courseModels.LessonPerformance{
		UserID:        userID,
		LessonID:      lessonID,
		AttemptNumber: attempt,
		MaterialKind:  courseModels.MaterialDocument,
		Score:         score,
		MaxScore:      maxScore,
		Percentage:    score / maxScore * 100,
		TimeSpent:     seconds,
		Completed:     completed,
	}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed performance: %v", err)
	}
	return p
}

// CourseFixture is a learner enrolled in a published course with n active lessons.
type CourseFixture struct {
	Learner    *models.User
	Educator   *models.User
	Course     *courseModels.Course
	Module     *courseModels.Module
	Lessons    []*courseModels.Lesson
	Enrollment *courseModels.Enrollment
}

func SeedCourseFixture(tb testing.TB, db *gorm.DB, lessons int) *CourseFixture {
	tb.Helper()
	educator := SeedUser(tb, db, "educator", models.RoleEducator)
	learner := SeedUser(tb, db, "learner", models.RoleLearner)
	course := SeedCourse(tb, db, educator.ID, "Distributed Systems")
	module := SeedModule(tb, db, course.ID, 1)
	return &CourseFixture{
		Learner:    learner,
		Educator:   educator,
		Course:     course,
		Module:     module,
		Lessons:    SeedLessons(tb, db, module.ID, lessons),
		Enrollment: SeedEnrollment(tb, db, learner.ID, course.ID),
	}
}

// CompleteLessons records a completed full-score attempt on each lesson.
func (f *CourseFixture) CompleteLessons(tb testing.TB, db *gorm.DB, lessons ...*courseModels.Lesson) {
	tb.Helper()
	for _, l := range lessons {
		SeedPerformance(tb, db, f.Learner.ID, l.ID, nextAttempt(tb, db, f.Learner.ID, l.ID), 10, 10, 1800, true)
	}
}

func nextAttempt(tb testing.TB, db *gorm.DB, userID, lessonID uint) int {
	tb.Helper()
	var n int64
	if err := db.Model(&courseModels.LessonPerformance{}).Where("user_id = ? AND lesson_id = ?", userID, lessonID).Count(&n).Error; err != nil {
		tb.Fatalf("count attempts: %v", err)
	}
	return int(n) + 1
}
