package controllers

import (
	"errors"
	"math"
	"strconv"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SubmitReview creates or replaces the caller's review of a course they are enrolled in.
func SubmitReview(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals(courseValidator.CourseIDKey).(uint)
	reqData := c.Locals(courseValidator.ReviewKey).(*courseValidator.ReviewRequest)

	db := database.Database.Db
	if _, err := findCourse(courseID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var enrolled int64
	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", userId, courseID, courseModels.EnrollmentCancelled).
		Count(&enrolled)
	if enrolled == 0 {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You must be enrolled to review this course!", nil)
	}

	var review courseModels.Review
	err := db.Where("user_id = ? AND course_id = ?", userId, courseID).First(&review).Error
	switch {
	case err == nil:
		review.Rating = reqData.Rating
		review.Comment = reqData.Comment
		if err := db.Save(&review).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update review!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Review updated successfully!", review)
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = courseModels.Review{UserID: userId, CourseID: courseID, Rating: reqData.Rating, Comment: reqData.Comment}
		if err := db.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return middleware.JsonResponse(c, fiber.StatusConflict, false, "You have already reviewed this course!", nil)
			}
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit review!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review submitted successfully!", review)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit review!", nil)
	}
}

// CourseRating returns the review count, mean rating and per-star distribution.
func CourseRating(c *fiber.Ctx) error {
	courseID := c.Locals(courseValidator.CourseIDKey).(uint)

	var rows []struct {
		Rating int
		Count  int64
	}
	if err := database.Database.Db.Model(&courseModels.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch rating!", nil)
	}

	distribution := fiber.Map{"1": int64(0), "2": int64(0), "3": int64(0), "4": int64(0), "5": int64(0)}
	var total, sum int64
	for _, r := range rows {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		distribution[strconv.Itoa(r.Rating)] = r.Count
		total += r.Count
		sum += int64(r.Rating) * r.Count
	}
	average := 0.0
	if total > 0 {
		average = math.Round(float64(sum)/float64(total)*100) / 100
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Rating fetched successfully!", fiber.Map{
		"course_id":    courseID,
		"count":        total,
		"average":      average,
		"distribution": distribution,
	})
}
