package userControllers

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

const NotificationIDKey = "notificationID"

// ListNotifications returns the caller's notifications, newest first, with the unread count.
func ListNotifications(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, _ := c.Locals(courseValidator.PageKey).(*validators.Pagination)
	page, limit := 0, 0
	if reqData != nil {
		page, limit = reqData.Page, reqData.Limit
	}
	page, limit = database.NormalizePage(page, limit)

	db := database.Database.Db.Model(&models.Notification{}).Where("user_id = ?", userId)

	var total, unread int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch notifications!", nil)
	}
	database.Database.Db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userId, false).Count(&unread)

	var notifications []models.Notification
	if err := db.Scopes(database.Paginate(page, limit)).Order("created_at desc, id desc").Find(&notifications).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch notifications!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notifications fetched successfully!", fiber.Map{
		"notifications": notifications,
		"unread":        unread,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	notificationID := c.Locals(NotificationIDKey).(uint)

	res := database.Database.Db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userId).
		Update("is_read", true)
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update notification!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Notification not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification marked as read.", nil)
}
