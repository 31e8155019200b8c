package superAdmin

import (
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	adminValidator "lms/validators/admin"

	"github.com/gofiber/fiber/v2"
)

// UpdateUserRole changes a user's role and drops their cached role set so
// the next request sees the new role.
func UpdateUserRole(cache middleware.RoleCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminId := c.Locals("userId").(uint)
		targetID := c.Locals(adminValidator.UserIDKey).(uint)
		reqData := c.Locals(adminValidator.RoleKey).(*adminValidator.RoleRequest)

		if targetID == adminId && reqData.Role != models.RoleAdmin {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot remove your own admin role!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}

		if err := database.Database.Db.Model(&user).Update("role", reqData.Role).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update role!", nil)
		}
		if err := cache.Invalidate(c.UserContext(), user.ID); err != nil {
			// The entry still expires on its TTL.
			logger.Log.Warn("[ADMIN] role cache invalidation failed", "user_id", user.ID, "error", err)
		}
		logger.Log.Info("[ADMIN] role updated", "admin_id", adminId, "user_id", user.ID, "role", reqData.Role)

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Role updated successfully!", user)
	}
}
