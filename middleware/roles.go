package middleware

import (
	"context"
	"errors"
	"time"

	"lms/logger"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

// ErrUnknownUser is returned by role loaders for missing or deleted users.
var ErrUnknownUser = errors.New("unknown user")

// RoleCache resolves a user's roles. Invalidate must be called whenever a user's role changes.
type RoleCache interface {
	Get(ctx context.Context, userID uint) ([]string, error)
	Invalidate(ctx context.Context, userID uint) error
}

// RoleLoader reads a user's roles from the source of truth.
type RoleLoader func(ctx context.Context, userID uint) ([]string, error)

// UserRoleLoader loads roles from the users table.
func UserRoleLoader(db *gorm.DB) RoleLoader {
	return func(ctx context.Context, userID uint) ([]string, error) {
		var user models.User
		err := db.WithContext(ctx).Select("id", "role").Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		if err != nil {
			return nil, err
		}
		return []string{user.Role}, nil
	}
}

// roleCacheSize bounds how many users MemoryRoleCache keeps.
const roleCacheSize = 10_000

// MemoryRoleCache is a process-local RoleCache. Entries expire after ttl and
// the least recently used ones are evicted past roleCacheSize.
type MemoryRoleCache struct {
	entries *expirable.LRU[uint, []string]
	load    RoleLoader
}

// NewMemoryRoleCache builds a cache; a ttl <= 0 keeps entries until evicted or invalidated.
func NewMemoryRoleCache(load RoleLoader, ttl time.Duration) *MemoryRoleCache {
	return &MemoryRoleCache{
		entries: expirable.NewLRU[uint, []string](roleCacheSize, nil, ttl),
		load:    load,
	}
}

func (c *MemoryRoleCache) Get(ctx context.Context, userID uint) ([]string, error) {
	if roles, ok := c.entries.Get(userID); ok {
		return roles, nil
	}

	roles, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.entries.Add(userID, roles)
	return roles, nil
}

func (c *MemoryRoleCache) Invalidate(_ context.Context, userID uint) error {
	c.entries.Remove(userID)
	return nil
}

// Len reports how many users are currently cached.
func (c *MemoryRoleCache) Len() int {
	return c.entries.Len()
}

// LoadRoles resolves the authenticated user's roles into Locals("roles").
// It must run after JWTMiddleware.
func LoadRoles(cache RoleCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := resolveRoles(c, cache); !ok {
			return err
		}
		return c.Next()
	}
}

// RequireRole allows the request when the user holds any of roles.
func RequireRole(cache RoleCache, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := resolveRoles(c, cache); !ok {
			return err
		}
		for _, r := range roles {
			if HasRole(c, r) {
				return c.Next()
			}
		}
		return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}
}

// resolveRoles fills Locals("roles") once per request. When it returns false
// the error response has already been written.
func resolveRoles(c *fiber.Ctx, cache RoleCache) (bool, error) {
	if _, ok := c.Locals("roles").([]string); ok {
		return true, nil
	}
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return false, JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	roles, err := cache.Get(c.UserContext(), userID)
	if errors.Is(err, ErrUnknownUser) {
		return false, JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}
	if err != nil {
		logger.Log.Error("role lookup failed", "user_id", userID, "error", err)
		return false, JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
	}
	c.Locals("roles", roles)
	return true, nil
}

// HasRole reports whether the roles loaded for this request include role.
func HasRole(c *fiber.Ctx, role string) bool {
	roles, _ := c.Locals("roles").([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
