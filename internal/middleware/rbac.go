package middleware

import (
	"go-chat/internal/features/authz"
	"go-chat/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireRole allows the request through when the caller's role meets or
// exceeds requiredRole in the fixed hierarchy.
func RequireRole(skipAuth bool, requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !authz.HasRole(claims.Role, requiredRole) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires " + requiredRole + " role or higher",
			})
		}

		return c.Next()
	}
}

// RequirePermission checks the caller's explicit overrides and the role's
// default permission set.
func RequirePermission(skipAuth bool, requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !authz.HasPermission(claims.Role, claims.Permissions, requiredPermission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires " + requiredPermission + " permission",
			})
		}

		return c.Next()
	}
}
