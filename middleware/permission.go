package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRole lets the request through only when the role set by
// JWTMiddleware is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: role not found", nil)
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}
}
