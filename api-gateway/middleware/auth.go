package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/wholesale-backoffice/pkg/auth"
)

// AuthMiddleware validates JWT tokens before requests reach the back-office
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals("employee_id", claims.EmployeeID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		// Identity headers for the back-office
		c.Request().Header.Set("X-Employee-ID", fmt.Sprintf("%d", claims.EmployeeID))
		c.Request().Header.Set("X-Username", claims.Username)
		c.Request().Header.Set("X-Employee-Role", claims.Role)

		return c.Next()
	}
}

// AdminMiddleware checks if the caller has the admin role
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := c.Locals("role")
		if role == nil || role.(string) != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}
