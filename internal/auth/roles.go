package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// RequireUser ensures a user is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireSuperuser ensures the authenticated user holds superuser privilege.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.IsSuperuser {
			return apperrors.NewForbidden("superuser privilege required")
		}
		return c.Next()
	}
}
