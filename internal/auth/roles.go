package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ondapiu/ticketdesk/pkg/util"
)

// RequireAuthenticated ensures a caller is logged in.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin guards admin-only entry points: user registration, listing,
// deletion, password reset, the full ticket list and exports.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsAdmin {
			return apperrors.NewPermissionDenied("admin privileges required")
		}
		return c.Next()
	}
}
