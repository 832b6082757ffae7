package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated account has one of the specified roles.  It must run after
// JWTAuth: a request without a session is rejected with 401 so that an
// authentication failure always wins over the role check, and a role
// outside the allow-list is rejected with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := SessionFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			if !allowed[s.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden: unauthorized role"})
			}
			return next(c)
		}
	}
}
