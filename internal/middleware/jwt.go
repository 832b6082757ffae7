package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/utils"
)

// sessionKey is the echo context key holding the model.Session.
const sessionKey = "session"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the resolved model.Session on the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers
// read the identity back with SessionFrom; nothing else in the request
// path carries identity.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized: missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized: invalid token"})
			}
			c.Set(sessionKey, claims.Session())
			return next(c)
		}
	}
}

// SessionFrom returns the identity stored by JWTAuth.
func SessionFrom(c echo.Context) (model.Session, bool) {
	s, ok := c.Get(sessionKey).(model.Session)
	return s, ok && s.AccountID != 0
}

// WithSession stores s on c.  Tests use it to bypass token parsing.
func WithSession(c echo.Context, s model.Session) {
	c.Set(sessionKey, s)
}
