package middleware

// identity.go holds helpers shared across middleware files.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated account id as a string, or
// "anon" when the request carries no session.
func currentUserID(c echo.Context) string {
	if s, ok := SessionFrom(c); ok {
		return strconv.FormatUint(s.AccountID, 10)
	}
	return "anon"
}
