package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
)

// HTTPErrorHandler renders every error that reaches echo as
// {"message": "..."}.  Unknown errors become 500 and are logged.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "Internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Internal != nil && code >= 500 {
				log.Error("request failed", slog.String("path", c.Path()), sl.Err(he.Internal))
			}
			switch m := he.Message.(type) {
			case string:
				msg = m
			case error:
				msg = m.Error()
			default:
				msg = fmt.Sprint(m)
			}
		} else {
			log.Error("unhandled error", slog.String("path", c.Path()), sl.Err(err))
			if err.Error() != "" {
				msg = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"message": msg})
		}
		if err != nil {
			log.Error("write error response", sl.Err(err))
		}
	}
}
