package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	RecordRequest(method, path string, status int, seconds float64, size int64)
}

// NewMetrics records request count, latency and response size labelled by
// route pattern rather than raw URL.
func NewMetrics(rec RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				switch {
				case errors.As(err, &he):
					status = he.Code
				case !c.Response().Committed:
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			rec.RecordRequest(c.Request().Method, path, status, time.Since(start).Seconds(), c.Response().Size)
			return err
		}
	}
}
