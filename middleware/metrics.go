package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racingdb/metrics"
)

// Metrics records request counts and latency by matched route. The scrape
// endpoint itself is not counted.
func Metrics(skipPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == skipPath {
				return next(c)
			}

			metrics.RequestStarted()
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
