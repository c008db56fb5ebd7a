package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func LoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			path := req.URL.Path
			if req.URL.RawQuery != "" {
				path += "?" + req.URL.RawQuery
			}
			latency := time.Since(start).Milliseconds()

			// GET /api/profiles -> 200 OK (3ms) from 127.0.0.1
			log.Printf("%s %s -> %d %s (%dms) from %s",
				req.Method, path, res.Status, http.StatusText(res.Status), latency, c.RealIP())

			return nil
		}
	}
}
