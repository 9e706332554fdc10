package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderRequestID is the correlation header echoed back to clients.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns each request a correlation id, honoring one supplied by
// the caller.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(HeaderRequestID, requestID)
			c.Set("request_id", requestID)
			return next(c)
		}
	}
}
