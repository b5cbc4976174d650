package identity

import (
	"github.com/labstack/echo/v4"
)

// Middleware copies the inbound request's bearer token into the request
// context so downstream platform calls are made on behalf of the same caller.
// Requests without a token pass through untouched.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := ParseBearer(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				req := c.Request()
				c.SetRequest(req.WithContext(WithToken(req.Context(), token)))
			}
			return next(c)
		}
	}
}
