package middleware

// identity.go exposes the caller identity JWTAuth stored in the context.

import "github.com/labstack/echo/v4"

// Anonymous is the identity reported for requests without a token.
const Anonymous = "anonymous"

// Editor returns the authenticated subject, or Anonymous.
func Editor(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return Anonymous
}

// Role returns the role claim of the authenticated caller, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}
