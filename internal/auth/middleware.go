package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const contextUserKey = "auth.user_id"

// Middleware resolves the caller's identity from the Authorization
// header and stores it on the echo context.
//
// Requests without a usable token pass through as guests: read
// endpoints degrade to empty results, write endpoints reject via
// CurrentUser. An expired or malformed token is treated the same as
// no token.
func (p *Provider) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString := strings.TrimPrefix(authHeader, "Bearer ")
				if userID, err := p.ParseToken(tokenString); err == nil {
					c.Set(contextUserKey, userID)
				}
			}
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user id, or false for guests.
func CurrentUser(c echo.Context) (uint64, bool) {
	userID, ok := c.Get(contextUserKey).(uint64)
	return userID, ok
}
