package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func IsAdmin(user *AppUser) bool {
	if user == nil {
		return false
	}
	return user.Role == "admin"
}

// RequireAdmin guards routes that change the whole graph.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := c.(*AppContext).User
		if user == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		if !IsAdmin(user) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: admin role required"})
		}
		return next(c)
	}
}
