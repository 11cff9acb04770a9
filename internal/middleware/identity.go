package middleware

// identity.go holds helpers shared across middleware and handlers for
// pulling the authenticated identity back out of the Echo context.

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// UserID extracts the authenticated user id stored by JWTAuth. JWT
// number claims decode as float64, so a few numeric shapes are accepted.
func UserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// UserRole extracts the authenticated role, or empty when absent.
func UserRole(c echo.Context) model.Role {
	if s, ok := c.Get("role").(string); ok {
		return model.Role(s)
	}
	return ""
}

// UserEmail extracts the authenticated email, or empty when absent.
func UserEmail(c echo.Context) string {
	if s, ok := c.Get("email").(string); ok {
		return s
	}
	return ""
}
