package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aviary-labs/flightdesk/internal/model"
)

// RequireRole aborts the request with 403 unless the authenticated
// actor holds one of the given roles. Must run after Auth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[ActorFrom(c).Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
