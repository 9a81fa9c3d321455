package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireSubject restricts a route to the listed actor IDs. With an empty
// list the route is locked entirely; administration must be opted into by
// configuration.
func RequireSubject(allowed []string) echo.MiddlewareFunc {
	subjects := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		subjects[id] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := subjects[Actor(c).ID]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}
