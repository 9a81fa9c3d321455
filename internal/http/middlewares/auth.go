package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"taskmarket.app/taskmarket/internal/gateway"
	"taskmarket.app/taskmarket/internal/services"
)

const actorKey = "actor"

// Authenticate resolves the acting user from the bearer token and stores
// it on the request context. Actors resolved here can never carry the
// system flag.
func Authenticate(identity gateway.IdentityProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			user, err := identity.Authenticate(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(actorKey, services.Actor{ID: user.ID})
			return next(c)
		}
	}
}

// Actor returns the authenticated actor stored by Authenticate.
func Actor(c echo.Context) services.Actor {
	if a, ok := c.Get(actorKey).(services.Actor); ok {
		return a
	}
	return services.Actor{}
}
